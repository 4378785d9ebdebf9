package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"adwatch/internal/config/configs"
	"adwatch/internal/core/domain"
	"adwatch/internal/core/port"
)

// conversionActions are the Graph API action types counted as conversions.
var conversionActions = map[string]bool{
	"offsite_conversion": true,
	"lead":               true,
	"purchase":           true,
}

// Client implements port.MetricsPort against the Facebook Graph API. Every
// operation goes through the shared retrier; pagination is followed
// transparently up to the configured cap.
type Client struct {
	cfg     configs.Facebook
	token   string
	http    *http.Client
	retrier *retrier
	logger  *slog.Logger
}

// NewClient builds a client for one access token. A non-empty proxyURL
// routes all traffic for this token through the given proxy.
func NewClient(cfg configs.Facebook, token, proxyURL string, retries prometheus.Counter, logger *slog.Logger) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &Client{
		cfg:   cfg,
		token: token,
		// Per-attempt deadlines come from the retrier's context, so the
		// client itself carries no timeout.
		http:    &http.Client{Transport: transport},
		retrier: newRetrier(cfg, retries, logger),
		logger:  logger,
	}, nil
}

// GetCampaign resolves a campaign reference by id.
func (c *Client) GetCampaign(ctx context.Context, campaignID string) (*domain.CampaignRef, error) {
	var node campaignNode
	endpoint := c.objectURL(campaignID, url.Values{"fields": {"id,name,status"}})
	err := c.retrier.do(ctx, "get_campaign", func(ctx context.Context) error {
		return c.getJSON(ctx, endpoint, &node)
	})
	if err != nil {
		return nil, err
	}
	return &domain.CampaignRef{ID: node.ID, Name: node.Name, Status: node.Status}, nil
}

// ListAds returns every ad in the campaign, following pagination cursors
// until the platform reports no next page or the safety cap is reached.
func (c *Client) ListAds(ctx context.Context, campaignID string) ([]domain.AdRef, error) {
	endpoint := c.objectURL(campaignID+"/ads", url.Values{
		"fields": {"id,name,status,effective_status"},
		"limit":  {strconv.Itoa(c.cfg.PageSize)},
	})

	var ads []domain.AdRef
	for endpoint != "" {
		var page adList
		err := c.retrier.do(ctx, "list_ads", func(ctx context.Context) error {
			return c.getJSON(ctx, endpoint, &page)
		})
		if err != nil {
			return nil, err
		}
		for _, node := range page.Data {
			status := node.EffectiveStatus
			if status == "" {
				status = node.Status
			}
			ads = append(ads, domain.AdRef{
				ID:     node.ID,
				Name:   node.Name,
				Status: domain.AdStatus(status),
			})
		}
		if len(ads) >= c.cfg.PageCap {
			c.logger.Warn("pagination cap reached",
				slog.String("campaign_id", campaignID),
				slog.Int("cap", c.cfg.PageCap))
			break
		}
		endpoint = page.Paging.Next
	}
	return ads, nil
}

// GetInsights fetches spend and conversions for one ad over the range. An
// ad with no insight rows resolves to zero spend and zero conversions.
func (c *Client) GetInsights(ctx context.Context, adID string, rng domain.DateRange) (*domain.AdMetric, error) {
	params := url.Values{"fields": {"spend,actions"}}
	if rng.Unbounded {
		params.Set("date_preset", "maximum")
	} else {
		params.Set("time_range", fmt.Sprintf(`{"since":"%s","until":"%s"}`,
			rng.Since.Format("2006-01-02"), rng.Until.Format("2006-01-02")))
	}
	endpoint := c.objectURL(adID+"/insights", params)

	var list insightList
	err := c.retrier.do(ctx, "get_insights", func(ctx context.Context) error {
		return c.getJSON(ctx, endpoint, &list)
	})
	if err != nil {
		return nil, err
	}

	metric := &domain.AdMetric{AdID: adID, Spend: decimal.Zero}
	if len(list.Data) == 0 {
		return metric, nil
	}
	row := list.Data[0]
	if row.Spend != "" {
		spend, err := decimal.NewFromString(row.Spend)
		if err != nil {
			return nil, fmt.Errorf("parse spend %q for ad %s: %w", row.Spend, adID, err)
		}
		metric.Spend = spend
	}
	for _, a := range row.Actions {
		if !conversionActions[a.ActionType] {
			continue
		}
		n, err := strconv.Atoi(a.Value)
		if err != nil {
			continue
		}
		metric.Conversions += n
	}
	return metric, nil
}

// Pause sets the ad's run state to PAUSED. The platform treats pausing an
// already paused ad as a successful no-op, and so does this client.
func (c *Client) Pause(ctx context.Context, adID string) error {
	endpoint := c.objectURL(adID, nil)
	return c.retrier.do(ctx, "pause_ad", func(ctx context.Context) error {
		form := url.Values{"status": {string(domain.AdStatusPaused)}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
			strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		var result updateResult
		if err := c.roundTrip(req, &result); err != nil {
			return err
		}
		if !result.Success {
			return &port.APIError{StatusCode: http.StatusOK, Message: "update not acknowledged"}
		}
		return nil
	})
}

// objectURL builds a versioned Graph API URL with the access token applied.
func (c *Client) objectURL(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.token)
	return fmt.Sprintf("%s/%s/%s?%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.APIVersion, path, params.Encode())
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.roundTrip(req, out)
}

// roundTrip executes one request and classifies non-2xx responses into the
// port error taxonomy so the retrier can decide what to do.
func (c *Client) roundTrip(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		return json.Unmarshal(body, out)
	}
	return classify(resp.StatusCode, body)
}

// Graph API error codes for throttling; 429s carry them in the body, but
// some edges only set the code.
var rateLimitCodes = map[int]bool{4: true, 17: true, 32: true, 613: true}

func classify(status int, body []byte) error {
	var envelope errorEnvelope
	_ = json.Unmarshal(body, &envelope)
	ge := envelope.Error
	if ge == nil {
		ge = &graphError{Message: strings.TrimSpace(string(body))}
	}

	switch {
	case status == http.StatusTooManyRequests || rateLimitCodes[ge.Code]:
		return fmt.Errorf("%w: %s", port.ErrRateLimited, ge.Message)
	case status == http.StatusUnauthorized || status == http.StatusForbidden || ge.Code == 190:
		return fmt.Errorf("%w: %s", port.ErrAuth, ge.Message)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", port.ErrNotFound, ge.Message)
	}
	return &port.APIError{
		StatusCode: status,
		Code:       ge.Code,
		Message:    ge.Message,
		Transient:  status >= 500,
	}
}
