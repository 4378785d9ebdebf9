package facebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"adwatch/internal/config/configs"
	"adwatch/internal/core/domain"
	"adwatch/internal/core/port"
)

// Factory implements port.ClientFactory: it looks up the owner's first
// valid access token and builds a Graph API client around it.
type Factory struct {
	tokens  port.TokenRepository
	cfg     configs.Facebook
	retries prometheus.Counter
	logger  *slog.Logger
}

func NewFactory(tokens port.TokenRepository, cfg configs.Facebook, retries prometheus.Counter, logger *slog.Logger) *Factory {
	return &Factory{tokens: tokens, cfg: cfg, retries: retries, logger: logger}
}

// ClientFor returns a MetricsPort bound to the owner's credential, or
// port.ErrNoValidToken when none is on file. The returned client marks the
// credential invalid in the token store the first time the platform
// rejects it, so later checks pick a different token.
func (f *Factory) ClientFor(ctx context.Context, ownerID int64) (port.MetricsPort, error) {
	token, err := f.tokens.FindValid(ctx, ownerID)
	if err != nil {
		if errors.Is(err, port.ErrTokenNotFound) {
			return nil, port.ErrNoValidToken
		}
		return nil, fmt.Errorf("look up token for owner %d: %w", ownerID, err)
	}
	client, err := NewClient(f.cfg, token.AccessToken, token.ProxyURL, f.retries, f.logger)
	if err != nil {
		return nil, err
	}
	return &invalidatingClient{
		inner:   client,
		tokens:  f.tokens,
		tokenID: token.ID,
		logger:  f.logger,
	}, nil
}

// invalidatingClient watches every call for an authentication failure and
// flips the backing token to invalid, recording the platform's message.
// The status write happens once per client; repeat auth errors on the same
// credential carry no new information.
type invalidatingClient struct {
	inner   port.MetricsPort
	tokens  port.TokenRepository
	tokenID int64
	logger  *slog.Logger
	once    sync.Once
}

func (c *invalidatingClient) GetCampaign(ctx context.Context, campaignID string) (*domain.CampaignRef, error) {
	ref, err := c.inner.GetCampaign(ctx, campaignID)
	return ref, c.observe(ctx, err)
}

func (c *invalidatingClient) ListAds(ctx context.Context, campaignID string) ([]domain.AdRef, error) {
	ads, err := c.inner.ListAds(ctx, campaignID)
	return ads, c.observe(ctx, err)
}

func (c *invalidatingClient) GetInsights(ctx context.Context, adID string, rng domain.DateRange) (*domain.AdMetric, error) {
	metric, err := c.inner.GetInsights(ctx, adID, rng)
	return metric, c.observe(ctx, err)
}

func (c *invalidatingClient) Pause(ctx context.Context, adID string) error {
	return c.observe(ctx, c.inner.Pause(ctx, adID))
}

func (c *invalidatingClient) observe(ctx context.Context, err error) error {
	if err == nil || !errors.Is(err, port.ErrAuth) {
		return err
	}
	c.once.Do(func() {
		if uerr := c.tokens.UpdateStatus(ctx, c.tokenID, domain.TokenInvalid, err.Error()); uerr != nil {
			c.logger.Error("mark token invalid",
				slog.Int64("token_id", c.tokenID),
				slog.Any("error", uerr))
			return
		}
		c.logger.Warn("access token rejected by platform, marked invalid",
			slog.Int64("token_id", c.tokenID))
	})
	return err
}
