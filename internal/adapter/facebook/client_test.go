package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"adwatch/internal/config/configs"
	"adwatch/internal/core/domain"
	"adwatch/internal/core/port"
)

func testConfig(baseURL string) configs.Facebook {
	return configs.Facebook{
		BaseURL:            baseURL,
		APIVersion:         "v18.0",
		MaxAttempts:        3,
		AttemptTimeouts:    []time.Duration{time.Second, time.Second, time.Second},
		RateLimitBackoffs:  []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second},
		ServerErrorBackoff: 2 * time.Second,
		PageSize:           2,
		PageCap:            1000,
	}
}

// newTestClient wires a client against the test server and replaces the
// retrier's sleep with a recorder so tests run instantly.
func newTestClient(t *testing.T, cfg configs.Facebook) (*Client, *[]time.Duration) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	retries := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_retries_total"})
	client, err := NewClient(cfg, "test-token", "", retries, logger)
	require.NoError(t, err)

	var sleeps []time.Duration
	client.retrier.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return client, &sleeps
}

func TestListAdsPagination(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-token", r.URL.Query().Get("access_token"))
		page := r.URL.Query().Get("page")
		switch page {
		case "2":
			json.NewEncoder(w).Encode(adList{
				Data: []adNode{{ID: "ad3", Name: "third", Status: "ACTIVE"}},
			})
		default:
			json.NewEncoder(w).Encode(adList{
				Data: []adNode{
					{ID: "ad1", Name: "first", Status: "ACTIVE"},
					{ID: "ad2", Name: "second", Status: "ACTIVE", EffectiveStatus: "PAUSED"},
				},
				Paging: paging{Next: srv.URL + "/v18.0/c1/ads?access_token=test-token&page=2"},
			})
		}
	}))
	defer srv.Close()

	client, _ := newTestClient(t, testConfig(srv.URL))
	ads, err := client.ListAds(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, ads, 3)
	require.Equal(t, "ad1", ads[0].ID)
	// effective_status wins over status when the platform sends both.
	require.Equal(t, domain.AdStatusPaused, ads[1].Status)
	require.Equal(t, "ad3", ads[2].ID)
}

func TestListAdsPageCap(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Endless cursor: every page points at itself.
		json.NewEncoder(w).Encode(adList{
			Data:   []adNode{{ID: "ad", Status: "ACTIVE"}, {ID: "ad", Status: "ACTIVE"}},
			Paging: paging{Next: srv.URL + "/v18.0/c1/ads?access_token=test-token"},
		})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.PageCap = 4
	client, _ := newTestClient(t, cfg)

	ads, err := client.ListAds(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, ads, 4)
}

func TestGetInsights(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(insightList{Data: []insightRow{{
			Spend: "12.34",
			Actions: []action{
				{ActionType: "offsite_conversion", Value: "2"},
				{ActionType: "lead", Value: "1"},
				{ActionType: "link_click", Value: "99"},
			},
		}}})
	}))
	defer srv.Close()

	client, _ := newTestClient(t, testConfig(srv.URL))
	metric, err := client.GetInsights(context.Background(), "ad1", domain.DateRange{
		Since: time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC),
		Until: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, "12.34", metric.Spend.String())
	require.Equal(t, 3, metric.Conversions, "link_click is not a conversion action")
}

func TestGetInsightsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(insightList{})
	}))
	defer srv.Close()

	client, _ := newTestClient(t, testConfig(srv.URL))
	metric, err := client.GetInsights(context.Background(), "ad1", domain.DateRange{})
	require.NoError(t, err)
	require.True(t, metric.Spend.IsZero())
	require.Zero(t, metric.Conversions)
}

func TestGetInsightsRangeParams(t *testing.T) {
	var timeRange, datePreset string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timeRange = r.URL.Query().Get("time_range")
		datePreset = r.URL.Query().Get("date_preset")
		json.NewEncoder(w).Encode(insightList{})
	}))
	defer srv.Close()

	client, _ := newTestClient(t, testConfig(srv.URL))

	_, err := client.GetInsights(context.Background(), "ad1", domain.DateRange{
		Since: time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC),
		Until: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"since":"2024-06-09","until":"2024-06-15"}`, timeRange)
	require.Empty(t, datePreset)

	_, err = client.GetInsights(context.Background(), "ad1", domain.DateRange{Unbounded: true})
	require.NoError(t, err)
	require.Equal(t, "maximum", datePreset)
}

func TestPause(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "PAUSED", r.PostFormValue("status"))
		json.NewEncoder(w).Encode(updateResult{Success: true})
	}))
	defer srv.Close()

	client, _ := newTestClient(t, testConfig(srv.URL))
	require.NoError(t, client.Pause(context.Background(), "ad1"))
}

func TestPauseNotAcknowledged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(updateResult{Success: false})
	}))
	defer srv.Close()

	client, _ := newTestClient(t, testConfig(srv.URL))
	err := client.Pause(context.Background(), "ad1")
	require.Error(t, err)
	var apiErr *port.APIError
	require.ErrorAs(t, err, &apiErr)
}

func TestRateLimitRetriedWithEscalatingBackoff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"message":"too many calls","code":17}}`)
			return
		}
		json.NewEncoder(w).Encode(campaignNode{ID: "c1", Name: "spring"})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxAttempts = 4
	client, sleeps := newTestClient(t, cfg)

	ref, err := client.GetCampaign(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, "spring", ref.Name)
	require.Equal(t, int32(4), calls.Load())
	// Three throttle responses, three strictly increasing waits.
	require.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}, *sleeps)
}

func TestRateLimitExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"too many calls","code":4}}`)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, testConfig(srv.URL))
	_, err := client.GetCampaign(context.Background(), "c1")
	require.ErrorIs(t, err, port.ErrRateLimited)
	require.Equal(t, int32(3), calls.Load())
}

func TestAuthErrorFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid token","code":190}}`)
	}))
	defer srv.Close()

	client, sleeps := newTestClient(t, testConfig(srv.URL))
	_, err := client.GetCampaign(context.Background(), "c1")
	require.ErrorIs(t, err, port.ErrAuth)
	require.Equal(t, int32(1), calls.Load(), "auth errors must not be retried")
	require.Empty(t, *sleeps)
}

func TestServerErrorRetriedLinearly(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"message":"transient"}}`)
			return
		}
		json.NewEncoder(w).Encode(campaignNode{ID: "c1"})
	}))
	defer srv.Close()

	client, sleeps := newTestClient(t, testConfig(srv.URL))
	_, err := client.GetCampaign(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *sleeps)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "429 status",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"slow down"}}`,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, port.ErrRateLimited)
			},
		},
		{
			name:   "throttle code in 400",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"limit","code":613}}`,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, port.ErrRateLimited)
			},
		},
		{
			name:   "expired token code",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"expired","code":190}}`,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, port.ErrAuth)
			},
		},
		{
			name:   "missing object",
			status: http.StatusNotFound,
			body:   `{"error":{"message":"unknown id"}}`,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, port.ErrNotFound)
			},
		},
		{
			name:   "server error is transient",
			status: http.StatusBadGateway,
			body:   `oops`,
			check: func(t *testing.T, err error) {
				var apiErr *port.APIError
				require.ErrorAs(t, err, &apiErr)
				require.True(t, apiErr.Transient)
			},
		},
		{
			name:   "other 4xx is permanent",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"bad param","code":100}}`,
			check: func(t *testing.T, err error) {
				var apiErr *port.APIError
				require.ErrorAs(t, err, &apiErr)
				require.False(t, apiErr.Transient)
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, classify(tc.status, []byte(tc.body)))
		})
	}
}
