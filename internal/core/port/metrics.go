package port

import (
	"context"
	"errors"
	"fmt"

	"adwatch/internal/core/domain"
)

var (
	// ErrRateLimited marks a platform response asking us to slow down. The
	// resilient client retries it with exponential backoff.
	ErrRateLimited = errors.New("rate limited by ad platform")
	// ErrAuth marks an invalid or expired credential. Never retried; the
	// owning token needs re-validation externally.
	ErrAuth = errors.New("ad platform authentication failed")
	// ErrNotFound marks a campaign or ad that no longer exists.
	ErrNotFound = errors.New("object not found on ad platform")
	// ErrNoValidToken means the owner has no usable credential on file.
	ErrNoValidToken = errors.New("no valid access token for owner")
)

// APIError carries the platform's own error envelope for anything that is
// not covered by a sentinel above. Transient errors are retried.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Transient  bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ad platform error %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// MetricsPort is the outbound contract to the ad platform. Implementations
// must honour ctx cancellation on every call; all calls may block on network
// I/O for up to the configured retry budget.
type MetricsPort interface {
	// GetCampaign resolves a campaign reference by its external id.
	GetCampaign(ctx context.Context, campaignID string) (*domain.CampaignRef, error)
	// ListAds returns every ad in the campaign, following pagination until
	// the platform reports no further page or the safety cap is reached.
	ListAds(ctx context.Context, campaignID string) ([]domain.AdRef, error)
	// GetInsights fetches spend and conversions for one ad over the range.
	// An ad with no insight rows resolves to zero spend and conversions.
	GetInsights(ctx context.Context, adID string, rng domain.DateRange) (*domain.AdMetric, error)
	// Pause sets the ad's run state to paused. Pausing an already paused ad
	// succeeds without effect.
	Pause(ctx context.Context, adID string) error
}

// ClientFactory builds a MetricsPort for one owner using whatever valid
// credential the token store has for them.
type ClientFactory interface {
	ClientFor(ctx context.Context, ownerID int64) (MetricsPort, error)
}
