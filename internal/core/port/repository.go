package port

import (
	"context"
	"errors"
	"time"

	"adwatch/internal/core/domain"
)

var (
	ErrPolicyNotFound     = errors.New("policy not found")
	ErrAssignmentNotFound = errors.New("campaign assignment not found")
	ErrTokenNotFound      = errors.New("access token not found")
	ErrDuplicateBinding   = errors.New("campaign already assigned to this policy")
)

// PolicyRepository persists policies together with their threshold tables.
// Deleting a policy cascades to its threshold entries and assignments.
type PolicyRepository interface {
	Create(ctx context.Context, p *domain.Policy) error
	Get(ctx context.Context, ownerID, id int64) (*domain.Policy, error)
	List(ctx context.Context, ownerID int64) ([]domain.Policy, error)
	Update(ctx context.Context, p *domain.Policy) error
	Delete(ctx context.Context, ownerID, id int64) error
}

// AssignmentRepository persists campaign-to-policy bindings. Creating a
// binding that already exists for (owner, policy, campaign) returns
// ErrDuplicateBinding.
type AssignmentRepository interface {
	Create(ctx context.Context, a *domain.CampaignAssignment) error
	Get(ctx context.Context, ownerID, id int64) (*domain.CampaignAssignment, error)
	List(ctx context.Context, ownerID int64) ([]domain.CampaignAssignment, error)
	SetActive(ctx context.Context, ownerID, id int64, active bool) error
	Delete(ctx context.Context, ownerID, id int64) error

	// ListActive returns every active assignment whose policy is active,
	// paired with that policy, for the scheduler sweep.
	ListActive(ctx context.Context) ([]ScheduledAssignment, error)
	// TouchLastChecked records when a check last ran for the binding.
	// Last writer wins; a missing binding is a silent no-op.
	TouchLastChecked(ctx context.Context, ownerID, policyID int64, campaignID string, at time.Time) error
}

// ScheduledAssignment pairs an assignment with its policy for due-time
// computation during a sweep.
type ScheduledAssignment struct {
	Assignment domain.CampaignAssignment
	Policy     domain.Policy
}

// TokenRepository persists platform credentials. The engine only reads
// valid tokens; status transitions are driven externally.
type TokenRepository interface {
	Create(ctx context.Context, t *domain.AccessToken) error
	List(ctx context.Context, ownerID int64) ([]domain.AccessToken, error)
	Delete(ctx context.Context, ownerID, id int64) error
	// FindValid returns the first valid token for the owner, or
	// ErrTokenNotFound when none exists.
	FindValid(ctx context.Context, ownerID int64) (*domain.AccessToken, error)
	UpdateStatus(ctx context.Context, id int64, status domain.TokenStatus, errMsg string) error
}

// ReportSink receives finalized check reports for the audit log. Failures
// to persist a report must not fail the check itself.
type ReportSink interface {
	Save(ctx context.Context, r *domain.CheckReport) error
	ListRecent(ctx context.Context, ownerID int64, limit int) ([]domain.CheckReport, error)
}
