package port

import (
	"context"
	"errors"

	"adwatch/internal/core/domain"
)

var ErrJobNotFound = errors.New("check job not found")

// Stage names the phases a check moves through, in order. The insights and
// disable stages repeat once per ad.
type Stage string

const (
	StageSetup    Stage = "setup"
	StageAds      Stage = "ads"
	StageInsights Stage = "insights"
	StageDisable  Stage = "disable"
	StageComplete Stage = "complete"
	StageError    Stage = "error"
)

// ProgressFunc receives progress while a check runs. current and total are
// ad counters within the insights stage and zero elsewhere. Implementations
// must be safe for concurrent calls.
type ProgressFunc func(stage Stage, current, total int, message string)

// CheckRequest identifies one check to run: whose campaign, against which
// policy, over which period.
type CheckRequest struct {
	OwnerID    int64
	CampaignID string
	PolicyID   int64
	Period     domain.CheckPeriod
}

// CheckUseCase is the synchronous entry point into the audit engine.
type CheckUseCase interface {
	// RunCheck audits every ad in the campaign against the policy and
	// pauses the failing ones. The returned report always has a complete
	// shape; per-ad failures are recorded inside it, not returned as an
	// error. progress may be nil.
	RunCheck(ctx context.Context, req CheckRequest, progress ProgressFunc) (*domain.CheckReport, error)
}

// JobTracker runs checks asynchronously and keeps their state pollable.
type JobTracker interface {
	// StartJob launches a check in the background and returns its job id.
	// A second start for a campaign with a live job coalesces onto the
	// running job and returns its id.
	StartJob(ctx context.Context, req CheckRequest) (string, error)
	// GetJob returns a snapshot of the job, or ErrJobNotFound.
	GetJob(jobID string) (*domain.CheckJob, error)
	// CancelJob stops a running job's retry loops. Cancelling a finished
	// or unknown job returns ErrJobNotFound.
	CancelJob(jobID string) error
}
