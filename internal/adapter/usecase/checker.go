package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"adwatch/internal/core/domain"
	"adwatch/internal/core/port"
	"adwatch/internal/metrics"
)

// Checker orchestrates one campaign check: list the ads, fetch metrics per
// ad, evaluate against the policy and pause the failing ones. One ad's
// failure never aborts the run; listing or policy failures do.
type Checker struct {
	policies    port.PolicyRepository
	assignments port.AssignmentRepository
	reports     port.ReportSink
	clients     port.ClientFactory
	metrics     *metrics.Metrics
	logger      *slog.Logger

	// insightConcurrency bounds parallel insight fetches. Pause decisions
	// stay per-ad, so fanning out is safe.
	insightConcurrency int

	now func() time.Time
}

// NewChecker wires the orchestrator. insightConcurrency values below one
// are clamped to sequential fetching.
func NewChecker(
	policies port.PolicyRepository,
	assignments port.AssignmentRepository,
	reports port.ReportSink,
	clients port.ClientFactory,
	m *metrics.Metrics,
	logger *slog.Logger,
	insightConcurrency int,
) *Checker {
	if insightConcurrency < 1 {
		insightConcurrency = 1
	}
	return &Checker{
		policies:           policies,
		assignments:        assignments,
		reports:            reports,
		clients:            clients,
		metrics:            m,
		logger:             logger,
		insightConcurrency: insightConcurrency,
		now:                time.Now,
	}
}

// RunCheck implements port.CheckUseCase.
func (c *Checker) RunCheck(ctx context.Context, req port.CheckRequest, progress port.ProgressFunc) (*domain.CheckReport, error) {
	if progress == nil {
		progress = func(port.Stage, int, int, string) {}
	}
	started := c.now()

	progress(port.StageSetup, 0, 0, "resolving policy")
	policy, err := c.policies.Get(ctx, req.OwnerID, req.PolicyID)
	if err != nil {
		return c.fail(progress, fmt.Errorf("resolve policy %d: %w", req.PolicyID, err))
	}
	if len(policy.Thresholds) == 0 {
		return c.fail(progress, fmt.Errorf("policy %d: %w", policy.ID, domain.ErrNoThresholds))
	}

	period := req.Period
	if period == "" {
		period = policy.CheckPeriod
	}
	rng, known := domain.ResolvePeriod(period, started)
	if !known {
		c.logger.Warn("unknown check period, falling back to today",
			slog.String("period", string(period)),
			slog.String("campaign_id", req.CampaignID))
		period = domain.PeriodToday
	}

	client, err := c.clients.ClientFor(ctx, req.OwnerID)
	if err != nil {
		return c.fail(progress, fmt.Errorf("build platform client: %w", err))
	}

	progress(port.StageAds, 0, 0, "listing ads")
	ads, err := client.ListAds(ctx, req.CampaignID)
	if err != nil {
		return c.fail(progress, fmt.Errorf("list ads for campaign %s: %w", req.CampaignID, err))
	}

	report := &domain.CheckReport{
		OwnerID:    req.OwnerID,
		CampaignID: req.CampaignID,
		PolicyID:   policy.ID,
		Period:     period,
		DateTo:     rng.Until,
		StartedAt:  started,
		Results:    make([]domain.AdResult, len(ads)),
	}
	if !rng.Unbounded {
		since := rng.Since
		report.DateFrom = &since
	}

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.insightConcurrency)
	for i, ad := range ads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result := c.checkAd(gctx, client, ad, rng, policy.Thresholds, progress)
			mu.Lock()
			report.Results[i] = result
			done++
			progress(port.StageInsights, done, len(ads),
				fmt.Sprintf("ad %s: %s", ad.ID, result.Status))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Only cancellation propagates out of the group.
		return c.fail(progress, err)
	}

	for _, r := range report.Results {
		report.AdsChecked++
		switch r.Status {
		case domain.AdCheckPaused:
			report.AdsPaused++
		case domain.AdCheckSkipped:
			report.AdsSkipped++
		case domain.AdCheckError:
			report.AdsErrored++
		}
	}
	report.FinishedAt = c.now()

	// The ad list was obtained, so the check counts as run even when some
	// ads errored out.
	if err := c.assignments.TouchLastChecked(ctx, req.OwnerID, policy.ID, req.CampaignID, report.FinishedAt); err != nil {
		c.logger.Error("update last_checked", slog.String("campaign_id", req.CampaignID), slog.Any("error", err))
	}
	if err := c.reports.Save(ctx, report); err != nil {
		c.logger.Error("persist check report", slog.String("campaign_id", req.CampaignID), slog.Any("error", err))
	}

	c.metrics.ChecksTotal.WithLabelValues("ok").Inc()
	c.metrics.AdsChecked.Add(float64(report.AdsChecked))
	c.metrics.AdsPaused.Add(float64(report.AdsPaused))
	c.metrics.CheckDuration.Observe(report.FinishedAt.Sub(started).Seconds())

	progress(port.StageComplete, len(ads), len(ads),
		fmt.Sprintf("checked %d ads, paused %d", report.AdsChecked, report.AdsPaused))
	c.logger.Info("campaign check finished",
		slog.String("campaign_id", req.CampaignID),
		slog.Int64("policy_id", policy.ID),
		slog.Int("ads_checked", report.AdsChecked),
		slog.Int("ads_paused", report.AdsPaused),
		slog.Int("ads_errored", report.AdsErrored))
	return report, nil
}

// checkAd produces the result for one ad. All failures are folded into the
// result so the run keeps going.
func (c *Checker) checkAd(
	ctx context.Context,
	client port.MetricsPort,
	ad domain.AdRef,
	rng domain.DateRange,
	thresholds []domain.ThresholdEntry,
	progress port.ProgressFunc,
) domain.AdResult {
	result := domain.AdResult{AdID: ad.ID, AdName: ad.Name, AdStatus: ad.Status}

	if ad.Status.Terminal() {
		result.Status = domain.AdCheckSkipped
		result.Reason = fmt.Sprintf("ad is %s, nothing to do", ad.Status)
		return result
	}

	metric, err := client.GetInsights(ctx, ad.ID, rng)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			result.Status = domain.AdCheckSkipped
			result.Reason = "ad no longer exists on the platform"
			return result
		}
		result.Status = domain.AdCheckError
		result.Error = fmt.Sprintf("fetch insights: %v", err)
		return result
	}
	result.Spend = metric.Spend
	result.Conversions = metric.Conversions

	decision := domain.Evaluate(metric.Spend, metric.Conversions, thresholds)
	result.Reason = decision.Reason
	if decision.Pass {
		result.Status = domain.AdCheckPassed
		return result
	}

	progress(port.StageDisable, 0, 0, fmt.Sprintf("pausing ad %s: %s", ad.ID, decision.Reason))
	if err := client.Pause(ctx, ad.ID); err != nil {
		// The evaluation verdict stands; only the pause call failed.
		result.Status = domain.AdCheckError
		result.Error = fmt.Sprintf("pause ad: %v", err)
		return result
	}
	result.Status = domain.AdCheckPaused
	return result
}

func (c *Checker) fail(progress port.ProgressFunc, err error) (*domain.CheckReport, error) {
	c.metrics.ChecksTotal.WithLabelValues("error").Inc()
	progress(port.StageError, 0, 0, err.Error())
	return nil, err
}
