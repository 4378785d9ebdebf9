package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"adwatch/internal/core/domain"
	"adwatch/internal/core/port"
	"adwatch/internal/metrics"
)

// Tracker runs checks asynchronously on a bounded worker pool and keeps
// their state pollable by job id. The registry is mutex-guarded: workers
// mutate it through the progress callback while request handlers read it.
// Finished jobs are evicted after the retention TTL.
type Tracker struct {
	checker port.CheckUseCase
	pool    *ants.Pool
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu         sync.RWMutex
	jobs       map[string]*jobEntry
	byCampaign map[string]string // campaign id -> live job id

	stopJanitor chan struct{}
	janitorDone chan struct{}
}

type jobEntry struct {
	job    domain.CheckJob
	cancel context.CancelFunc
}

// NewTracker builds the tracker and starts its eviction janitor.
func NewTracker(checker port.CheckUseCase, workers int, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) (*Tracker, error) {
	if workers < 1 {
		workers = 1
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v any) {
		logger.Error("check worker panic", slog.Any("panic", v))
	}))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	t := &Tracker{
		checker:     checker,
		pool:        pool,
		ttl:         ttl,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
		jobs:        make(map[string]*jobEntry),
		byCampaign:  make(map[string]string),
		stopJanitor: make(chan struct{}),
		janitorDone: make(chan struct{}),
	}
	go t.janitor()
	return t, nil
}

// StartJob implements port.JobTracker. A second start for a campaign with a
// live job coalesces onto that job instead of double-pausing.
func (t *Tracker) StartJob(ctx context.Context, req port.CheckRequest) (string, error) {
	t.mu.Lock()
	if liveID, ok := t.byCampaign[req.CampaignID]; ok {
		if entry, ok := t.jobs[liveID]; ok && !entry.job.Status.Terminal() {
			t.mu.Unlock()
			t.logger.Info("coalescing onto running check",
				slog.String("campaign_id", req.CampaignID),
				slog.String("job_id", liveID))
			return liveID, nil
		}
	}

	id := uuid.NewString()
	// The job outlives the request that started it; cancellation comes
	// from CancelJob, not from the caller's context.
	runCtx, cancel := context.WithCancel(context.Background())
	now := t.now()
	t.jobs[id] = &jobEntry{
		cancel: cancel,
		job: domain.CheckJob{
			ID:         id,
			OwnerID:    req.OwnerID,
			CampaignID: req.CampaignID,
			PolicyID:   req.PolicyID,
			Period:     req.Period,
			Status:     domain.JobStarted,
			Log:        []string{"check queued"},
			StartedAt:  now,
			UpdatedAt:  now,
		},
	}
	t.byCampaign[req.CampaignID] = id
	t.mu.Unlock()
	t.metrics.JobsActive.Inc()

	if err := t.pool.Submit(func() { t.run(runCtx, id, req) }); err != nil {
		cancel()
		t.mu.Lock()
		delete(t.jobs, id)
		if t.byCampaign[req.CampaignID] == id {
			delete(t.byCampaign, req.CampaignID)
		}
		t.mu.Unlock()
		t.metrics.JobsActive.Dec()
		return "", fmt.Errorf("submit check job: %w", err)
	}
	return id, nil
}

// GetJob implements port.JobTracker.
func (t *Tracker) GetJob(jobID string) (*domain.CheckJob, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.jobs[jobID]
	if !ok {
		return nil, port.ErrJobNotFound
	}
	snapshot := entry.job
	snapshot.Log = append([]string(nil), entry.job.Log...)
	return &snapshot, nil
}

// CancelJob implements port.JobTracker.
func (t *Tracker) CancelJob(jobID string) error {
	t.mu.RLock()
	entry, ok := t.jobs[jobID]
	terminal := ok && entry.job.Status.Terminal()
	t.mu.RUnlock()
	if !ok || terminal {
		return port.ErrJobNotFound
	}
	entry.cancel()
	return nil
}

// Close stops the janitor and releases the worker pool. Running jobs are
// cancelled.
func (t *Tracker) Close() {
	close(t.stopJanitor)
	<-t.janitorDone

	t.mu.Lock()
	for _, entry := range t.jobs {
		entry.cancel()
	}
	t.mu.Unlock()
	t.pool.Release()
}

func (t *Tracker) run(ctx context.Context, id string, req port.CheckRequest) {
	defer t.metrics.JobsActive.Dec()
	// A panicking check must still reach a terminal state: a job left
	// "running" would hold the campaign's dedup slot forever and the
	// janitor only evicts terminal jobs.
	defer func() {
		if v := recover(); v != nil {
			t.logger.Error("check job panicked",
				slog.String("job_id", id),
				slog.String("campaign_id", req.CampaignID),
				slog.Any("panic", v))
			t.finish(id, req.CampaignID, nil, fmt.Errorf("internal error: %v", v))
		}
	}()

	t.update(id, func(job *domain.CheckJob) {
		job.Status = domain.JobRunning
	})

	report, err := t.checker.RunCheck(ctx, req, func(stage port.Stage, current, total int, message string) {
		t.update(id, func(job *domain.CheckJob) {
			job.Progress = progressPercent(stage, current, total, job.Progress)
			job.Log = append(job.Log, fmt.Sprintf("[%s] %s", stage, message))
		})
	})
	t.finish(id, req.CampaignID, report, err)
}

// finish moves the job into its terminal state and frees the campaign's
// dedup slot. Safe to call at most once per job.
func (t *Tracker) finish(id, campaignID string, report *domain.CheckReport, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.jobs[id]; ok {
		if err != nil {
			entry.job.Status = domain.JobError
			entry.job.Error = err.Error()
		} else {
			entry.job.Status = domain.JobComplete
			entry.job.Progress = 100
			entry.job.Result = report
		}
		entry.job.UpdatedAt = t.now()
	}
	if t.byCampaign[campaignID] == id {
		delete(t.byCampaign, campaignID)
	}
}

func (t *Tracker) update(id string, fn func(job *domain.CheckJob)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.jobs[id]
	if !ok {
		return
	}
	fn(&entry.job)
	entry.job.UpdatedAt = t.now()
}

// progressPercent maps stage progress onto 0-100: setup 5, listing 10, the
// per-ad insight loop 10-95, completion 100. Progress never moves backward.
func progressPercent(stage port.Stage, current, total, prev int) int {
	var pct int
	switch stage {
	case port.StageSetup:
		pct = 5
	case port.StageAds:
		pct = 10
	case port.StageInsights:
		if total > 0 {
			pct = 10 + 85*current/total
		}
	case port.StageComplete:
		pct = 100
	default:
		pct = prev
	}
	if pct < prev {
		return prev
	}
	return pct
}

func (t *Tracker) janitor() {
	defer close(t.janitorDone)
	interval := t.ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopJanitor:
			return
		case <-ticker.C:
			t.evict()
		}
	}
}

func (t *Tracker) evict() {
	cutoff := t.now().Add(-t.ttl)
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, entry := range t.jobs {
		if entry.job.Status.Terminal() && entry.job.UpdatedAt.Before(cutoff) {
			entry.cancel()
			delete(t.jobs, id)
		}
	}
}
