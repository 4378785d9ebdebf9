package usecase

import (
	"context"
	"log/slog"
	"time"

	"adwatch/internal/core/domain"
	"adwatch/internal/core/port"
)

// Scheduler is the background sweep loop. Once per tick it loads every
// active assignment with an active policy and runs a check for the ones
// whose interval has elapsed. A single assignment's failure is logged and
// the sweep moves on; the loop itself only stops via Stop.
type Scheduler struct {
	assignments port.AssignmentRepository
	checker     port.CheckUseCase
	tick        time.Duration
	logger      *slog.Logger

	now  func() time.Time
	stop chan struct{}
	done chan struct{}
}

func NewScheduler(assignments port.AssignmentRepository, checker port.CheckUseCase, tick time.Duration, logger *slog.Logger) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	return &Scheduler{
		assignments: assignments,
		checker:     checker,
		tick:        tick,
		logger:      logger,
		now:         time.Now,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start launches the sweep loop. ctx cancellation and Stop both end it.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logger.Info("scheduler started", slog.Duration("tick", s.tick))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", slog.Any("reason", ctx.Err()))
			return
		case <-s.stop:
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs checks for every due assignment, synchronously and in the
// order the repository returned them. Order is not a guarantee.
func (s *Scheduler) sweep(ctx context.Context) {
	scheduled, err := s.assignments.ListActive(ctx)
	if err != nil {
		s.logger.Error("load active assignments", slog.Any("error", err))
		return
	}

	now := s.now()
	for _, sa := range scheduled {
		if !due(sa, now) {
			continue
		}
		req := port.CheckRequest{
			OwnerID:    sa.Assignment.OwnerID,
			CampaignID: sa.Assignment.CampaignID,
			PolicyID:   sa.Policy.ID,
			Period:     sa.Policy.CheckPeriod,
		}
		if _, err := s.checker.RunCheck(ctx, req, nil); err != nil {
			s.logger.Error("scheduled check failed",
				slog.String("campaign_id", sa.Assignment.CampaignID),
				slog.Int64("policy_id", sa.Policy.ID),
				slog.Any("error", err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// due reports whether the assignment's interval has elapsed at now.
func due(sa port.ScheduledAssignment, now time.Time) bool {
	interval := sa.Policy.CheckInterval
	if interval < domain.MinCheckInterval {
		interval = domain.MinCheckInterval
	}
	return sa.Assignment.Due(interval, now)
}
