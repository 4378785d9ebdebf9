package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"adwatch/internal/core/domain"
	"adwatch/internal/core/port"
)

type fakeChecker struct {
	mu   sync.Mutex
	reqs []port.CheckRequest

	// run overrides the default behaviour of recording the request and
	// returning an empty report.
	run func(ctx context.Context, req port.CheckRequest, progress port.ProgressFunc) (*domain.CheckReport, error)
}

func (f *fakeChecker) RunCheck(ctx context.Context, req port.CheckRequest, progress port.ProgressFunc) (*domain.CheckReport, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.run != nil {
		return f.run(ctx, req, progress)
	}
	return &domain.CheckReport{CampaignID: req.CampaignID}, nil
}

func (f *fakeChecker) requests() []port.CheckRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]port.CheckRequest(nil), f.reqs...)
}

func scheduled(campaignID string, interval time.Duration, lastChecked *time.Time) port.ScheduledAssignment {
	return port.ScheduledAssignment{
		Assignment: domain.CampaignAssignment{
			OwnerID:     7,
			PolicyID:    1,
			CampaignID:  campaignID,
			Active:      true,
			LastChecked: lastChecked,
		},
		Policy: domain.Policy{
			ID:            1,
			OwnerID:       7,
			CheckInterval: interval,
			CheckPeriod:   domain.PeriodToday,
			Active:        true,
		},
	}
}

func TestDue(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	interval := 10 * time.Minute

	never := scheduled("c1", interval, nil)
	require.True(t, due(never, now), "never-checked assignments are always due")

	elapsed := now.Add(-interval - time.Second)
	require.True(t, due(scheduled("c1", interval, &elapsed), now))

	exact := now.Add(-interval)
	require.True(t, due(scheduled("c1", interval, &exact), now))

	recent := now.Add(-interval + time.Second)
	require.False(t, due(scheduled("c1", interval, &recent), now))
}

func TestDueClampsTinyIntervals(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	// A minute-old check with a sub-minimum interval is not due: the floor
	// applies even when the stored policy slips under it.
	last := now.Add(-time.Minute)
	require.False(t, due(scheduled("c1", time.Second, &last), now))

	old := now.Add(-domain.MinCheckInterval)
	require.True(t, due(scheduled("c1", time.Second, &old), now))
}

func TestSweepRunsOnlyDueAssignments(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-time.Minute)
	assignments := &fakeAssignments{active: []port.ScheduledAssignment{
		scheduled("due-1", 10*time.Minute, nil),
		scheduled("fresh", 10*time.Minute, &recent),
		scheduled("due-2", 10*time.Minute, nil),
	}}
	checker := &fakeChecker{}
	s := NewScheduler(assignments, checker, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return now }

	s.sweep(context.Background())

	reqs := checker.requests()
	require.Len(t, reqs, 2)
	require.Equal(t, "due-1", reqs[0].CampaignID)
	require.Equal(t, "due-2", reqs[1].CampaignID)
	require.Equal(t, domain.PeriodToday, reqs[0].Period)
}

func TestSweepContinuesPastFailures(t *testing.T) {
	assignments := &fakeAssignments{active: []port.ScheduledAssignment{
		scheduled("broken", 10*time.Minute, nil),
		scheduled("healthy", 10*time.Minute, nil),
	}}
	checker := &fakeChecker{
		run: func(_ context.Context, req port.CheckRequest, _ port.ProgressFunc) (*domain.CheckReport, error) {
			if req.CampaignID == "broken" {
				return nil, errors.New("no valid token")
			}
			return &domain.CheckReport{CampaignID: req.CampaignID}, nil
		},
	}
	s := NewScheduler(assignments, checker, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.sweep(context.Background())
	require.Len(t, checker.requests(), 2)
}

func TestSweepListFailureIsContained(t *testing.T) {
	assignments := &fakeAssignments{listErr: errors.New("connection refused")}
	checker := &fakeChecker{}
	s := NewScheduler(assignments, checker, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.sweep(context.Background())
	require.Empty(t, checker.requests())
}

func TestSchedulerStop(t *testing.T) {
	assignments := &fakeAssignments{}
	s := NewScheduler(assignments, &fakeChecker{}, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	finished := make(chan struct{})
	go func() {
		s.Stop()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
