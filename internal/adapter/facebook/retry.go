package facebook

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"adwatch/internal/config/configs"
	"adwatch/internal/core/port"
)

// retrier applies the shared retry policy to every Graph API operation:
// escalating per-attempt timeouts, exponential sleeps after a throttle
// response, linear sleeps after server errors and fail-fast on every other
// client error.
type retrier struct {
	maxAttempts       int
	attemptTimeouts   []time.Duration
	rateLimitBackoffs []time.Duration
	serverErrBackoff  time.Duration
	retries           prometheus.Counter
	logger            *slog.Logger

	// sleep is swappable in tests to avoid real waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func newRetrier(cfg configs.Facebook, retries prometheus.Counter, logger *slog.Logger) *retrier {
	return &retrier{
		maxAttempts:       cfg.MaxAttempts,
		attemptTimeouts:   cfg.AttemptTimeouts,
		rateLimitBackoffs: cfg.RateLimitBackoffs,
		serverErrBackoff:  cfg.ServerErrorBackoff,
		retries:           retries,
		logger:            logger,
		sleep:             sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// do runs fn under the retry policy. fn receives a context bounded by the
// attempt's timeout and must return a classified error (see classify).
func (r *retrier) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout(attempt))
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait, retryable := r.disposition(err, attempt)
		if !retryable || attempt == r.maxAttempts-1 {
			return err
		}
		r.retries.Inc()
		r.logger.Warn("retrying ad platform call",
			slog.String("op", op),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.Any("error", err))
		if wait > 0 {
			if err := r.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	return lastErr
}

func (r *retrier) attemptTimeout(attempt int) time.Duration {
	if len(r.attemptTimeouts) == 0 {
		return time.Minute
	}
	if attempt >= len(r.attemptTimeouts) {
		return r.attemptTimeouts[len(r.attemptTimeouts)-1]
	}
	return r.attemptTimeouts[attempt]
}

// disposition decides whether err is retryable and how long to wait first.
func (r *retrier) disposition(err error, attempt int) (time.Duration, bool) {
	switch {
	case errors.Is(err, port.ErrRateLimited):
		return r.rateLimitBackoff(attempt), true
	case errors.Is(err, port.ErrAuth), errors.Is(err, port.ErrNotFound):
		return 0, false
	case errors.Is(err, context.DeadlineExceeded):
		// Per-attempt timeout: retry with the next, longer timeout.
		return 0, true
	}
	var apiErr *port.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Transient {
			return time.Duration(attempt+1) * r.serverErrBackoff, true
		}
		return 0, false
	}
	// Plain transport errors are treated as transient.
	return time.Duration(attempt+1) * r.serverErrBackoff, true
}

func (r *retrier) rateLimitBackoff(attempt int) time.Duration {
	if len(r.rateLimitBackoffs) == 0 {
		return 5 * time.Second
	}
	if attempt >= len(r.rateLimitBackoffs) {
		return r.rateLimitBackoffs[len(r.rateLimitBackoffs)-1]
	}
	return r.rateLimitBackoffs[attempt]
}
