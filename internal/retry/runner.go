package retry

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"git.home.luguber.info/inful/notebridge/internal/logfields"
)

// ExhaustedError is returned when every attempt failed with a retryable error.
// Its message is exactly the last attempt's message, so callers that only look
// at text see the same error a single failure would produce; errors.As tells
// the two cases apart.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string { return e.Err.Error() }

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Runner executes an operation under a Policy. Zero-valued hooks fall back to
// real sleeping, math/rand jitter and "nothing is retryable".
type Runner struct {
	Policy    Policy
	Retryable func(error) bool
	Sleep     func(ctx context.Context, d time.Duration) error
	Random    func() float64
	OnRetry   func(attempt int, delay time.Duration, err error)
	Logger    *slog.Logger
}

// Do runs op until it succeeds, fails with a non-retryable error, or the policy's
// retries are used up. Attempts are numbered from 0.
func (r Runner) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= r.Policy.MaxRetries; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if r.Retryable == nil || !r.Retryable(err) {
			return err
		}
		if attempt == r.Policy.MaxRetries {
			break
		}
		delay := r.Policy.JitteredDelay(attempt+1, r.random())
		r.logger().Warn("Retrying remote call",
			logfields.Attempt(attempt+1),
			logfields.DelayMS(delay.Milliseconds()),
			logfields.Error(err))
		if r.OnRetry != nil {
			r.OnRetry(attempt+1, delay, err)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return &ExhaustedError{Attempts: r.Policy.MaxRetries + 1, Err: lastErr}
}

func (r Runner) random() float64 {
	if r.Random != nil {
		return r.Random()
	}
	return rand.Float64()
}

func (r Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

func (r Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
