// Package retry provides a bounded retry executor with exponential backoff,
// jitter, and per-attempt timeouts for wrapping fallible browser and network
// operations.
//
// Example usage:
//
//	result, err := retry.Do(ctx, retry.NavigationConfig(), "goto", func(ctx context.Context) (string, error) {
//	    return page.Goto(url)
//	})
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Config controls retry behavior for a single call site. The zero value is
// not usable; start from one of the named presets or fill every field.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Must be at least 1.
	MaxAttempts int

	// InitialDelay is the delay before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the computed backoff delay. Must be >= InitialDelay.
	MaxDelay time.Duration

	// BackoffFactor multiplies the delay after each failed attempt.
	// Must be >= 1.
	BackoffFactor float64

	// TimeoutPerAttempt bounds a single attempt. Zero disables the bound.
	TimeoutPerAttempt time.Duration

	// Classify overrides the retryable/non-retryable decision for this
	// call site. Nil falls back to DefaultClassifier.
	Classify Classifier

	// sleep and jitter are test seams; nil uses the real implementations.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// Named presets. Navigation is the most patient since full page loads are
// the slowest and flakiest operation; extraction the least since it runs
// against an already-loaded page. The constants are tuning values.

// NavigationConfig returns the retry preset for page navigation.
func NavigationConfig() Config {
	return Config{
		MaxAttempts:       4,
		InitialDelay:      2 * time.Second,
		MaxDelay:          30 * time.Second,
		BackoffFactor:     2,
		TimeoutPerAttempt: 60 * time.Second,
	}
}

// ActionConfig returns the retry preset for generic page actions.
func ActionConfig() Config {
	return Config{
		MaxAttempts:       3,
		InitialDelay:      time.Second,
		MaxDelay:          10 * time.Second,
		BackoffFactor:     2,
		TimeoutPerAttempt: 30 * time.Second,
	}
}

// ExtractionConfig returns the retry preset for content extraction.
func ExtractionConfig() Config {
	return Config{
		MaxAttempts:       2,
		InitialDelay:      500 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffFactor:     2,
		TimeoutPerAttempt: 15 * time.Second,
	}
}

// TimeoutError reports that a single attempt exceeded its time budget.
// It consumes the attempt it bounded, not an extra retry slot.
type TimeoutError struct {
	// Budget is the per-attempt time budget that was exceeded.
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation timed out after %s", e.Budget)
}

// Timeout marks the error as a timeout for net.Error-style checks.
func (e *TimeoutError) Timeout() bool { return true }

func (c Config) validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("retry config: MaxAttempts must be >= 1, got %d", c.MaxAttempts)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("retry config: InitialDelay must be >= 0, got %s", c.InitialDelay)
	}
	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("retry config: MaxDelay (%s) must be >= InitialDelay (%s)", c.MaxDelay, c.InitialDelay)
	}
	if c.BackoffFactor < 1 {
		return fmt.Errorf("retry config: BackoffFactor must be >= 1, got %g", c.BackoffFactor)
	}
	if c.TimeoutPerAttempt < 0 {
		return fmt.Errorf("retry config: TimeoutPerAttempt must be >= 0, got %s", c.TimeoutPerAttempt)
	}
	return nil
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// attempt budget is exhausted. Attempts are strictly sequential. The label
// names the operation in surfaced errors.
func Do[T any](ctx context.Context, cfg Config, label string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := cfg.validate(); err != nil {
		return zero, err
	}

	classify := cfg.Classify
	if classify == nil {
		classify = DefaultClassifier
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := runAttempt(ctx, cfg, op)
		if err == nil {
			return result, nil
		}
		lastErr = err

		// A cancelled parent context ends the whole call, not just
		// the attempt.
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: %w", label, ctx.Err())
		}

		if !classify(err) {
			return zero, fmt.Errorf("%s: non-retryable (attempt %d): %w", label, attempt, err)
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		if sleepErr := cfg.backoff(ctx, attempt); sleepErr != nil {
			return zero, fmt.Errorf("%s: %w", label, sleepErr)
		}
	}

	return zero, fmt.Errorf("%s: failed after %d attempts: %w", label, cfg.MaxAttempts, lastErr)
}

// Run is Do for operations that return only an error.
func Run(ctx context.Context, cfg Config, label string, op func(ctx context.Context) error) error {
	_, err := Do(ctx, cfg, label, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// runAttempt executes one attempt, racing it against the per-attempt timeout
// when one is configured. A timer win cancels the attempt's context and
// fails the attempt with a TimeoutError.
func runAttempt[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	if cfg.TimeoutPerAttempt <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		result T
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := op(attemptCtx)
		done <- outcome{result: result, err: err}
	}()

	timer := time.NewTimer(cfg.TimeoutPerAttempt)
	defer timer.Stop()

	var zero T
	select {
	case out := <-done:
		return out.result, out.err
	case <-timer.C:
		cancel()
		return zero, &TimeoutError{Budget: cfg.TimeoutPerAttempt}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// backoff sleeps before the next attempt. The delay grows exponentially in
// the attempt count, capped at MaxDelay, with a random jitter of up to 50%
// added so that concurrent callers do not retry in lockstep.
func (c Config) backoff(ctx context.Context, attempt int) error {
	base := float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt-1))
	base = math.Min(base, float64(c.MaxDelay))

	jitterFrac := c.jitter
	if jitterFrac == nil {
		jitterFrac = rand.Float64
	}
	delay := time.Duration(base + base*0.5*jitterFrac())

	sleep := c.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return sleep(ctx, delay)
}

// sleepContext waits for d or until ctx is cancelled, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
