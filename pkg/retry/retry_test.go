package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastConfig returns a config with no real sleeping for tests that do not
// inspect delays.
func fastConfig(maxAttempts int) Config {
	return Config{
		MaxAttempts:   maxAttempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2,
		sleep: func(ctx context.Context, d time.Duration) error {
			return nil
		},
	}
}

func TestDo_SucceedsAfterRetryableFailures(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(3), "test op", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection refused")
		}
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 3, calls)
}

func TestDo_SuccessSkipsRemainingAttempts(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(5), "test op", func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 1, calls)
}

func TestDo_NonRetryableAbortsImmediately(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(5), "login", func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("authentication failed: invalid credentials")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "non-retryable (attempt 1)")
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	lastErr := errors.New("dial tcp: connection refused")
	calls := 0
	_, err := Do(context.Background(), fastConfig(3), "fetch", func(ctx context.Context) (string, error) {
		calls++
		return "", lastErr
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.True(t, errors.Is(err, lastErr))
}

func TestDo_DelayBounds(t *testing.T) {
	// With jitter pinned to its extremes, the delay before attempt k must
	// lie in [base, base*1.5] where base = min(initial*factor^(k-2), max).
	for name, jitterVal := range map[string]float64{"min jitter": 0, "max jitter": 1} {
		t.Run(name, func(t *testing.T) {
			var delays []time.Duration
			cfg := Config{
				MaxAttempts:   4,
				InitialDelay:  100 * time.Millisecond,
				MaxDelay:      300 * time.Millisecond,
				BackoffFactor: 2,
				jitter:        func() float64 { return jitterVal },
				sleep: func(ctx context.Context, d time.Duration) error {
					delays = append(delays, d)
					return nil
				},
			}

			_, err := Do(context.Background(), cfg, "flaky", func(ctx context.Context) (string, error) {
				return "", errors.New("timeout")
			})
			require.Error(t, err)
			require.Len(t, delays, 3)

			// Bases: 100ms, 200ms, then capped at 300ms.
			bases := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
			for i, base := range bases {
				lo := base
				hi := base + base/2
				assert.GreaterOrEqual(t, delays[i], lo, "delay %d below lower bound", i)
				assert.LessOrEqual(t, delays[i], hi, "delay %d above upper bound", i)
			}
		})
	}
}

func TestDo_RandomJitterStaysInRange(t *testing.T) {
	var delays []time.Duration
	cfg := Config{
		MaxAttempts:   5,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2,
		sleep: func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	_, err := Do(context.Background(), cfg, "flaky", func(ctx context.Context) (string, error) {
		return "", errors.New("connection reset")
	})
	require.Error(t, err)
	require.Len(t, delays, 4)

	base := 50 * time.Millisecond
	for i, d := range delays {
		assert.GreaterOrEqual(t, d, base, "delay %d", i)
		assert.LessOrEqual(t, d, base+base/2, "delay %d", i)
		base *= 2
	}
}

func TestDo_AttemptTimeout(t *testing.T) {
	t.Run("timed out attempt retries like any other failure", func(t *testing.T) {
		calls := 0
		cfg := fastConfig(2)
		cfg.TimeoutPerAttempt = 20 * time.Millisecond

		result, err := Do(context.Background(), cfg, "slow op", func(ctx context.Context) (string, error) {
			calls++
			if calls == 1 {
				// Block until the attempt context is cancelled by
				// the timeout race.
				<-ctx.Done()
				return "", ctx.Err()
			}
			return "ok", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 2, calls)
	})

	t.Run("timeout on final attempt surfaces TimeoutError", func(t *testing.T) {
		cfg := fastConfig(1)
		cfg.TimeoutPerAttempt = 10 * time.Millisecond

		_, err := Do(context.Background(), cfg, "slow op", func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

		require.Error(t, err)
		var timeoutErr *TimeoutError
		require.True(t, errors.As(err, &timeoutErr))
		assert.Equal(t, 10*time.Millisecond, timeoutErr.Budget)
		assert.Contains(t, err.Error(), "failed after 1 attempts")
	})
}

func TestDo_CustomClassifier(t *testing.T) {
	calls := 0
	cfg := fastConfig(3)
	cfg.Classify = func(err error) bool {
		return err.Error() == "flaky widget"
	}

	_, err := Do(context.Background(), cfg, "widget", func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("flaky widget")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls, "custom classifier should retry an error the default would reject")
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{
		MaxAttempts:   3,
		InitialDelay:  time.Hour, // never actually slept
		MaxDelay:      time.Hour,
		BackoffFactor: 2,
	}

	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := Do(ctx, cfg, "cancelled", func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("timeout")
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}

func TestDo_InvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero attempts", Config{MaxAttempts: 0, BackoffFactor: 2}},
		{"negative initial delay", Config{MaxAttempts: 1, InitialDelay: -time.Second, BackoffFactor: 2}},
		{"max delay below initial", Config{MaxAttempts: 1, InitialDelay: time.Second, MaxDelay: time.Millisecond, BackoffFactor: 2}},
		{"factor below one", Config{MaxAttempts: 1, BackoffFactor: 0.5}},
		{"negative attempt timeout", Config{MaxAttempts: 1, BackoffFactor: 1, TimeoutPerAttempt: -time.Second}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Do(context.Background(), tc.cfg, "bad", func(ctx context.Context) (string, error) {
				t.Fatal("operation must not run with invalid config")
				return "", nil
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "retry config")
		})
	}
}

func TestRun(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fastConfig(2), "void op", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("read tcp: connection reset by peer")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
