package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr int

func (s statusErr) Error() string   { return "status" }
func (s statusErr) StatusCode() int { return int(s) }

func recordingSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestLinearRetryMakesOnePlusMaxRetriesAttempts(t *testing.T) {
	var delays []time.Duration
	cfg := LinearRetryConfig(2, 500*time.Millisecond)
	cfg.Sleep = recordingSleep(&delays)

	transient := errors.New("connection refused")
	calls := 0
	err := WithRetryConfig(context.Background(), func(_ context.Context, attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		return transient
	}, nil, cfg)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, delays)
}

func TestNonRetryableStopsAfterFirstAttempt(t *testing.T) {
	var delays []time.Duration
	cfg := LinearRetryConfig(2, 500*time.Millisecond)
	cfg.Sleep = recordingSleep(&delays)
	cfg.Retryable = func(err error) bool {
		var s statusErr
		return !errors.As(err, &s)
	}

	calls := 0
	err := WithRetryConfig(context.Background(), func(context.Context, int) error {
		calls++
		return statusErr(400)
	}, nil, cfg)

	assert.Equal(t, statusErr(400), err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestFatalErrorStopsImmediately(t *testing.T) {
	cfg := LinearRetryConfig(5, time.Millisecond)
	cfg.Sleep = func(context.Context, time.Duration) error { return nil }

	calls := 0
	err := WithRetryConfig(context.Background(), func(context.Context, int) error {
		calls++
		return &FatalError{Err: errors.New("bad")}
	}, nil, cfg)

	var fatal *FatalError
	assert.ErrorAs(t, err, &fatal)
	assert.Equal(t, 1, calls)
}

func TestSuccessAfterRetry(t *testing.T) {
	var delays []time.Duration
	cfg := LinearRetryConfig(2, 500*time.Millisecond)
	cfg.Sleep = recordingSleep(&delays)

	var retried []int
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }

	err := WithRetryConfig(context.Background(), func(_ context.Context, attempt int) error {
		if attempt < 2 {
			return errors.New("reset")
		}
		return nil
	}, nil, cfg)

	require.NoError(t, err)
	assert.Equal(t, []int{1}, retried)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, delays)
}

func TestCancelledContextStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := WithRetryConfig(ctx, func(context.Context, int) error {
		calls++
		return nil
	}, nil, LinearRetryConfig(2, time.Millisecond))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDelaySchedules(t *testing.T) {
	linear := LinearRetryConfig(2, 500*time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, linear.Delay(1))
	assert.Equal(t, time.Second, linear.Delay(2))
	assert.Equal(t, 1500*time.Millisecond, linear.WorstCaseSleep())

	none := LinearRetryConfig(-1, 500*time.Millisecond)
	assert.Equal(t, 1, none.MaxAttempts)
	assert.Zero(t, none.WorstCaseSleep())
}

func TestZeroMaxAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func(context.Context, int) error {
		calls++
		return errors.New("reset")
	}, nil, RetryConfig{BaseDelay: time.Millisecond})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 1, calls)
}

func TestAdaptiveLimiterBackoffAndRecovery(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 1, 16, 2, 0.5)
	assert.Equal(t, 8.0, lim.CurrentLimit())

	lim.RateLimited()
	assert.Equal(t, 4.0, lim.CurrentLimit())
	assert.Equal(t, 4, lim.CurrentBurst())

	lim.Success() // still inside cooldown
	assert.Equal(t, 4.0, lim.CurrentLimit())

	lim.lastError = time.Now().Add(-time.Minute)
	lim.Success()
	assert.Equal(t, 6.0, lim.CurrentLimit())

	for i := 0; i < 10; i++ {
		lim.RateLimited()
	}
	assert.Equal(t, float64(lim.MinLimit()), lim.CurrentLimit())
}

func TestRateLimitErrorLowersLimiter(t *testing.T) {
	lim := NewAdaptiveLimiter(10, 1, 10, 1, 0.5)
	cfg := LinearRetryConfig(0, time.Millisecond)

	err := WithRetryConfig(context.Background(), func(context.Context, int) error {
		return statusErr(429)
	}, lim, cfg)

	require.Error(t, err)
	assert.Equal(t, 5.0, lim.CurrentLimit())
}
