package retryx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetrySucceedsEventually(t *testing.T) {
	t.Parallel()

	attempts := 0
	result, err := WithRetry(context.Background(), Options{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("not yet")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryExhausted(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	attempts := 0
	_, err := WithRetry(context.Background(), Options{MaxAttempts: 2, BaseDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		attempts++
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, attempts)
}

func TestWithRetryCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(ctx, Options{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		return 0, errors.New("should not run")
	})
	require.ErrorIs(t, err, ErrCancelled)
}

func TestMetricsRegistrySnapshot(t *testing.T) {
	t.Parallel()

	reg := NewMetricsRegistry(100, time.Minute)
	reg.ObserveLatency("op", 10*time.Millisecond)
	reg.ObserveLatency("op", 20*time.Millisecond)
	reg.RecordOutcome("op", false)
	reg.RecordOutcome("op", true)
	reg.IncrCounter("requests", 3)

	snap := reg.Snapshot()
	assert.Equal(t, uint64(2), snap.Histograms["op"].Count)
	assert.Equal(t, uint64(2), snap.Errors["op"].TotalCalls)
	assert.Equal(t, uint64(1), snap.Errors["op"].TotalErrors)
	assert.InDelta(t, 0.5, snap.Errors["op"].WindowedRate, 0.001)
	assert.Equal(t, uint64(3), snap.Counters["requests"])
}
