package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_FirstCallPassesImmediately(t *testing.T) {
	limiter := NewLimiter(1.0, zerolog.Nop())
	limiter.sleep = func(ctx context.Context, d time.Duration) error {
		t.Fatalf("first acquire should not sleep, slept %v", d)
		return nil
	}

	require.NoError(t, limiter.Acquire(context.Background()))
}

func TestAcquire_SecondCallWaitsOneInterval(t *testing.T) {
	limiter := NewLimiter(2.0, zerolog.Nop()) // 500ms interval

	var slept time.Duration
	limiter.sleep = func(ctx context.Context, d time.Duration) error {
		slept += d
		return nil
	}

	ctx := context.Background()
	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))

	assert.Greater(t, slept, time.Duration(0))
	assert.LessOrEqual(t, slept, 500*time.Millisecond)
}

func TestAcquire_ConcurrentCallersSerialize(t *testing.T) {
	limiter := NewLimiter(10.0, zerolog.Nop())

	var mu sync.Mutex
	sleeps := 0
	limiter.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		sleeps++
		mu.Unlock()
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, limiter.Acquire(context.Background()))
		}()
	}
	wg.Wait()

	// every caller after the first had to wait out the interval
	assert.Equal(t, 4, sleeps)
}

func TestAcquire_ZeroRateDisablesLimiting(t *testing.T) {
	limiter := NewLimiter(0, zerolog.Nop())

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Acquire(ctx))
	}
}

func TestAcquire_ContextCancelledWhileWaiting(t *testing.T) {
	limiter := NewLimiter(1.0, zerolog.Nop())
	limiter.sleep = sleepCtx

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, limiter.Acquire(ctx))

	cancel()
	err := limiter.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
