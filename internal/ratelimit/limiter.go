// Package ratelimit - limiter.go provides a minimum-interval rate limiter
// shared by LLM and tool callers to keep request rates under provider quotas.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Limiter enforces a minimum interval between permitted calls. It is safe for
// concurrent use; callers block in Acquire until their slot arrives.
type Limiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        time.Time
	logger      zerolog.Logger

	// sleep is swapped in tests to avoid real waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter builds a limiter allowing ratePerSecond calls per second.
// A non-positive rate disables limiting.
func NewLimiter(ratePerSecond float64, logger zerolog.Logger) *Limiter {
	var interval time.Duration
	if ratePerSecond > 0 {
		interval = time.Duration(float64(time.Second) / ratePerSecond)
	}
	return &Limiter{
		minInterval: interval,
		logger:      logger.With().Str("component", "ratelimit").Logger(),
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Acquire blocks until the caller may proceed, or until ctx is cancelled.
// Waiters are serialized so concurrent callers are spaced one interval apart.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.minInterval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(l.last)
	if wait := l.minInterval - elapsed; wait > 0 {
		l.logger.Warn().Dur("wait", wait).Msg("rate limit reached, waiting")
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
		now = time.Now()
	}
	l.last = now
	return nil
}
