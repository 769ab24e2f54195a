package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrRetriesExhausted is returned when every retry attempt hit a rate limit.
var ErrRetriesExhausted = errors.New("max retries exceeded for rate-limited call")

// RetryPolicy configures exponential backoff for rate-limited calls.
// Only rate-limit errors are retried; anything else propagates immediately.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Logger     zerolog.Logger

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetryPolicy(maxRetries int, baseDelay time.Duration, logger zerolog.Logger) RetryPolicy {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		Logger:     logger.With().Str("component", "retry").Logger(),
		sleep:      sleepCtx,
	}
}

// IsRateLimited reports whether err looks like a provider rate-limit
// rejection. Providers surface these inconsistently, so this matches on the
// 429 status code and common phrasing in the error text.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "quota exceeded")
}

// Retry runs fn, backing off and retrying when it fails with a rate-limit
// error. Delay doubles each attempt with up to half a second of jitter.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	sleep := policy.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	for attempt := 0; attempt < policy.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRateLimited(err) {
			return zero, err
		}

		delay := policy.BaseDelay*(1<<attempt) + time.Duration(rand.Float64()*float64(500*time.Millisecond))
		policy.Logger.Warn().
			Int("attempt", attempt+1).
			Int("max_retries", policy.MaxRetries).
			Dur("delay", delay).
			Err(err).
			Msg("rate limited, backing off")

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, policy.MaxRetries)
}
