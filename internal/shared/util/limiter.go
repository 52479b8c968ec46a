package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter to provide a simpler interface.
type Limiter struct {
	inner *rate.Limiter
}

// NewIntervalLimiter allows one event per interval after an initial burst.
// A non-positive interval never limits.
func NewIntervalLimiter(interval time.Duration, b int) *Limiter {
	if interval <= 0 {
		return &Limiter{inner: rate.NewLimiter(rate.Inf, b)}
	}
	return &Limiter{inner: rate.NewLimiter(rate.Every(interval), b)}
}

// Delay is how long until n events would be allowed, without consuming tokens.
func (l *Limiter) Delay(n int) time.Duration {
	r := l.inner.ReserveN(time.Now(), n)
	if !r.OK() {
		return 0
	}
	d := r.Delay()
	r.Cancel()
	return d
}

// Wait blocks until n tokens are available.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.inner.WaitN(ctx, n)
}
