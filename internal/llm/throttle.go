package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Throttle bounds model backend calls by rate and by duration.
// A nil *Throttle applies no limits.
type Throttle struct {
	limiter *rate.Limiter
	timeout time.Duration
}

// NewThrottle creates a throttle allowing perSecond calls per second (0 disables the limit)
// and cancelling each call after timeout (0 disables the timeout).
func NewThrottle(perSecond float64, timeout time.Duration) *Throttle {
	t := &Throttle{timeout: timeout}
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return t
}

// Acquire waits for a rate slot and returns a context bounded by the per-call timeout.
// The returned cancel func must always be called.
func (t *Throttle) Acquire(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if t == nil {
		return ctx, func() {}, nil
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return ctx, func() {}, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if t.timeout > 0 {
		callCtx, cancel := context.WithTimeout(ctx, t.timeout)
		return callCtx, cancel, nil
	}
	return ctx, func() {}, nil
}
