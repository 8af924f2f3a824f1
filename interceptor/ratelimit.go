package interceptor

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimit throttles tool invocations with a token bucket. A call that
// cannot obtain a token before ctx ends is aborted.
type RateLimit struct {
	limiter *rate.Limiter
}

// NewRateLimit allows rps invocations per second with the given burst.
func NewRateLimit(rps float64, burst int) *RateLimit {
	if burst < 1 {
		burst = 1
	}
	return &RateLimit{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// NewRateLimitFromLimiter wraps an existing limiter, e.g. one shared across
// sessions talking to the same provider.
func NewRateLimitFromLimiter(l *rate.Limiter) *RateLimit {
	return &RateLimit{limiter: l}
}

// Before waits for a token.
func (r *RateLimit) Before(ctx context.Context, inv *Invocation) Decision {
	if err := r.limiter.Wait(ctx); err != nil {
		return Abort(fmt.Sprintf("rate limit: %v", err))
	}
	return Proceed()
}

// After returns res unchanged.
func (r *RateLimit) After(_ context.Context, _ *Invocation, res Result) Result { return res }
