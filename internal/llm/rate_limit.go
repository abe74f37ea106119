package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited wraps a TextGenerator with a token-bucket limiter so that a
// burst of pipeline runs cannot flood the provider. Waiting respects the
// caller's context.
type RateLimited struct {
	inner   TextGenerator
	limiter *rate.Limiter
}

// NewRateLimited wraps gen with a limiter allowing rps requests per second
// with the given burst.
func NewRateLimited(gen TextGenerator, rps float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   gen,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Complete waits for limiter admission, then delegates to the wrapped client.
func (r *RateLimited) Complete(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return r.inner.Complete(ctx, req)
}

// Model returns the wrapped client's model name.
func (r *RateLimited) Model() string {
	return r.inner.Model()
}

// Compile-time assertion.
var _ TextGenerator = (*RateLimited)(nil)
