package model

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited decorates a Model with a client-side request rate limit shared
// across all sessions. Calls wait for a token before reaching the provider;
// a canceled context aborts the wait.
type RateLimited struct {
	inner   Model
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with a token bucket of rps requests per second
// and the given burst. rps <= 0 means unlimited.
func NewRateLimited(inner Model, rps float64, burst int) *RateLimited {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}

	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Generate waits for a rate token, then delegates to the wrapped model.
func (m *RateLimited) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		if err := m.limiter.Wait(ctx); err != nil {
			errCh <- err
			return
		}

		respCh, innerErrCh := m.inner.Generate(ctx, req)

		errSent := false
		for respCh != nil || innerErrCh != nil {
			select {
			case resp, ok := <-respCh:
				if !ok {
					respCh = nil
					continue
				}
				out <- resp
			case err, ok := <-innerErrCh:
				if !ok {
					innerErrCh = nil
					continue
				}
				if err != nil && !errSent {
					errCh <- err
					errSent = true
				}
			}
		}
	}()

	return out, errCh
}

// Info reports the wrapped model's metadata.
func (m *RateLimited) Info() Info { return m.inner.Info() }
