package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider re-sends a request after transient failures. Waits grow by
// Multiplier up to MaxWait with 20% jitter; a schema mismatch gets a single
// second try.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

func WithRetry(p Provider, cfg RetryConfig) Provider {
	cfg.MaxAttempts = max(cfg.MaxAttempts, 1)
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Name() string    { return r.inner.Name() }
func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	schemaRetryUsed := false
	attempt := 0
	for {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		attempt++
		class := classify(err)
		if class == retryNever || attempt >= r.config.MaxAttempts {
			return nil, err
		}
		if class == retryOnce {
			if schemaRetryUsed {
				return nil, err
			}
			schemaRetryUsed = true
		}

		timer := time.NewTimer(r.wait(attempt-1, err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// wait is the pause before the attempt after the given one. A RetryAfter
// from the backend takes precedence.
func (r *RetryProvider) wait(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	d := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	d = min(d, float64(r.config.MaxWait))
	d *= 1 + 0.2*(2*rand.Float64()-1)
	return time.Duration(max(d, 0))
}
