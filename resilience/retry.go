// Package resilience provides retry, circuit-breaker, rate-limit, and
// request-hedging primitives used to harden calls to embedders, vector
// stores, generators, and other external dependencies.
package resilience

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/lookatitude/skill-engine/core"
)

// RetryPolicy configures Retry's backoff schedule and retryability rules.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         bool

	// RetryableErrors, if non-empty, replaces core.IsRetryable as the
	// retryability test: only core.Error values whose Code appears here
	// are retried.
	RetryableErrors []core.ErrorCode
}

// DefaultRetryPolicy returns the policy used to fill in zero-valued fields.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         true,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = d.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = d.MaxBackoff
	}
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = d.BackoffFactor
	}
	return p
}

func (p RetryPolicy) isRetryable(err error) bool {
	if len(p.RetryableErrors) == 0 {
		return core.IsRetryable(err)
	}
	var e *core.Error
	if !errors.As(err, &e) {
		return false
	}
	for _, code := range p.RetryableErrors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Retry calls fn until it succeeds, exhausts policy.MaxAttempts, returns a
// non-retryable error, or ctx is cancelled while waiting between attempts.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	policy = policy.normalized()
	backoff := policy.InitialBackoff

	var zero T
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if attempt == policy.MaxAttempts || !policy.isRetryable(err) {
			return zero, err
		}

		wait := backoff
		if policy.Jitter {
			wait = time.Duration(float64(wait) * (0.5 + rand.Float64()))
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}

		backoff = time.Duration(float64(backoff) * policy.BackoffFactor)
		if backoff > policy.MaxBackoff {
			backoff = policy.MaxBackoff
		}
	}
	return zero, nil // unreachable: loop always returns
}
