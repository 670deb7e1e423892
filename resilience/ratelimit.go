package resilience

import (
	"context"
	"sync"
	"time"
)

// ProviderLimits bounds how fast and how concurrently a provider may be
// called. A zero field means unlimited for that dimension.
type ProviderLimits struct {
	RPM             int
	TPM             int
	MaxConcurrent   int
	CooldownOnRetry time.Duration
}

// RateLimiter enforces per-provider request, token, and concurrency
// budgets using token buckets that refill continuously.
type RateLimiter struct {
	mu sync.Mutex

	limits ProviderLimits

	rpmTokens     float64
	rpmLastRefill time.Time

	tpmTokens     float64
	tpmLastRefill time.Time

	concurrent int
}

const pollInterval = 5 * time.Millisecond

// NewRateLimiter builds a RateLimiter starting with full token buckets.
func NewRateLimiter(limits ProviderLimits) *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		limits:        limits,
		rpmTokens:     float64(limits.RPM),
		rpmLastRefill: now,
		tpmTokens:     float64(limits.TPM),
		tpmLastRefill: now,
	}
}

// Allow blocks until a request slot is available under both the RPM budget
// and the concurrency limit, or ctx is done.
func (rl *RateLimiter) Allow(ctx context.Context) error {
	if rl.limits.RPM > 0 {
		if err := rl.pollUntil(ctx, func() bool {
			rl.mu.Lock()
			defer rl.mu.Unlock()
			rl.refillRPMLocked()
			if rl.rpmTokens >= 1 {
				rl.rpmTokens--
				return true
			}
			return false
		}); err != nil {
			return err
		}
	}

	if rl.limits.MaxConcurrent > 0 {
		if err := rl.pollUntil(ctx, func() bool {
			rl.mu.Lock()
			defer rl.mu.Unlock()
			if rl.concurrent < rl.limits.MaxConcurrent {
				rl.concurrent++
				return true
			}
			return false
		}); err != nil {
			return err
		}
	}
	return nil
}

// Release frees a concurrency slot acquired by Allow.
func (rl *RateLimiter) Release() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.concurrent > 0 {
		rl.concurrent--
	}
}

// Wait pauses for CooldownOnRetry, or returns immediately if it is zero.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limits.CooldownOnRetry <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(rl.limits.CooldownOnRetry):
		return nil
	}
}

// ConsumeTokens blocks until count tokens are available under the TPM
// budget, or ctx is done. A non-positive TPM limit or count is a no-op.
func (rl *RateLimiter) ConsumeTokens(ctx context.Context, count int) error {
	if rl.limits.TPM <= 0 || count <= 0 {
		return nil
	}
	return rl.pollUntil(ctx, func() bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		rl.refillTPMLocked()
		if rl.tpmTokens >= float64(count) {
			rl.tpmTokens -= float64(count)
			return true
		}
		return false
	})
}

func (rl *RateLimiter) refillRPMLocked() {
	now := time.Now()
	elapsed := now.Sub(rl.rpmLastRefill).Seconds()
	rl.rpmTokens += elapsed * float64(rl.limits.RPM) / 60.0
	if cap := float64(rl.limits.RPM); rl.rpmTokens > cap {
		rl.rpmTokens = cap
	}
	rl.rpmLastRefill = now
}

func (rl *RateLimiter) refillTPMLocked() {
	now := time.Now()
	elapsed := now.Sub(rl.tpmLastRefill).Seconds()
	rl.tpmTokens += elapsed * float64(rl.limits.TPM) / 60.0
	if cap := float64(rl.limits.TPM); rl.tpmTokens > cap {
		rl.tpmTokens = cap
	}
	rl.tpmLastRefill = now
}

func (rl *RateLimiter) pollUntil(ctx context.Context, check func() bool) error {
	if check() {
		return nil
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if check() {
				return nil
			}
		}
	}
}
