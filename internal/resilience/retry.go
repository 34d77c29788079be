package resilience

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// Policy controls how collaborator calls are retried. Two error classes get
// different treatment: rate limits back off exponentially (1s, 2s, 4s, capped
// at BackoffCap) up to MaxAttempts; other transient failures get exactly one
// more attempt after FlatDelay. Everything else fails immediately.
type Policy struct {
	// MaxAttempts is the total attempt count for rate-limited calls,
	// including the first try. Default: 4.
	MaxAttempts int

	// BackoffBase is the delay before the first rate-limit retry. Default: 1s.
	BackoffBase time.Duration

	// BackoffCap bounds the exponential backoff. Default: 5s.
	BackoffCap time.Duration

	// FlatDelay is the pause before the single retry granted to transient
	// non-rate-limit failures. Default: 1s.
	FlatDelay time.Duration

	// Classify overrides the default error classification. If nil,
	// IsRateLimited and IsTransient are used.
	Classify func(err error) Class

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Class is the retry treatment an error gets.
type Class int

const (
	// Fatal errors are surfaced immediately. Re-asking the same malformed
	// input yields the same result, so parse and validation failures land here.
	Fatal Class = iota
	// RateLimited errors retry on the exponential schedule.
	RateLimited
	// Transient errors get one flat-delay retry.
	Transient
)

// DefaultPolicy returns the retry policy used for all collaborator calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BackoffBase: time.Second,
		BackoffCap:  5 * time.Second,
		FlatDelay:   time.Second,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 4
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = time.Second
	}
	if p.BackoffCap <= 0 {
		p.BackoffCap = 5 * time.Second
	}
	if p.FlatDelay <= 0 {
		p.FlatDelay = time.Second
	}
	if p.Classify == nil {
		p.Classify = classify
	}
	if p.sleep == nil {
		p.sleep = sleepCtx
	}
	return p
}

func classify(err error) Class {
	switch {
	case IsRateLimited(err):
		return RateLimited
	case IsTransient(err):
		return Transient
	default:
		return Fatal
	}
}

// Do runs fn under the policy and returns its value. Context cancellation
// stops retries immediately and surfaces the last error.
func Do[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	transientBudget := 1

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}

		var delay time.Duration
		switch p.Classify(err) {
		case RateLimited:
			if attempt >= p.MaxAttempts-1 {
				return zero, lastErr
			}
			delay = p.backoff(attempt)
		case Transient:
			if transientBudget == 0 {
				return zero, lastErr
			}
			transientBudget--
			delay = p.FlatDelay
		default:
			return zero, lastErr
		}

		zap.L().Warn("retrying operation",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := p.sleep(ctx, delay); err != nil {
			return zero, lastErr
		}
	}

	return zero, lastErr
}

// backoff computes min(base * 2^attempt, cap).
func (p Policy) backoff(attempt int) time.Duration {
	d := float64(p.BackoffBase) * math.Pow(2, float64(attempt))
	if d > float64(p.BackoffCap) {
		d = float64(p.BackoffCap)
	}
	return time.Duration(d)
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
