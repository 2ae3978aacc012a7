package enhance

import (
	"math"
	"time"
)

// RetryPolicy bounds retries of overloaded upstream calls.
type RetryPolicy struct {
	MaxAttempts    int           // Total attempts including the first (default: 3)
	InitialBackoff time.Duration // Delay before the second attempt (default: 1s)
	MaxBackoff     time.Duration // Delay ceiling (default: 10s)
	BackoffFactor  float64       // Multiplier per attempt (default: 2.0)
}

// DefaultRetryPolicy returns the standard policy: 3 attempts, 1s doubling, capped at 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts < 1 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = d.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = d.MaxBackoff
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = d.BackoffFactor
	}
	return p
}

// Backoff returns the delay after the given failed attempt (1-based):
// initial * factor^(attempt-1), capped at MaxBackoff.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	backoff := float64(p.InitialBackoff) * math.Pow(p.BackoffFactor, float64(attempt-1))
	if backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}
	return time.Duration(backoff)
}
