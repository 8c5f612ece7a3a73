// Package retry implements the bounded exponential-backoff decision logic
// for failed delivery attempts.
package retry

import (
	"math/rand"
	"time"
)

const (
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 60 * time.Second
	DefaultMaxAttempts = 5

	// jitterFraction spreads delays by up to +/-20% to avoid synchronized
	// redelivery bursts.
	jitterFraction = 0.2
)

// Decision is the outcome of evaluating a failed attempt.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// Policy computes retry decisions from (attempt number, error class). It holds
// no mutable state; the injectable rand source exists for deterministic tests.
type Policy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int

	randFloat func() float64
}

func NewPolicy(baseDelay, maxDelay time.Duration, maxAttempts int) Policy {
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if maxDelay < baseDelay {
		maxDelay = DefaultMaxDelay
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	return Policy{
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
		MaxAttempts: maxAttempts,
		randFloat:   rand.Float64,
	}
}

// Delay returns base * 2^(attempt-1) capped at MaxDelay, before jitter.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Decide resolves a failed attempt into a delayed retry or a terminal failure.
// Permanent errors never retry; transient errors retry until MaxAttempts.
func (p Policy) Decide(attempt int, transient bool) Decision {
	if !transient {
		return Decision{}
	}
	if attempt >= p.MaxAttempts {
		return Decision{}
	}
	return Decision{Retry: true, Delay: p.jittered(p.Delay(attempt))}
}

func (p Policy) jittered(delay time.Duration) time.Duration {
	if p.randFloat == nil {
		return delay
	}

	// Uniform in [1-jitterFraction, 1+jitterFraction).
	factor := 1 + jitterFraction*(2*p.randFloat()-1)
	jittered := time.Duration(float64(delay) * factor)
	if jittered < 0 {
		return 0
	}
	return jittered
}
