package producer

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// RetryConfig configures exponential backoff retry behavior for a resilient
// producer. The coordinator never retries inside a round; this layer only
// absorbs transport-level flapping on a single call.
type RetryConfig struct {
	InitialInterval     time.Duration // Initial retry interval (default 100ms)
	MaxInterval         time.Duration // Maximum retry interval (default 10s)
	MaxElapsedTime      time.Duration // Maximum total retry time (default 30s)
	Multiplier          float64       // Backoff multiplier (default 2.0)
	RandomizationFactor float64       // Jitter factor (default 0.5)
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval:     100 * time.Millisecond,
		MaxInterval:         10 * time.Second,
		MaxElapsedTime:      30 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
	}
}

// ResilientProducer wraps a Producer with exponential-backoff retry and
// per-role circuit breakers. A role whose endpoint keeps failing trips its
// breaker and fails fast instead of stalling every round on timeouts.
type ResilientProducer struct {
	inner    Producer
	retryCfg RetryConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// Resilient wraps the given producer.
func Resilient(inner Producer, retryCfg RetryConfig) *ResilientProducer {
	if retryCfg.InitialInterval <= 0 {
		retryCfg = DefaultRetryConfig()
	}
	return &ResilientProducer{
		inner:    inner,
		retryCfg: retryCfg,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// breaker returns the circuit breaker for the given role, creating it on
// first use.
func (p *ResilientProducer) breaker(role string) *gobreaker.CircuitBreaker {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cb, ok := p.breakers[role]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        role,
		MaxRequests: 3,                // Test requests allowed in half-open state
		Interval:    0,                // Don't clear counts automatically
		Timeout:     30 * time.Second, // Stay open for 30s before testing recovery
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Producer circuit breaker %q: %s -> %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation is not an endpoint failure.
			if err == nil {
				return true
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			return false
		},
	})

	p.breakers[role] = cb
	return cb
}

// Generate calls the wrapped producer with retry and circuit breaker
// protection.
func (p *ResilientProducer) Generate(ctx context.Context, req Request) (string, error) {
	cb := p.breaker(req.Role)

	var text string

	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		result, err := cb.Execute(func() (interface{}, error) {
			return p.inner.Generate(ctx, req)
		})

		if err != nil {
			// Circuit is open - don't retry.
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}

		text = result.(string)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.retryCfg.InitialInterval
	policy.MaxInterval = p.retryCfg.MaxInterval
	policy.MaxElapsedTime = p.retryCfg.MaxElapsedTime
	policy.Multiplier = p.retryCfg.Multiplier
	policy.RandomizationFactor = p.retryCfg.RandomizationFactor

	err := backoff.Retry(operation, backoff.WithContext(policy, ctx))
	return text, err
}
