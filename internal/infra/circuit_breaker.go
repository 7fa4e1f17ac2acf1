package infra

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Execute while the breaker is tripped.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds the trip/recovery tunables.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures before tripping
	SuccessThreshold int           // consecutive probe successes before closing again
	OpenTimeout      time.Duration // cool-down before the first probe is let through
}

// DefaultCBConfig is tuned for the SMTP relay: trip after five straight
// failures, probe after a minute, close after two good sends.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      time.Minute,
	}
}

// CircuitBreaker guards a flaky downstream (the SMTP relay) so delivery
// workers fast-fail instead of stacking 30-second timeouts while it is down.
//
// The state is not stored; it is derived from the failure/success counters
// and the time of the last failure:
//
//	fails < threshold                    → closed, calls pass
//	fails ≥ threshold, cool-down running → open, Execute returns ErrCircuitOpen
//	fails ≥ threshold, cool-down elapsed → half-open, calls probe the relay
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu        sync.Mutex
	fails     int
	probeOKs  int
	trippedAt time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg}
}

// Execute runs fn unless the breaker is open, and records the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.tripped() && time.Since(cb.trippedAt) < cb.cfg.OpenTimeout {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	probing := cb.tripped()
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		if !cb.tripped() {
			cb.fails++
		}
		cb.probeOKs = 0
		if cb.tripped() {
			// Start (or restart) the cool-down; a failed probe re-opens.
			cb.trippedAt = time.Now()
		}
		return err
	}
	if probing {
		cb.probeOKs++
		if cb.probeOKs < cb.cfg.SuccessThreshold {
			return nil
		}
	}
	cb.fails = 0
	cb.probeOKs = 0
	return nil
}

// State reports the derived state for logs.
func (cb *CircuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch {
	case !cb.tripped():
		return "closed"
	case time.Since(cb.trippedAt) < cb.cfg.OpenTimeout:
		return "open"
	default:
		return "half-open"
	}
}

// tripped must be called under mu.
func (cb *CircuitBreaker) tripped() bool {
	return cb.fails >= cb.cfg.FailureThreshold
}
