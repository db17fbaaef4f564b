// Package resilience provides circuit breaking, retry, and failure
// classification for external service calls.
package resilience

import (
	"sync"
	"time"
)

// CircuitBreakerConfig controls breaker behavior.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of recorded failures before the
	// breaker opens. Default: 5.
	FailureThreshold int

	// Timeout is how long the breaker stays open after the last failure.
	// Once it elapses the next IsOpen call resets the counter and lets
	// traffic through. Default: 60s.
	Timeout time.Duration

	// OnStateChange is called when the breaker opens or closes.
	OnStateChange func(open bool)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		Timeout:          60 * time.Second,
	}
}

// CircuitBreaker is a two-state (closed/open) failure gate with time-based
// auto-recovery. There is no half-open probe state: once the timeout elapses
// the next IsOpen call resets the failure counter and the following request
// goes through unconditionally. If that request fails, RecordFailure reopens
// the breaker. Scope one instance per guarded external dependency.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu          sync.Mutex
	failures    int
	lastFailure time.Time

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewCircuitBreaker creates a breaker with the given config.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &CircuitBreaker{
		cfg:     cfg,
		nowFunc: time.Now,
	}
}

// IsOpen reports whether calls should currently be rejected. It returns true
// only while failures >= threshold AND the timeout since the last failure has
// not elapsed. When the timeout has elapsed, the counter is reset and false
// is returned.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.failures < cb.cfg.FailureThreshold {
		return false
	}
	if cb.nowFunc().Sub(cb.lastFailure) >= cb.cfg.Timeout {
		// Auto-recovery: allow the next attempt through.
		cb.failures = 0
		if cb.cfg.OnStateChange != nil {
			cb.cfg.OnStateChange(false)
		}
		return false
	}
	return true
}

// RecordSuccess resets the failure counter unconditionally.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	wasOpen := cb.failures >= cb.cfg.FailureThreshold
	cb.failures = 0
	if wasOpen && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(false)
	}
}

// RecordFailure increments the failure counter and stamps the failure time.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	cb.lastFailure = cb.nowFunc()
	if cb.failures == cb.cfg.FailureThreshold && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(true)
	}
}

// Failures returns the current failure count for observability.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// ServiceBreakers manages one breaker per named dependency.
type ServiceBreakers struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	cfg      CircuitBreakerConfig
}

// NewServiceBreakers creates a registry of per-service breakers.
func NewServiceBreakers(cfg CircuitBreakerConfig) *ServiceBreakers {
	return &ServiceBreakers{
		breakers: make(map[string]*CircuitBreaker),
		cfg:      cfg,
	}
}

// Get returns the breaker for the named service, creating one if needed.
func (sb *ServiceBreakers) Get(service string) *CircuitBreaker {
	sb.mu.RLock()
	cb, ok := sb.breakers[service]
	sb.mu.RUnlock()
	if ok {
		return cb
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()
	if cb, ok = sb.breakers[service]; ok {
		return cb
	}
	cb = NewCircuitBreaker(sb.cfg)
	sb.breakers[service] = cb
	return cb
}
