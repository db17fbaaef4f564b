package resilience

import (
	"sync"
	"testing"
	"time"
)

func TestCircuitBreaker_ClosedByDefault(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())
	if cb.IsOpen() {
		t.Error("expected new breaker to be closed")
	}
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		Timeout:          1 * time.Minute,
	})

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.IsOpen() {
		t.Error("expected closed below threshold")
	}

	cb.RecordFailure()
	if !cb.IsOpen() {
		t.Error("expected open after exactly threshold failures")
	}
}

func TestCircuitBreaker_SuccessResetsCounter(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		Timeout:          1 * time.Minute,
	})

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	if cb.IsOpen() {
		t.Error("expected closed: success should reset the counter")
	}
	if got := cb.Failures(); got != 1 {
		t.Errorf("expected 1 failure, got %d", got)
	}
}

func TestCircuitBreaker_TimeoutResetsAndAllowsThrough(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		Timeout:          100 * time.Millisecond,
	})
	cb.nowFunc = func() time.Time { return now }

	cb.RecordFailure()
	cb.RecordFailure()
	if !cb.IsOpen() {
		t.Fatal("expected open after threshold failures")
	}

	// Advance past the timeout: the next IsOpen resets the counter.
	cb.nowFunc = func() time.Time { return now.Add(200 * time.Millisecond) }
	if cb.IsOpen() {
		t.Error("expected closed after timeout elapsed")
	}
	if got := cb.Failures(); got != 0 {
		t.Errorf("expected counter reset to 0, got %d", got)
	}

	// A single failure after recovery is below threshold again.
	cb.RecordFailure()
	if cb.IsOpen() {
		t.Error("expected closed: one failure after reset is below threshold")
	}
	cb.RecordFailure()
	if !cb.IsOpen() {
		t.Error("expected reopen once threshold is hit again")
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var changes []bool
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		Timeout:          1 * time.Minute,
		OnStateChange:    func(open bool) { changes = append(changes, open) },
	})

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()

	if len(changes) != 2 || !changes[0] || changes[1] {
		t.Errorf("expected [open, closed] transitions, got %v", changes)
	}
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1000,
		Timeout:          1 * time.Minute,
	})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				cb.RecordFailure()
			} else {
				cb.IsOpen()
			}
		}(i)
	}
	wg.Wait()
	if got := cb.Failures(); got != 50 {
		t.Errorf("expected 50 recorded failures, got %d", got)
	}
}

func TestServiceBreakers_GetOrCreate(t *testing.T) {
	sb := NewServiceBreakers(DefaultCircuitBreakerConfig())

	cb1 := sb.Get("serper")
	cb2 := sb.Get("serper")
	cb3 := sb.Get("cnpj")

	if cb1 != cb2 {
		t.Error("expected same breaker for same service")
	}
	if cb1 == cb3 {
		t.Error("expected different breakers for different services")
	}
}
