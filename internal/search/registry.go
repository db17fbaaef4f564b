package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/cnpj"
)

// RegistryLookup wraps the federal registry client with a dedicated breaker
// and retry loop. Registry outages must not trip the web-search breakers.
type RegistryLookup struct {
	client  cnpj.Client
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	log     *zap.Logger
}

func NewRegistryLookup(client cnpj.Client, breakers *resilience.ServiceBreakers) *RegistryLookup {
	log := zap.L().Named("registry")
	return &RegistryLookup{
		client:  client,
		breaker: breakers.Get("cnpj-registry"),
		retry: resilience.RetryConfig{
			MaxAttempts: 3,
			ShouldRetry: retryableLookup,
			OnRetry:     resilience.RetryLogger("cnpj-registry", "lookup"),
		},
		log: log,
	}
}

// Lookup fetches registry data for a CNPJ. Configuration problems fail
// immediately; transient failures retry with exponential backoff.
func (l *RegistryLookup) Lookup(ctx context.Context, number string) (*cnpj.Company, error) {
	if l.client == nil {
		return nil, resilience.ErrNotConfigured
	}
	if l.breaker.IsOpen() {
		return nil, eris.New("cnpj registry circuit open")
	}

	company, err := resilience.DoVal(ctx, l.retry, func(ctx context.Context) (*cnpj.Company, error) {
		c, err := l.client.Lookup(ctx, number)
		if err != nil {
			return nil, classify("cnpj-registry", err, func() (int, bool) {
				var se *cnpj.StatusError
				if errors.As(err, &se) {
					return se.Status, true
				}
				return 0, false
			})
		}
		return c, nil
	})
	if err != nil {
		if resilience.Classify(err) == resilience.FailureAuth {
			// Misconfiguration, not an outage. Fail fast without
			// counting against the breaker.
			return nil, err
		}
		l.breaker.RecordFailure()
		l.log.Warn("registry lookup failed",
			zap.String("cnpj", number),
			zap.Error(err))
		return nil, eris.Wrap(err, fmt.Sprintf("lookup cnpj %s", number))
	}

	l.breaker.RecordSuccess()
	return company, nil
}

// retryableLookup retries transient failures and server-side errors but never
// auth rejections or hard 4xx responses.
func retryableLookup(err error) bool {
	var pe *resilience.ProviderError
	if errors.As(err, &pe) {
		if pe.Class == resilience.FailureAuth {
			return false
		}
		if pe.Status != 0 {
			return resilience.IsTransientHTTPStatus(pe.Status)
		}
	}
	return resilience.IsTransient(err)
}
