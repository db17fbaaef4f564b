package search

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/internal/resilience"
)

// Response is the outcome of one search across the fallback chain.
type Response struct {
	Results      []Result `json:"results"`
	ProviderUsed string   `json:"provider_used,omitempty"`
	Cached       bool     `json:"cached"`
}

// QuotaRecorder receives quota rejections for the quota alert detector.
type QuotaRecorder interface {
	RecordQuotaEvent(ctx context.Context, provider string, status int) error
}

// ResilientConfig tunes the fallback chain.
type ResilientConfig struct {
	// PerCallTimeout bounds each individual provider call. Default: 8s.
	PerCallTimeout time.Duration

	// RatePerSecond throttles each provider independently. Zero disables
	// throttling.
	RatePerSecond float64
}

// Resilient tries an ordered chain of search backends. Any failure, whatever
// its class, falls through to the next provider immediately; there is no
// retry against the same provider. When every provider fails the response
// carries an empty result set rather than an error, so downstream scoring
// degrades instead of aborting.
type Resilient struct {
	providers []Provider
	limiters  map[string]*rate.Limiter
	cfg       ResilientConfig
	quota     QuotaRecorder
	log       *zap.Logger
}

// NewResilient builds the chain in the given priority order.
func NewResilient(providers []Provider, cfg ResilientConfig, quota QuotaRecorder) *Resilient {
	if cfg.PerCallTimeout <= 0 {
		cfg.PerCallTimeout = 8 * time.Second
	}
	limiters := make(map[string]*rate.Limiter, len(providers))
	if cfg.RatePerSecond > 0 {
		for _, p := range providers {
			limiters[p.Name()] = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
		}
	}
	return &Resilient{
		providers: providers,
		limiters:  limiters,
		cfg:       cfg,
		quota:     quota,
		log:       zap.L().With(zap.String("component", "search")),
	}
}

// Search walks the provider chain and returns the first successful result
// set. Sequential by design: one provider call in flight at a time.
func (r *Resilient) Search(ctx context.Context, query string, maxResults int) (*Response, error) {
	for _, p := range r.providers {
		if lim, ok := r.limiters[p.Name()]; ok {
			if err := lim.Wait(ctx); err != nil {
				return &Response{Results: []Result{}}, nil
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, r.cfg.PerCallTimeout)
		results, err := p.Search(callCtx, query, maxResults)
		cancel()

		if err == nil {
			return &Response{Results: results, ProviderUsed: p.Name()}, nil
		}

		class := resilience.Classify(err)
		r.log.Warn("provider failed, falling through",
			zap.String("provider", p.Name()),
			zap.String("class", string(class)),
			zap.Error(err),
		)

		if class == resilience.FailureQuota && r.quota != nil {
			var status int
			if pe, ok := asProviderError(err); ok {
				status = pe.Status
			}
			if qerr := r.quota.RecordQuotaEvent(ctx, p.Name(), status); qerr != nil {
				r.log.Warn("failed to record quota event", zap.Error(qerr))
			}
		}

		if ctx.Err() != nil {
			break
		}
	}

	// All providers exhausted: degrade gracefully.
	return &Response{Results: []Result{}}, nil
}

func asProviderError(err error) (*resilience.ProviderError, bool) {
	var pe *resilience.ProviderError
	ok := errors.As(err, &pe)
	return pe, ok
}
