// Package search implements the resilient multi-provider web search used for
// evidence gathering, plus the circuit-breaker-guarded registry lookup path.
package search

import (
	"context"
	"errors"

	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/brave"
	"github.com/sells-group/prospect-cli/pkg/jina"
	"github.com/sells-group/prospect-cli/pkg/serper"
)

// Result is the uniform search hit every backend is adapted to.
type Result struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Date    string `json:"date,omitempty"`
}

// Provider is the uniform backend contract. Implementations classify their
// failures via resilience.ProviderError and return
// resilience.ErrNotConfigured when credentials are missing.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// SerperProvider adapts the Serper client.
type SerperProvider struct {
	client serper.Client
}

// NewSerperProvider wraps a Serper client; pass nil when unconfigured.
func NewSerperProvider(client serper.Client) *SerperProvider {
	return &SerperProvider{client: client}
}

func (p *SerperProvider) Name() string { return "serper" }

func (p *SerperProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if p.client == nil {
		return nil, resilience.ErrNotConfigured
	}
	resp, err := p.client.Search(ctx, query, maxResults)
	if err != nil {
		return nil, classify(p.Name(), err, func() (int, bool) {
			var se *serper.StatusError
			if errors.As(err, &se) {
				return se.Status, true
			}
			return 0, false
		})
	}

	results := make([]Result, 0, len(resp.Organic))
	for _, r := range resp.Organic {
		results = append(results, Result{URL: r.Link, Title: r.Title, Snippet: r.Snippet, Date: r.Date})
	}
	return results, nil
}

// BraveProvider adapts the Brave Search client.
type BraveProvider struct {
	client brave.Client
}

// NewBraveProvider wraps a Brave client; pass nil when unconfigured.
func NewBraveProvider(client brave.Client) *BraveProvider {
	return &BraveProvider{client: client}
}

func (p *BraveProvider) Name() string { return "brave" }

func (p *BraveProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if p.client == nil {
		return nil, resilience.ErrNotConfigured
	}
	resp, err := p.client.Search(ctx, query, maxResults)
	if err != nil {
		return nil, classify(p.Name(), err, func() (int, bool) {
			var se *brave.StatusError
			if errors.As(err, &se) {
				return se.Status, true
			}
			return 0, false
		})
	}

	results := make([]Result, 0, len(resp.Web.Results))
	for _, r := range resp.Web.Results {
		results = append(results, Result{URL: r.URL, Title: r.Title, Snippet: r.Description, Date: r.Age})
	}
	return results, nil
}

// JinaProvider adapts the Jina Search client.
type JinaProvider struct {
	client jina.Client
}

// NewJinaProvider wraps a Jina client; pass nil when unconfigured.
func NewJinaProvider(client jina.Client) *JinaProvider {
	return &JinaProvider{client: client}
}

func (p *JinaProvider) Name() string { return "jina" }

func (p *JinaProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if p.client == nil {
		return nil, resilience.ErrNotConfigured
	}
	resp, err := p.client.Search(ctx, query, maxResults)
	if err != nil {
		return nil, classify(p.Name(), err, func() (int, bool) {
			var se *jina.StatusError
			if errors.As(err, &se) {
				return se.Status, true
			}
			return 0, false
		})
	}

	results := make([]Result, 0, len(resp.Data))
	for _, r := range resp.Data {
		snippet := r.Description
		if snippet == "" {
			snippet = r.Content
		}
		results = append(results, Result{URL: r.URL, Title: r.Title, Snippet: snippet, Date: r.Date})
	}
	return results, nil
}

// classify wraps a backend error with its failure class, extracting the HTTP
// status when the backend surfaced one.
func classify(provider string, err error, status func() (int, bool)) error {
	if s, ok := status(); ok {
		return resilience.NewProviderError(provider, s, err)
	}
	return resilience.NewProviderError(provider, 0, err)
}
