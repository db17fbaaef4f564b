package search

import (
	"context"
	"testing"
	"time"

	"github.com/sells-group/prospect-cli/internal/resilience"
)

type fakeProvider struct {
	name    string
	results []Result
	err     error
	calls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type quotaSink struct {
	provider string
	status   int
	calls    int
}

func (q *quotaSink) RecordQuotaEvent(ctx context.Context, provider string, status int) error {
	q.calls++
	q.provider = provider
	q.status = status
	return nil
}

func TestSearchFallsThroughToThirdProvider(t *testing.T) {
	quotaErr := resilience.NewProviderError("serper", 429, context.DeadlineExceeded)
	first := &fakeProvider{name: "serper", err: quotaErr}
	second := &fakeProvider{name: "brave", err: resilience.ErrNotConfigured}
	third := &fakeProvider{name: "jina", results: []Result{
		{URL: "https://acme.com.br", Title: "Acme"},
		{URL: "https://acme.com.br/sobre", Title: "Sobre a Acme"},
	}}

	sink := &quotaSink{}
	r := NewResilient([]Provider{first, second, third}, ResilientConfig{}, sink)

	resp, err := r.Search(context.Background(), "acme metalurgica", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.ProviderUsed != "jina" {
		t.Errorf("ProviderUsed = %q, want jina", resp.ProviderUsed)
	}
	if len(resp.Results) != 2 {
		t.Errorf("got %d results, want 2", len(resp.Results))
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Errorf("calls = %d/%d/%d, want 1/1/1", first.calls, second.calls, third.calls)
	}
	if sink.calls != 1 || sink.provider != "serper" || sink.status != 429 {
		t.Errorf("quota event = %d calls %s/%d, want 1 serper/429", sink.calls, sink.provider, sink.status)
	}
}

func TestSearchAllProvidersFailReturnsEmpty(t *testing.T) {
	first := &fakeProvider{name: "serper", err: resilience.NewProviderError("serper", 500, context.DeadlineExceeded)}
	second := &fakeProvider{name: "brave", err: resilience.ErrNotConfigured}

	r := NewResilient([]Provider{first, second}, ResilientConfig{}, nil)

	resp, err := r.Search(context.Background(), "acme", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("Results = %v, want empty non-nil slice", resp.Results)
	}
	if resp.ProviderUsed != "" {
		t.Errorf("ProviderUsed = %q, want empty", resp.ProviderUsed)
	}
}

func TestSearchStopsOnFirstSuccess(t *testing.T) {
	first := &fakeProvider{name: "serper", results: []Result{{URL: "https://a.com"}}}
	second := &fakeProvider{name: "brave", results: []Result{{URL: "https://b.com"}}}

	r := NewResilient([]Provider{first, second}, ResilientConfig{}, nil)

	resp, err := r.Search(context.Background(), "acme", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.ProviderUsed != "serper" {
		t.Errorf("ProviderUsed = %q, want serper", resp.ProviderUsed)
	}
	if second.calls != 0 {
		t.Errorf("second provider called %d times, want 0", second.calls)
	}
}

func TestSearchRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &fakeProvider{name: "serper", err: resilience.NewProviderError("serper", 500, context.Canceled)}
	second := &fakeProvider{name: "brave", results: []Result{{URL: "https://b.com"}}}

	r := NewResilient([]Provider{first, second}, ResilientConfig{PerCallTimeout: time.Second}, nil)

	resp, err := r.Search(ctx, "acme", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if second.calls != 0 {
		t.Errorf("second provider called after cancellation")
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected empty results after cancellation")
	}
}
