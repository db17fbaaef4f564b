package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/cadence"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/internal/scoring"
	"github.com/sells-group/prospect-cli/internal/search"
	"github.com/sells-group/prospect-cli/internal/store"
	"github.com/sells-group/prospect-cli/pkg/cnpj"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestPipeline(st store.Store, searcher *search.Resilient, registry *search.RegistryLookup) *Pipeline {
	return New(
		st,
		searcher,
		registry,
		scoring.NewICPClassifier(scoring.DefaultVerticalCatalog()),
		scoring.NewPropensityScorer(scoring.DefaultOfferCatalog()),
		scoring.NewMaturityCalculator(),
		scoring.NewVendorFitCalculator("TOTVS", scoring.DefaultTOTVSRules()),
		cadence.NewManager(cadence.DefaultTemplates()),
	)
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// strongManufaturaBundle scores well above every GO threshold.
func strongManufaturaBundle() model.SignalBundle {
	return model.SignalBundle{
		CompanyID:            "11222333000181",
		Name:                 "Metalurgica Andrade",
		Porte:                "MEDIA",
		Capital:              ptrFloat64(5_000_000),
		TechStack:            []string{"SAP", "ERP Totvs Protheus", "WMS", "MES"},
		MaturityScore:        ptrFloat64(75),
		DigitalPresenceScore: ptrFloat64(80),
		TechStackScore:       ptrFloat64(85),
		EmployeeCount:        ptrInt(220),
		RecentSignals:        ptrInt(4),
		SignalIntensity:      model.IntensityHigh,
		CompanyAgeYears:      ptrFloat64(5),
		CapitalGrowth:        ptrFloat64(0.4),
		NewsSentiment:        model.SentimentPositive,
		HiringActivity:       ptrInt(12),
		WebsiteChanges:       ptrInt(3),
		WebsiteURL:           "https://metalurgica-andrade.com.br",
		WebsiteValidated:     true,
		WebsiteConfidence:    ptrFloat64(80),
		LegalProcessCount:    ptrInt(2),
		SocialProfileCount:   ptrInt(3),
		RecentNewsCount:      ptrInt(5),
		RegistrationStatus:   "ATIVA",
	}
}

func TestRunGoFlowStartsCadence(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	p := newTestPipeline(st, nil, nil)

	// No persona in the request: the default one must still land on a
	// catalog template, otherwise GO decisions silently skip outreach.
	result, err := p.Run(ctx, AnalyzeRequest{
		OfferID: "TOTVS_Protheus",
		Bundle:  strongManufaturaBundle(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Manufatura", result.ICP.Vertical)
	assert.Greater(t, result.Propensity.Score, 70.0)
	assert.Equal(t, model.DecisionGo, result.Recommendation.Decision)
	assert.Empty(t, result.Recommendation.AttentionPoints)

	require.NotNil(t, result.Cadence, "GO decision starts an outreach cadence")
	assert.Equal(t, "manufatura-decisor", result.Cadence.CadenceID)

	run, err := st.GetRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)

	saved, err := st.GetCadenceExecution(ctx, result.Cadence.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, model.ExecutionActive, saved.Status)
}

func TestRunPersistsAllArtifacts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	p := newTestPipeline(st, nil, nil)

	result, err := p.Run(ctx, AnalyzeRequest{
		OfferID: "TOTVS_Protheus",
		Bundle:  strongManufaturaBundle(),
	})
	require.NoError(t, err)

	profile, err := st.GetLatestICPProfile(ctx, "11222333000181")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, result.ICP.Score, profile.Score)

	scores, err := st.ListPropensityScores(ctx, "11222333000181")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, result.Propensity.Score, scores[0].Score)
	assert.Equal(t, "TOTVS_Protheus", scores[0].OfferID)

	pairs, err := st.LatestMaturityPairs(ctx)
	require.NoError(t, err)
	assert.Empty(t, pairs, "single snapshot does not form a pair yet")

	hb, err := st.GetHeartbeat(ctx, heartbeatJob)
	require.NoError(t, err)
	require.NotNil(t, hb)
}

func TestRunNoGoOutsideOfferVerticals(t *testing.T) {
	st := newTestStore(t)
	p := newTestPipeline(st, nil, nil)

	// An evidence-free bundle classifies on neutral credit alone, which
	// lands on Agronegocio. TOTVS Manufatura does not serve that vertical,
	// so propensity collapses to zero.
	result, err := p.Run(context.Background(), AnalyzeRequest{
		OfferID: "TOTVS_Manufatura",
		Bundle:  model.SignalBundle{CompanyID: "99888777000166"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Agronegocio", result.ICP.Vertical)
	assert.Zero(t, result.Propensity.Score)
	require.NotEmpty(t, result.Propensity.Rationale)
	assert.Contains(t, result.Propensity.Rationale[0], "fora do escopo")
	assert.Equal(t, model.DecisionNoGo, result.Recommendation.Decision)
	assert.Nil(t, result.Cadence, "NO-GO never starts a cadence")
}

func TestRunValidatesRequest(t *testing.T) {
	st := newTestStore(t)
	p := newTestPipeline(st, nil, nil)
	ctx := context.Background()

	_, err := p.Run(ctx, AnalyzeRequest{OfferID: "TOTVS_Protheus"})
	assert.ErrorContains(t, err, "company id")

	_, err = p.Run(ctx, AnalyzeRequest{Bundle: model.SignalBundle{CompanyID: "x"}})
	assert.ErrorContains(t, err, "offer id")

	runs, err := st.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs, "invalid requests never create run rows")
}

func TestRunUnknownOfferMarksRunFailed(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	p := newTestPipeline(st, nil, nil)

	_, err := p.Run(ctx, AnalyzeRequest{
		OfferID: "OFERTA_INEXISTENTE",
		Bundle:  strongManufaturaBundle(),
	})
	require.Error(t, err)

	runs, err := st.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

// fakeRegistry answers every lookup with a fixed registry record.
type fakeRegistry struct {
	company *cnpj.Company
}

func (f *fakeRegistry) Lookup(context.Context, string) (*cnpj.Company, error) {
	return f.company, nil
}

func TestRunEnrichesBundleFromRegistry(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	registry := search.NewRegistryLookup(&fakeRegistry{company: &cnpj.Company{
		CNPJ:               "11222333000181",
		LegalName:          "Metalurgica Andrade LTDA",
		TradeName:          "Metalurgica Andrade",
		Porte:              "MEDIA",
		CapitalSocial:      3_000_000,
		CNAEDescription:    "Fabricação de estruturas metálicas",
		Municipality:       "Joinville",
		RegistrationStatus: "ATIVA",
		OpenedAt:           "2015-03-10",
	}}, resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig()))

	p := newTestPipeline(st, nil, registry)

	result, err := p.Run(ctx, AnalyzeRequest{
		CNPJ:    "11222333000181",
		OfferID: "TOTVS_Protheus",
	})
	require.NoError(t, err)

	b := result.Bundle
	assert.Equal(t, "Metalurgica Andrade", b.Name)
	assert.Equal(t, "MEDIA", b.Porte)
	require.NotNil(t, b.Capital)
	assert.Equal(t, 3_000_000.0, *b.Capital)
	assert.Equal(t, "ATIVA", b.RegistrationStatus)
	assert.Equal(t, "Joinville", b.Region)
	require.NotNil(t, b.CompanyAgeYears)
	assert.Greater(t, *b.CompanyAgeYears, 10.0)
}

// fixedProvider returns canned search results.
type fixedProvider struct {
	name    string
	results []search.Result
}

func (f *fixedProvider) Name() string { return f.name }

func (f *fixedProvider) Search(context.Context, string, int) ([]search.Result, error) {
	return f.results, nil
}

func TestRunDiscoversWebsiteViaSearch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	searcher := search.NewResilient([]search.Provider{&fixedProvider{
		name: "serper",
		results: []search.Result{{
			URL:     "https://metalurgica-andrade.com.br",
			Title:   "Metalurgica Andrade - Joinville",
			Snippet: "Site oficial da Metalurgica Andrade",
		}},
	}}, search.ResilientConfig{}, nil)

	p := newTestPipeline(st, searcher, nil)

	bundle := strongManufaturaBundle()
	bundle.WebsiteURL = ""
	bundle.WebsiteValidated = false
	bundle.WebsiteConfidence = nil
	bundle.Region = "Joinville"

	result, err := p.Run(ctx, AnalyzeRequest{OfferID: "TOTVS_Protheus", Bundle: bundle})
	require.NoError(t, err)

	assert.Equal(t, "https://metalurgica-andrade.com.br", result.Bundle.WebsiteURL)
	assert.True(t, result.Bundle.WebsiteValidated)
	require.NotNil(t, result.Bundle.WebsiteConfidence)
	assert.Equal(t, discoveredWebsiteConfidence, *result.Bundle.WebsiteConfidence)
}
