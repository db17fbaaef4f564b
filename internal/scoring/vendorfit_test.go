package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

func TestSuggestFitSAPMigration(t *testing.T) {
	c := NewVendorFitCalculator("", nil)

	fit := c.SuggestFit(model.SignalBundle{
		CompanyID:     "c-1",
		TechStack:     []string{"SAP ECC 6.0", "Oracle Database"},
		EmployeeCount: ptrInt(300),
	}, model.MaturityScores{Overall: 60})

	require.NotEmpty(t, fit.Recommendations)
	assert.Equal(t, "TOTVS", fit.Vendor)
	require.NotNil(t, fit.CompetitorMigration)
	assert.Equal(t, "sap", fit.CompetitorMigration.From)
	assert.Equal(t, "TOTVS Protheus", fit.CompetitorMigration.To)
	assert.Equal(t, model.ComplexityHigh, fit.CompetitorMigration.Complexity)
}

func TestSuggestFitNoCompetitors(t *testing.T) {
	c := NewVendorFitCalculator("", nil)

	fit := c.SuggestFit(model.SignalBundle{
		CompanyID: "c-2",
		TechStack: []string{"Planilhas Excel"},
	}, model.MaturityScores{Overall: 20})

	assert.Empty(t, fit.Recommendations)
	assert.Nil(t, fit.CompetitorMigration)
	assert.Equal(t, 40.0, fit.Confidence)
	assert.Greater(t, fit.FitScore, 0.0)
}

func TestSuggestFitRecommendationsAccumulate(t *testing.T) {
	c := NewVendorFitCalculator("", nil)

	fit := c.SuggestFit(model.SignalBundle{
		CompanyID: "c-3",
		TechStack: []string{"SAP", "Sankhya", "Pipedrive"},
	}, model.MaturityScores{})

	assert.Len(t, fit.Recommendations, 3, "every matching rule fires")
	// The migration snapshot comes from the first rule in declaration order.
	assert.Equal(t, "sap", fit.CompetitorMigration.From)
}

func TestDealSizeArithmetic(t *testing.T) {
	// min = base * sizeMult * (1 + 0.3*recCount), max = min * 1.8
	ds := dealSize(600, 2)
	assert.InDelta(t, 60_000*3.0*1.6, ds.Min, 1e-9)
	assert.InDelta(t, ds.Min*1.8, ds.Max, 1e-9)
	assert.Equal(t, "BRL", ds.Currency)

	ds = dealSize(250, 1)
	assert.InDelta(t, 60_000*2.0*1.3, ds.Min, 1e-9)

	ds = dealSize(50, 0)
	assert.InDelta(t, 60_000.0, ds.Min, 1e-9)
}

func TestDecisionPathBuckets(t *testing.T) {
	large := decisionPath(501)
	assert.Equal(t, "CIO", large.PrimaryDecisionMaker)
	assert.Equal(t, 180, large.EstimatedCycleDays)

	mid := decisionPath(100)
	assert.Equal(t, "Diretor de TI", mid.PrimaryDecisionMaker)
	assert.Equal(t, 90, mid.EstimatedCycleDays)

	small := decisionPath(99)
	assert.Equal(t, "Sócio-diretor", small.PrimaryDecisionMaker)
	assert.Equal(t, small.PrimaryDecisionMaker, small.BudgetApprover)
	assert.Equal(t, 45, small.EstimatedCycleDays)
}

func TestFitScoreClamped(t *testing.T) {
	assert.LessOrEqual(t, fitScore(10, model.MaturityScores{Overall: 100}), 100.0)
	assert.GreaterOrEqual(t, fitScore(0, model.MaturityScores{}), 0.0)
}
