package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

func TestCalculateStrongManufaturaLead(t *testing.T) {
	s := NewPropensityScorer(nil)

	result, err := s.Calculate(model.SignalBundle{
		CompanyID:       "c-1",
		Vertical:        "Manufatura",
		ICPScore:        ptrFloat64(85),
		MaturityScore:   ptrFloat64(75),
		TechStackScore:  ptrFloat64(80),
		SignalIntensity: model.IntensityHigh,
		RecentSignals:   ptrInt(4),
	}, "TOTVS_Protheus")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Breakdown, "full weighted path must produce a breakdown")
	assert.Greater(t, result.Confidence, 70.0)
	assert.Equal(t, 42, result.TimeframeDays)
	assert.GreaterOrEqual(t, result.Score, 80.0)
}

func TestCalculateShortCircuitBelowMinICP(t *testing.T) {
	s := NewPropensityScorer(nil)

	result, err := s.Calculate(model.SignalBundle{
		CompanyID: "c-2",
		Vertical:  "Manufatura",
		ICPScore:  ptrFloat64(50),
	}, "TOTVS_Manufatura")
	require.NoError(t, err)

	assert.Equal(t, 25.0, result.Score)
	assert.Equal(t, 30.0, result.Confidence)
	assert.Equal(t, 135, result.TimeframeDays)
	assert.Empty(t, result.Breakdown)
	assert.NotEmpty(t, result.Rationale)
}

func TestCalculateVerticalOutsideOffer(t *testing.T) {
	s := NewPropensityScorer(nil)

	result, err := s.Calculate(model.SignalBundle{
		CompanyID: "c-3",
		Vertical:  "Varejo",
		ICPScore:  ptrFloat64(90),
	}, "TOTVS_Manufatura")
	require.NoError(t, err)

	assert.Zero(t, result.Score)
	assert.Zero(t, result.Confidence)
	assert.NotEmpty(t, result.Rationale)
}

func TestCalculateUnknownOffer(t *testing.T) {
	s := NewPropensityScorer(nil)

	_, err := s.Calculate(model.SignalBundle{CompanyID: "c-4"}, "OFERTA_INEXISTENTE")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownOffer)
}

func TestBreakdownWeightsSumToOne(t *testing.T) {
	s := NewPropensityScorer(nil)

	result, err := s.Calculate(model.SignalBundle{
		CompanyID: "c-5",
		Vertical:  "Manufatura",
		ICPScore:  ptrFloat64(75),
	}, "TOTVS_Protheus")
	require.NoError(t, err)
	require.Len(t, result.Breakdown, 6)

	var pesoSum float64
	for name, pillar := range result.Breakdown {
		pesoSum += pillar.Peso
		assert.InDelta(t, pillar.Peso*pillar.Valor, pillar.Contribuicao, 1e-9, "pillar %s", name)
		assert.GreaterOrEqual(t, pillar.Valor, 0.0)
		assert.LessOrEqual(t, pillar.Valor, 100.0)
	}
	assert.InDelta(t, 1.0, pesoSum, 1e-6)
}

func TestMissingSignalsAreFlaggedNegative(t *testing.T) {
	s := NewPropensityScorer(nil)

	result, err := s.Calculate(model.SignalBundle{
		CompanyID: "c-6",
		Vertical:  "Manufatura",
		ICPScore:  ptrFloat64(75),
	}, "TOTVS_Protheus")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Sinais.Negativos, "missing signals must be surfaced as negative evidence")
}

func TestScoreAndConfidenceBounds(t *testing.T) {
	s := NewPropensityScorer(nil)

	bundles := []model.SignalBundle{
		{CompanyID: "a", Vertical: "Manufatura", ICPScore: ptrFloat64(100), MaturityScore: ptrFloat64(100), TechStackScore: ptrFloat64(100), DigitalPresenceScore: ptrFloat64(100), SignalIntensity: model.IntensityHigh, RecentSignals: ptrInt(10), CompanyAgeYears: ptrFloat64(15), CapitalGrowth: ptrFloat64(0.5), NewsSentiment: model.SentimentPositive, HiringActivity: ptrInt(20), WebsiteChanges: ptrInt(5)},
		{CompanyID: "b", Vertical: "Manufatura", ICPScore: ptrFloat64(70), CapitalGrowth: ptrFloat64(-0.2), NewsSentiment: model.SentimentNegative},
	}
	for _, b := range bundles {
		result, err := s.Calculate(b, "TOTVS_Protheus")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 100.0)
		assert.GreaterOrEqual(t, result.Confidence, 0.0)
		assert.LessOrEqual(t, result.Confidence, 100.0)
	}
}

func TestTimeframeBrackets(t *testing.T) {
	assert.Equal(t, 42, timeframeDays(85, 60))
	assert.Equal(t, 60, timeframeDays(65, 60))
	assert.Equal(t, 78, timeframeDays(45, 60))
	assert.Equal(t, 108, timeframeDays(30, 60))
}

func TestTieredLookupTables(t *testing.T) {
	assert.Equal(t, 20.0, recentSignalsValue(0))
	assert.Equal(t, 50.0, recentSignalsValue(1))
	assert.Equal(t, 75.0, recentSignalsValue(3))
	assert.Equal(t, 100.0, recentSignalsValue(4))

	assert.Equal(t, 30.0, intensityValue(model.IntensityLow))
	assert.Equal(t, 100.0, intensityValue(model.IntensityHigh))
	assert.Equal(t, 50.0, intensityValue(""))

	assert.Equal(t, 30.0, companyAgeValue(ptrFloat64(1)))
	assert.Equal(t, 70.0, companyAgeValue(ptrFloat64(5)))
	assert.Equal(t, 85.0, companyAgeValue(ptrFloat64(20)))
	assert.Equal(t, 60.0, companyAgeValue(ptrFloat64(40)))

	assert.Equal(t, 20.0, capitalGrowthValue(ptrFloat64(-0.1)))
	assert.Equal(t, 95.0, capitalGrowthValue(ptrFloat64(0.5)))

	assert.Equal(t, 90.0, sentimentValue(model.SentimentPositive))
	assert.Equal(t, 20.0, sentimentValue(model.SentimentNegative))
	assert.Equal(t, 60.0, sentimentValue(""))
}

func TestDefaultOfferCatalogWeightsSumToOne(t *testing.T) {
	for id, offer := range DefaultOfferCatalog() {
		assert.InDelta(t, 1.0, offer.Weights.Sum(), 1e-9, "offer %s", id)
	}
}

func TestNextActionsAtMostThree(t *testing.T) {
	for _, score := range []float64{95, 70, 45, 10} {
		assert.LessOrEqual(t, len(nextActionsForScore(score)), 3)
	}
}
