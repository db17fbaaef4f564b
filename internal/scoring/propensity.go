package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Propensity pillar names as they appear in the breakdown.
const (
	PillarICPFit          = "icp_fit"
	PillarMaturity        = "maturity"
	PillarTechStack       = "tech_stack"
	PillarDigitalPresence = "digital_presence"
	PillarMomentum        = "momentum"
	PillarGrowth          = "growth"
)

// ErrUnknownOffer is returned for offer ids absent from the catalog.
var ErrUnknownOffer = eris.New("unknown offer id")

// PropensityScorer computes the likelihood-to-buy score for a (company,
// offer) pair. Stateless; safe for concurrent use.
type PropensityScorer struct {
	catalog map[string]OfferConfig
}

// NewPropensityScorer builds a scorer over the given offer catalog.
func NewPropensityScorer(catalog map[string]OfferConfig) *PropensityScorer {
	if len(catalog) == 0 {
		catalog = DefaultOfferCatalog()
	}
	return &PropensityScorer{catalog: catalog}
}

// Offer returns the catalog entry for an id.
func (s *PropensityScorer) Offer(id string) (OfferConfig, bool) {
	o, ok := s.catalog[id]
	return o, ok
}

// Calculate scores the bundle against one offer. Unknown offer ids are a
// validation error; every other input produces a best-effort result.
func (s *PropensityScorer) Calculate(bundle model.SignalBundle, offerID string) (*model.PropensityScore, error) {
	offer, ok := s.catalog[offerID]
	if !ok {
		return nil, eris.Wrap(ErrUnknownOffer, offerID)
	}

	now := time.Now().UTC()
	result := &model.PropensityScore{
		CompanyID: bundle.CompanyID,
		OfferID:   offerID,
		CreatedAt: now,
	}

	if !verticalAllowed(offer, bundle.Vertical) {
		result.Rationale = []string{
			fmt.Sprintf("vertical %q fora do escopo da oferta %s", bundle.Vertical, offer.Name),
		}
		return result, nil
	}

	icpScore := model.Float(bundle.ICPScore, 0)
	if icpScore < offer.MinICPScore {
		// ICP gate: a weak profile halves the score and stretches the
		// timeframe instead of running the full weighted path.
		result.Score = math.Round(icpScore * 0.5)
		result.TimeframeDays = int(math.Round(float64(offer.IdealTimeframeDays) * 1.5))
		result.Confidence = 30
		result.Rationale = []string{
			fmt.Sprintf("score ICP %.0f abaixo do mínimo %.0f da oferta %s", icpScore, offer.MinICPScore, offer.Name),
			"recomendada requalificação antes de abordagem comercial",
		}
		result.Sinais.Negativos = append(result.Sinais.Negativos,
			fmt.Sprintf("⚠️ perfil ICP insuficiente para %s", offer.Name))
		return result, nil
	}

	score, breakdown, sinais := s.weightedScore(offer, bundle)
	result.Score = model.Clamp(score)
	result.Breakdown = breakdown
	result.Sinais = sinais
	result.Confidence = confidence(bundle)
	result.TimeframeDays = timeframeDays(result.Score, offer.IdealTimeframeDays)
	result.Rationale = rationaleForScore(result.Score, offer)
	result.NextActions = nextActionsForScore(result.Score)
	return result, nil
}

// factor is one of the 11 weighted inputs, already mapped to 0-100.
type factor struct {
	pillar  string
	weight  float64
	value   float64
	missing bool
	label   string
}

// weightedScore runs the full 11-factor weighted sum and folds the factors
// into the six named pillars of the breakdown.
func (s *PropensityScorer) weightedScore(offer OfferConfig, b model.SignalBundle) (float64, map[string]model.PillarBreakdown, model.PropensitySignals) {
	w := offer.Weights

	recentSignals := model.Int(b.RecentSignals, -1)
	factors := []factor{
		{PillarICPFit, w.ICPScore, model.Float(b.ICPScore, 50), b.ICPScore == nil, "score ICP"},
		{PillarMaturity, w.Maturity, model.Float(b.MaturityScore, 50), b.MaturityScore == nil, "maturidade digital"},
		{PillarTechStack, w.TechStack, model.Float(b.TechStackScore, 50), b.TechStackScore == nil, "aderência de stack"},
		{PillarMomentum, w.RecentSignals, recentSignalsValue(recentSignals), b.RecentSignals == nil, "sinais recentes"},
		{PillarMomentum, w.SignalIntensity, intensityValue(b.SignalIntensity), b.SignalIntensity == "", "intensidade de sinais"},
		{PillarDigitalPresence, w.DigitalPresence, model.Float(b.DigitalPresenceScore, 50), b.DigitalPresenceScore == nil, "presença digital"},
		{PillarGrowth, w.CompanyAge, companyAgeValue(b.CompanyAgeYears), b.CompanyAgeYears == nil, "idade da empresa"},
		{PillarGrowth, w.CapitalGrowth, capitalGrowthValue(b.CapitalGrowth), b.CapitalGrowth == nil, "crescimento de capital"},
		{PillarMomentum, w.NewsSentiment, sentimentValue(b.NewsSentiment), b.NewsSentiment == "", "sentimento de notícias"},
		{PillarMomentum, w.HiringActivity, hiringValue(b.HiringActivity), b.HiringActivity == nil, "ritmo de contratações"},
		{PillarMomentum, w.WebsiteChanges, websiteChangesValue(b.WebsiteChanges), b.WebsiteChanges == nil, "mudanças no site"},
	}

	var (
		total     float64
		breakdown = make(map[string]model.PillarBreakdown, 6)
		sinais    model.PropensitySignals
	)
	for _, f := range factors {
		contrib := f.weight * f.value
		total += contrib

		p := breakdown[f.pillar]
		p.Peso += f.weight
		p.Contribuicao += contrib
		breakdown[f.pillar] = p

		switch {
		case f.missing:
			sinais.Negativos = append(sinais.Negativos,
				fmt.Sprintf("⚠️ %s indisponível; valor neutro aplicado", f.label))
		case f.value >= 75:
			sinais.Positivos = append(sinais.Positivos,
				fmt.Sprintf("%s forte (%.0f/100)", f.label, f.value))
		case f.value <= 30:
			sinais.Negativos = append(sinais.Negativos,
				fmt.Sprintf("%s fraco (%.0f/100)", f.label, f.value))
		}
	}

	// Valor is the weight-normalized pillar average so that
	// contribuicao == peso * valor holds exactly.
	for name, p := range breakdown {
		if p.Peso > 0 {
			p.Valor = p.Contribuicao / p.Peso
		}
		breakdown[name] = p
	}
	return total, breakdown, sinais
}

func verticalAllowed(offer OfferConfig, vertical string) bool {
	for _, v := range offer.AllowedVerticals {
		if v == vertical {
			return true
		}
	}
	return false
}

// Tiered lookup tables mapping raw counts and enums into 0-100 sub-scores.

func recentSignalsValue(n int) float64 {
	switch {
	case n < 0:
		return 50 // not observed
	case n == 0:
		return 20
	case n == 1:
		return 50
	case n <= 3:
		return 75
	default:
		return 100
	}
}

func intensityValue(i model.SignalIntensity) float64 {
	switch i {
	case model.IntensityLow:
		return 30
	case model.IntensityMedium:
		return 60
	case model.IntensityHigh:
		return 100
	default:
		return 50
	}
}

func companyAgeValue(age *float64) float64 {
	if age == nil {
		return 50
	}
	switch a := *age; {
	case a < 2:
		return 30
	case a <= 10:
		return 70
	case a <= 25:
		return 85
	default:
		return 60
	}
}

func capitalGrowthValue(growth *float64) float64 {
	if growth == nil {
		return 50
	}
	switch g := *growth; {
	case g < 0:
		return 20
	case g <= 0.1:
		return 50
	case g <= 0.3:
		return 75
	default:
		return 95
	}
}

func sentimentValue(s model.NewsSentiment) float64 {
	switch s {
	case model.SentimentPositive:
		return 90
	case model.SentimentNegative:
		return 20
	default:
		return 60
	}
}

func hiringValue(n *int) float64 {
	if n == nil {
		return 50
	}
	switch v := *n; {
	case v == 0:
		return 30
	case v <= 3:
		return 60
	case v <= 10:
		return 85
	default:
		return 100
	}
}

func websiteChangesValue(n *int) float64 {
	if n == nil {
		return 50
	}
	switch v := *n; {
	case v == 0:
		return 40
	case v <= 2:
		return 70
	default:
		return 90
	}
}

// confidence is independent of the score: it measures how much evidence
// backs the estimate.
func confidence(b model.SignalBundle) float64 {
	c := 50.0
	if model.Int(b.RecentSignals, 0) > 3 {
		c += 20
	}
	if model.Float(b.MaturityScore, 0) > 70 {
		c += 15
	}
	if model.Float(b.ICPScore, 0) > 80 {
		c += 15
	}
	if b.NewsSentiment == model.SentimentNegative {
		c -= 10
	}
	if b.CapitalGrowth != nil && *b.CapitalGrowth < 0 {
		c -= 15
	}
	return model.Clamp(c)
}

// timeframeDays stretches or compresses the offer's ideal timeframe by the
// score bracket.
func timeframeDays(score float64, ideal int) int {
	var mult float64
	switch {
	case score >= 80:
		mult = 0.7
	case score >= 60:
		mult = 1.0
	case score >= 40:
		mult = 1.3
	default:
		mult = 1.8
	}
	return int(math.Round(float64(ideal) * mult))
}

func rationaleForScore(score float64, offer OfferConfig) []string {
	switch {
	case score >= 80:
		return []string{
			fmt.Sprintf("propensão alta para %s: perfil e momento de compra fortes", offer.Name),
			"janela de conversão curta; priorizar abordagem imediata",
		}
	case score >= 60:
		return []string{
			fmt.Sprintf("propensão boa para %s: perfil aderente com sinais moderados", offer.Name),
			"manter cadência regular de contato",
		}
	case score >= 40:
		return []string{
			fmt.Sprintf("propensão média para %s: aderência parcial ao perfil ideal", offer.Name),
			"nutrir a conta antes de abordagem direta",
		}
	default:
		return []string{
			fmt.Sprintf("propensão baixa para %s no momento", offer.Name),
			"reavaliar quando novos sinais de compra surgirem",
		}
	}
}

func nextActionsForScore(score float64) []string {
	switch {
	case score >= 80:
		return []string{
			"agendar reunião executiva nesta semana",
			"preparar proposta comercial com ROI estimado",
			"mapear decisor e aprovador de orçamento",
		}
	case score >= 60:
		return []string{
			"iniciar cadência de outreach padrão",
			"enviar material técnico da oferta",
			"monitorar sinais de intenção de compra",
		}
	case score >= 40:
		return []string{
			"incluir em campanha de nutrição",
			"acompanhar trimestre a trimestre",
		}
	default:
		return []string{
			"manter em base fria com monitoramento passivo",
		}
	}
}
