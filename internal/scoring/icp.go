package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/ptext"
)

// Per-factor credit levels for capital-range membership.
const (
	creditFull    = 100.0
	creditPartial = 60.0
	creditLow     = 20.0
	creditNeutral = 50.0
)

// ICPClassifier scores a company against every vertical in its catalog and
// picks the best match. Stateless; safe for concurrent use.
type ICPClassifier struct {
	catalog []VerticalConfig
}

// NewICPClassifier builds a classifier over the given catalog. Catalog order
// is significant: exact score ties resolve to the earlier entry.
func NewICPClassifier(catalog []VerticalConfig) *ICPClassifier {
	if len(catalog) == 0 {
		catalog = DefaultVerticalCatalog()
	}
	return &ICPClassifier{catalog: catalog}
}

// Classify evaluates every vertical and returns the best-matching profile.
// Missing signals never fail the call: they earn neutral credit and append a
// flagged rationale line.
func (c *ICPClassifier) Classify(bundle model.SignalBundle) *model.ICPProfile {
	var (
		best      VerticalConfig
		bestScore float64
		bestFacts map[string]float64
		found     bool
	)

	for _, v := range c.catalog {
		score, facts := c.scoreVertical(v, bundle)
		// Strictly-greater keeps the first catalog entry on ties.
		if !found || score > bestScore {
			best = v
			bestScore = score
			bestFacts = facts
			found = true
		}
	}

	now := time.Now().UTC()
	if !found || bestScore <= 0 {
		return &model.ICPProfile{
			CompanyID: bundle.CompanyID,
			Vertical:  FallbackVertical,
			Tier:      model.TierC,
			Score:     30,
			Features:  bundle,
			Rationale: []string{"nenhuma vertical do catálogo pontuou acima de zero"},
			CreatedAt: now,
		}
	}

	score := model.Clamp(bestScore)
	return &model.ICPProfile{
		CompanyID:   bundle.CompanyID,
		Vertical:    best.Name,
		SubVertical: best.SubVertical,
		Tier:        model.TierForScore(score),
		Score:       score,
		Features:    bundle,
		Rationale:   c.rationale(best, bundle, bestFacts),
		Factors:     bestFacts,
		CreatedAt:   now,
	}
}

// scoreVertical computes the weighted 0-100 fit of the bundle against one
// vertical config, returning the per-factor credits for the audit trail.
func (c *ICPClassifier) scoreVertical(v VerticalConfig, bundle model.SignalBundle) (float64, map[string]float64) {
	facts := map[string]float64{
		"porte":            porteCredit(v, bundle.Porte),
		"capital":          capitalCredit(v, bundle.Capital),
		"tech_stack":       techStackCredit(v, bundle.TechStack),
		"maturity":         minimumCredit(bundle.MaturityScore, v.MinMaturity),
		"digital_presence": minimumCredit(bundle.DigitalPresenceScore, v.MinDigital),
	}

	total := v.Weights.Porte*facts["porte"] +
		v.Weights.Capital*facts["capital"] +
		v.Weights.TechStack*facts["tech_stack"] +
		v.Weights.Maturity*facts["maturity"] +
		v.Weights.DigitalPresence*facts["digital_presence"]
	return total, facts
}

// porteCredit gives full credit when the declared size is in the ideal set,
// half otherwise.
func porteCredit(v VerticalConfig, porte string) float64 {
	if porte == "" {
		return creditNeutral
	}
	for _, p := range v.Portes {
		if strings.EqualFold(p, porte) {
			return creditFull
		}
	}
	return creditFull / 2
}

// capitalCredit gives full credit inside the ideal band, partial credit
// inside the widened band (0.5*min .. 2*max), low credit outside both.
func capitalCredit(v VerticalConfig, capital *float64) float64 {
	if capital == nil {
		return creditNeutral
	}
	val := *capital
	if val >= v.Capital.Min && val <= v.Capital.Max {
		return creditFull
	}
	if val >= v.Capital.Min*0.5 && val <= v.Capital.Max*2 {
		return creditPartial
	}
	return creditLow
}

// techStackCredit is proportional to the fraction of the vertical's keywords
// found in the detected stack.
func techStackCredit(v VerticalConfig, stack []string) float64 {
	if len(v.Keywords) == 0 {
		return creditNeutral
	}
	folded := make([]string, len(stack))
	for i, s := range stack {
		folded[i] = ptext.Fold(s)
	}

	matched := 0
	for _, kw := range v.Keywords {
		needle := ptext.Fold(kw)
		for _, s := range folded {
			if strings.Contains(s, needle) {
				matched++
				break
			}
		}
	}
	return creditFull * float64(matched) / float64(len(v.Keywords))
}

// minimumCredit gives full credit at or above the minimum, proportional
// credit below it.
func minimumCredit(score *float64, minimum float64) float64 {
	if score == nil {
		return creditNeutral
	}
	if minimum <= 0 || *score >= minimum {
		return creditFull
	}
	return creditFull * (*score / minimum)
}

func (c *ICPClassifier) rationale(v VerticalConfig, bundle model.SignalBundle, facts map[string]float64) []string {
	lines := []string{
		fmt.Sprintf("melhor aderência à vertical %s", v.Name),
	}
	if facts["porte"] >= creditFull {
		lines = append(lines, fmt.Sprintf("porte %s dentro do perfil ideal", bundle.Porte))
	}
	if facts["capital"] >= creditFull {
		lines = append(lines, "capital social dentro da faixa ideal")
	}
	if facts["tech_stack"] > 0 && len(bundle.TechStack) > 0 {
		lines = append(lines, fmt.Sprintf("stack detectada com %.0f%% de aderência às tecnologias da vertical", facts["tech_stack"]))
	}
	if bundle.Capital == nil {
		lines = append(lines, "⚠️ capital social não informado; crédito neutro aplicado")
	}
	if bundle.MaturityScore == nil {
		lines = append(lines, "⚠️ maturidade digital não avaliada; crédito neutro aplicado")
	}
	if bundle.DigitalPresenceScore == nil {
		lines = append(lines, "⚠️ presença digital não avaliada; crédito neutro aplicado")
	}
	return lines
}
