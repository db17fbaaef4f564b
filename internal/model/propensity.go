package model

import "time"

// PillarBreakdown is one named pillar of the propensity score.
// JSON keys keep the wire names consumers already depend on.
type PillarBreakdown struct {
	Peso         float64 `json:"peso"`         // weight, 0-1
	Valor        float64 `json:"valor"`        // 0-100
	Contribuicao float64 `json:"contribuicao"` // peso * valor
}

// PropensitySignals separates the positive and negative evidence strings.
type PropensitySignals struct {
	Positivos []string `json:"positivos"`
	Negativos []string `json:"negativos"`
}

// PropensityScore is the likelihood-to-buy result for a (company, offer) pair.
// Invariant: the pillar pesos sum to 1.0 (within 1e-6) on the full-calculation
// path; short-circuited results carry an empty breakdown.
type PropensityScore struct {
	CompanyID     string                     `json:"company_id"`
	OfferID       string                     `json:"offer_id"`
	Score         float64                    `json:"score"`          // 0-100
	TimeframeDays int                        `json:"timeframe_days"` // expected conversion window
	Confidence    float64                    `json:"confidence"`     // 0-100
	Breakdown     map[string]PillarBreakdown `json:"breakdown,omitempty"`
	Sinais        PropensitySignals          `json:"sinais"`
	Rationale     []string                   `json:"rationale"`
	NextActions   []string                   `json:"next_actions,omitempty"` // up to 3, ordered
	CreatedAt     time.Time                  `json:"created_at"`
}
