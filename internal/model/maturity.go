package model

import "time"

// Maturity dimension names, in weight order.
const (
	DimInfrastructure = "infrastructure"
	DimSystems        = "systems"
	DimData           = "data"
	DimSecurity       = "security"
	DimAutomation     = "automation"
	DimCulture        = "culture"
)

// MaturityWeights are the fixed dimension weights. They sum to exactly 1.0.
var MaturityWeights = map[string]float64{
	DimInfrastructure: 0.20,
	DimSystems:        0.25,
	DimData:           0.15,
	DimSecurity:       0.15,
	DimAutomation:     0.15,
	DimCulture:        0.10,
}

// MaturityScores holds the six dimension scores and the weighted overall.
// Every value is clamped to [0, 100].
type MaturityScores struct {
	CompanyID      string    `json:"company_id,omitempty"`
	Infrastructure float64   `json:"infrastructure"`
	Systems        float64   `json:"systems"`
	Data           float64   `json:"data"`
	Security       float64   `json:"security"`
	Automation     float64   `json:"automation"`
	Culture        float64   `json:"culture"`
	Overall        float64   `json:"overall"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// Dimensions returns the six dimension scores keyed by name.
func (m MaturityScores) Dimensions() map[string]float64 {
	return map[string]float64{
		DimInfrastructure: m.Infrastructure,
		DimSystems:        m.Systems,
		DimData:           m.Data,
		DimSecurity:       m.Security,
		DimAutomation:     m.Automation,
		DimCulture:        m.Culture,
	}
}
