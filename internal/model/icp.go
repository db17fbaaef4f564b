package model

import "time"

// ICPTier grades how closely a company matches the ideal customer profile.
type ICPTier string

const (
	TierA ICPTier = "A"
	TierB ICPTier = "B"
	TierC ICPTier = "C"
)

// TierForScore maps a 0-100 classification score to a tier.
func TierForScore(score float64) ICPTier {
	switch {
	case score >= 80:
		return TierA
	case score >= 60:
		return TierB
	default:
		return TierC
	}
}

// ICPProfile is the result of classifying a company against the vertical
// catalog. Immutable once produced; persisted keyed by company.
type ICPProfile struct {
	CompanyID   string             `json:"company_id"`
	Vertical    string             `json:"vertical"`
	SubVertical string             `json:"sub_vertical,omitempty"`
	Tier        ICPTier            `json:"tier"`
	Score       float64            `json:"score"` // 0-100
	Features    SignalBundle       `json:"features"`
	Rationale   []string           `json:"rationale"`         // ordered explanation strings
	Factors     map[string]float64 `json:"factors,omitempty"` // per-factor contribution
	CreatedAt   time.Time          `json:"created_at"`
}
