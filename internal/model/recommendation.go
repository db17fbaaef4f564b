package model

import "time"

// Decision is the categorical go-to-market call.
type Decision string

const (
	DecisionGo      Decision = "GO"
	DecisionNoGo    Decision = "NO-GO"
	DecisionQualify Decision = "QUALIFICAR"
)

// ConfidenceLevel grades how sure the engine is about a decision.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Severity grades an attention point. Wire values keep the original
// Portuguese labels.
type Severity string

const (
	SeverityAlta  Severity = "alta"
	SeverityMedia Severity = "media"
	SeverityBaixa Severity = "baixa"
)

// AttentionPoint is a flagged risk discovered during analysis.
type AttentionPoint struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Severity    Severity `json:"severity"`
	Action      string   `json:"action"` // recommended remediation
	EvidenceIDs []string `json:"evidence_ids,omitempty"`
}

// Recommendation is the final decision plus its audit trail.
type Recommendation struct {
	CompanyID        string           `json:"company_id,omitempty"`
	Decision         Decision         `json:"decision"`
	Justification    string           `json:"justification"`
	Confidence       ConfidenceLevel  `json:"confidence"`
	AttentionPoints  []AttentionPoint `json:"attention_points"`
	SuggestedActions []string         `json:"suggested_actions,omitempty"` // up to 3, prioritized
	CreatedAt        time.Time        `json:"created_at,omitempty"`
}
