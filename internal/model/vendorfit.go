package model

import "time"

// MigrationComplexity grades the effort of a competitor migration.
type MigrationComplexity string

const (
	ComplexityLow    MigrationComplexity = "low"
	ComplexityMedium MigrationComplexity = "medium"
	ComplexityHigh   MigrationComplexity = "high"
)

// FitRecommendation is one product/service suggestion with its evidence.
type FitRecommendation struct {
	Product       string              `json:"product"`
	Rationale     string              `json:"rationale"`
	Confidence    float64             `json:"confidence"` // 0-100
	EstimatedROI  string              `json:"estimated_roi,omitempty"`
	Complexity    MigrationComplexity `json:"complexity,omitempty"`
	TimelineWeeks int                 `json:"timeline_weeks,omitempty"`
}

// CompetitorMigration describes a move off a detected competitor product.
type CompetitorMigration struct {
	From          string              `json:"from"`
	To            string              `json:"to"`
	MigrationPath []string            `json:"migration_path"`
	EstimatedTime string              `json:"estimated_time"`
	Complexity    MigrationComplexity `json:"complexity"`
}

// DealSize is a [min, max] revenue envelope for the opportunity.
type DealSize struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
	Basis    string  `json:"basis"` // how the estimate was derived
}

// DecisionPath maps who signs off on a deal of this size.
type DecisionPath struct {
	PrimaryDecisionMaker string   `json:"primary_decision_maker"`
	BudgetApprover       string   `json:"budget_approver"`
	Influencers          []string `json:"influencers"`
	EstimatedCycleDays   int      `json:"estimated_cycle_days"`
}

// VendorFit is the pitch recommendation for a (company, vendor) pair.
type VendorFit struct {
	CompanyID           string               `json:"company_id"`
	Vendor              string               `json:"vendor"`
	FitScore            float64              `json:"fit_score"` // 0-100
	Confidence          float64              `json:"confidence"`
	Recommendations     []FitRecommendation  `json:"recommendations"` // ordered, unbounded
	CompetitorMigration *CompetitorMigration `json:"competitor_migration,omitempty"`
	EstimatedDealSize   DealSize             `json:"estimated_deal_size"`
	DecisionPath        DecisionPath         `json:"decision_path"`
	CreatedAt           time.Time            `json:"created_at"`
}
