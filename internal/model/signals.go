// Package model defines the core domain types shared across the decision pipeline.
package model

import "time"

// SignalIntensity buckets how strong the recent buying signals are.
type SignalIntensity string

const (
	IntensityLow    SignalIntensity = "low"
	IntensityMedium SignalIntensity = "medium"
	IntensityHigh   SignalIntensity = "high"
)

// NewsSentiment buckets the tone of recent news coverage.
type NewsSentiment string

const (
	SentimentPositive NewsSentiment = "positive"
	SentimentNeutral  NewsSentiment = "neutral"
	SentimentNegative NewsSentiment = "negative"
)

// SignalBundle is the request-scoped feature bundle assembled by the
// enrichment pipeline for a single company. Optional signals are pointers;
// scorers substitute neutral defaults when a field is nil rather than failing.
type SignalBundle struct {
	CompanyID string `json:"company_id"`
	Name      string `json:"name,omitempty"`

	Porte    string   `json:"porte,omitempty"` // declared size bracket (MEI, ME, EPP, MEDIA, GRANDE)
	Capital  *float64 `json:"capital,omitempty"`
	Industry string   `json:"industry,omitempty"`
	Region   string   `json:"region,omitempty"`

	TechStack []string `json:"tech_stack,omitempty"` // ordered product names as detected

	MaturityScore        *float64 `json:"maturity_score,omitempty"`
	DigitalPresenceScore *float64 `json:"digital_presence_score,omitempty"`
	TechStackScore       *float64 `json:"tech_stack_score,omitempty"`
	ICPScore             *float64 `json:"icp_score,omitempty"`
	Vertical             string   `json:"vertical,omitempty"`

	EmployeeCount   *int            `json:"employee_count,omitempty"`
	RecentSignals   *int            `json:"recent_signals,omitempty"`
	SignalIntensity SignalIntensity `json:"signal_intensity,omitempty"`
	CompanyAgeYears *float64        `json:"company_age_years,omitempty"`
	CapitalGrowth   *float64        `json:"capital_growth,omitempty"` // ratio, negative means shrinking
	NewsSentiment   NewsSentiment   `json:"news_sentiment,omitempty"`
	HiringActivity  *int            `json:"hiring_activity,omitempty"`
	WebsiteChanges  *int            `json:"website_changes,omitempty"`

	// Raw evidence used by the attention-point predicates.
	WebsiteURL          string   `json:"website_url,omitempty"`
	WebsiteValidated    bool     `json:"website_validated,omitempty"`
	WebsiteConfidence   *float64 `json:"website_confidence,omitempty"`
	LegalProcessCount   *int     `json:"legal_process_count,omitempty"`
	SocialProfileCount  *int     `json:"social_profile_count,omitempty"`
	RecentNewsCount     *int     `json:"recent_news_count,omitempty"`
	RegistrationStatus  string   `json:"registration_status,omitempty"` // ATIVA, SUSPENSA, BAIXADA, INAPTA
	DetectedCompetitors []string `json:"detected_competitors,omitempty"`
}

// Float returns the pointed-to value or the given fallback.
func Float(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

// Int returns the pointed-to value or the given fallback.
func Int(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

// Clamp bounds v to [0, 100].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// RunStatus represents the state of a single analysis run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one pass of the decision pipeline over a company. Run history is the
// operational record the alert detectors sweep over.
type Run struct {
	ID         string    `json:"id"`
	CompanyID  string    `json:"company_id"`
	Status     RunStatus `json:"status"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
