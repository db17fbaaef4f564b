// Package store persists every artifact of the decision pipeline: runs,
// scores, recommendations, cadence executions, and the operational history
// the alert sweep reads.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
)

// ErrStaleExecution reports that another caller advanced a cadence
// execution between read and write.
var ErrStaleExecution = eris.New("cadence execution advanced concurrently")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status    model.RunStatus `json:"status,omitempty"`
	CompanyID string          `json:"company_id,omitempty"`
	Since     time.Time       `json:"since,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	Offset    int             `json:"offset,omitempty"`
}

// MaturityPair is a company's two most recent maturity snapshots, used by
// the maturity-drop detector.
type MaturityPair struct {
	CompanyID string
	Prev      model.MaturityScores
	Cur       model.MaturityScores
}

// Store is the persistence contract of the pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, companyID string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, durationMs int64, errMsg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	RunDurationsSince(ctx context.Context, since time.Time) ([]int64, error)
	CountFailedRunsSince(ctx context.Context, since time.Time) (int, error)

	// Scoring artifacts
	SaveICPProfile(ctx context.Context, p *model.ICPProfile) error
	GetLatestICPProfile(ctx context.Context, companyID string) (*model.ICPProfile, error)
	SavePropensityScore(ctx context.Context, s *model.PropensityScore) error
	ListPropensityScores(ctx context.Context, companyID string) ([]model.PropensityScore, error)
	SaveMaturityScores(ctx context.Context, m *model.MaturityScores) error
	LatestMaturityPairs(ctx context.Context) ([]MaturityPair, error)
	SaveVendorFit(ctx context.Context, v *model.VendorFit) error
	SaveRecommendation(ctx context.Context, r *model.Recommendation) error
	GetLatestRecommendation(ctx context.Context, companyID string) (*model.Recommendation, error)

	// Cadence
	SaveCadenceExecution(ctx context.Context, e *model.CadenceExecution) error
	// AdvanceCadenceExecution persists e only when the stored row is still
	// at fromStep, so two callers can never advance the same execution
	// past the same step. A lost race returns ErrStaleExecution.
	AdvanceCadenceExecution(ctx context.Context, e *model.CadenceExecution, fromStep int) error
	GetCadenceExecution(ctx context.Context, id string) (*model.CadenceExecution, error)

	// Alerting
	ListEnabledAlertRules(ctx context.Context) ([]model.AlertRule, error)
	UpsertAlertRule(ctx context.Context, rule *model.AlertRule) error
	InsertAlertEvent(ctx context.Context, event *model.AlertEvent) error
	UpdateAlertEventDelivery(ctx context.Context, eventID string, delivered bool, channels []model.ChannelResult) error
	ListAlertEventsSince(ctx context.Context, ruleName string, since time.Time) ([]model.AlertEvent, error)
	ListRecentAlertEvents(ctx context.Context, limit int) ([]model.AlertEvent, error)

	// Operational history
	RecordHeartbeat(ctx context.Context, job string) error
	GetHeartbeat(ctx context.Context, job string) (*model.Heartbeat, error)
	AcquireLock(ctx context.Context, name, holder string) (bool, error)
	ReleaseLock(ctx context.Context, name string) error
	ListHeldLocks(ctx context.Context) ([]model.JobLock, error)
	RecordQuotaEvent(ctx context.Context, provider string, status int) error
	CountQuotaEventsSince(ctx context.Context, provider string, since time.Time) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
