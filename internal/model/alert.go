package model

import "time"

// AlertKind selects the detector a rule dispatches to.
type AlertKind string

const (
	AlertIngestError  AlertKind = "ingest_error"
	AlertMaturityDrop AlertKind = "maturity_drop"
	AlertSlowRun      AlertKind = "slow_run"
	AlertCronGap      AlertKind = "cron_gap"
	AlertStuckLock    AlertKind = "stuck_lock"
	AlertQuota        AlertKind = "quota"
)

// AlertSeverity grades an alert rule.
type AlertSeverity string

const (
	AlertCritical AlertSeverity = "critical"
	AlertHigh     AlertSeverity = "high"
	AlertMedium   AlertSeverity = "medium"
	AlertLow      AlertSeverity = "low"
)

// AlertRuleParams holds the kind-specific tuning knobs. Unused fields are
// zero for kinds that do not read them.
type AlertRuleParams struct {
	Threshold      int     `json:"threshold,omitempty"`        // ingest_error, quota: min occurrences
	MinDrop        float64 `json:"min_drop,omitempty"`         // maturity_drop: points between snapshots
	MaxP95Ms       int64   `json:"max_p95_ms,omitempty"`       // slow_run
	MaxGapMinutes  int     `json:"max_gap_minutes,omitempty"`  // cron_gap
	MaxHeldMinutes int     `json:"max_held_minutes,omitempty"` // stuck_lock
	Job            string  `json:"job,omitempty"`              // cron_gap: heartbeat name
	Provider       string  `json:"provider,omitempty"`         // quota: restrict to one provider
}

// AlertRule is one monitored condition. Name is unique.
type AlertRule struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Kind        AlertKind       `json:"kind"`
	Severity    AlertSeverity   `json:"severity"`
	Params      AlertRuleParams `json:"params"`
	CooldownSec int             `json:"cooldown_sec"`
	Enabled     bool            `json:"enabled"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ChannelResult records one channel's delivery attempt for an event.
type ChannelResult struct {
	Channel string `json:"channel"`
	OK      bool   `json:"ok"`
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AlertEvent is one persisted firing of a rule. Signature is the canonical
// structural hash of the detected condition; Delivered is true only when
// every channel delivery succeeded.
type AlertEvent struct {
	ID        string          `json:"id"`
	RuleID    string          `json:"rule_id"`
	RuleName  string          `json:"rule_name"`
	Severity  AlertSeverity   `json:"severity"`
	Message   string          `json:"message"`
	CompanyID string          `json:"company_id,omitempty"`
	Vendor    string          `json:"vendor,omitempty"`
	RunID     string          `json:"run_id,omitempty"`
	Signature string          `json:"signature"` // canonical hash of the condition instance
	Meta      map[string]any  `json:"meta,omitempty"`
	Delivered bool            `json:"delivered"`
	Channels  []ChannelResult `json:"channels,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Heartbeat records the last completion of a scheduled job.
type Heartbeat struct {
	Job    string    `json:"job"`
	LastAt time.Time `json:"last_at"`
}

// JobLock is an advisory lock row; stuck locks trigger alerts.
type JobLock struct {
	Name       string    `json:"name"`
	Holder     string    `json:"holder"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// QuotaEvent records one quota/payment rejection from a provider.
type QuotaEvent struct {
	Provider  string    `json:"provider"`
	Status    int       `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
