package model

import "time"

// CadenceAction is the outreach channel for a single step.
type CadenceAction string

const (
	ActionEmail    CadenceAction = "email"
	ActionLinkedIn CadenceAction = "linkedin"
	ActionCall     CadenceAction = "call"
	ActionWait     CadenceAction = "wait"
)

// StepConditions optionally gate a step on the live execution context.
type StepConditions struct {
	MinScore  *float64 `json:"min_score,omitempty" yaml:"min_score,omitempty"`
	MaxScore  *float64 `json:"max_score,omitempty" yaml:"max_score,omitempty"`
	Verticals []string `json:"verticals,omitempty" yaml:"verticals,omitempty"`
	Personas  []string `json:"personas,omitempty" yaml:"personas,omitempty"`
}

// CadenceStep is one scripted action within a template.
type CadenceStep struct {
	Step        int             `json:"step" yaml:"step"`
	Action      CadenceAction   `json:"action" yaml:"action"`
	TemplateID  string          `json:"template_id" yaml:"template_id"`
	TimingHours int             `json:"timing_hours" yaml:"timing_hours"` // offset from the previous step
	Conditions  *StepConditions `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// CadenceTemplate is a scripted, timed outreach sequence for a persona and
// vertical. Vertical "Todos" matches any vertical.
type CadenceTemplate struct {
	ID       string        `json:"id" yaml:"id"`
	Name     string        `json:"name,omitempty" yaml:"name,omitempty"`
	Vertical string        `json:"vertical" yaml:"vertical"`
	Persona  string        `json:"persona" yaml:"persona"`
	Steps    []CadenceStep `json:"steps" yaml:"steps"`
}

// CadenceWildcardVertical matches every vertical during template selection.
const CadenceWildcardVertical = "Todos"

// ExecutionStatus is the lifecycle state of a running cadence.
type ExecutionStatus string

const (
	ExecutionActive    ExecutionStatus = "active"
	ExecutionPaused    ExecutionStatus = "paused"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionStopped   ExecutionStatus = "stopped"
)

// StepResult is the recorded outcome of one executed step.
type StepResult string

const (
	ResultPositive   StepResult = "positive"
	ResultNegative   StepResult = "negative"
	ResultNeutral    StepResult = "neutral"
	ResultNoResponse StepResult = "no_response"
)

// StepLog is one entry in an execution's ordered result log.
type StepLog struct {
	Step       int           `json:"step"`
	Action     CadenceAction `json:"action"`
	ExecutedAt time.Time     `json:"executed_at"`
	Result     StepResult    `json:"result"`
}

// CadenceExecution tracks a company's progress through a template.
// CurrentStep is monotonic and never exceeds the template length.
type CadenceExecution struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"company_id"`
	CadenceID   string          `json:"cadence_id"`
	CurrentStep int             `json:"current_step"` // index of the last executed step, 0 = none yet
	Status      ExecutionStatus `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	LastStepAt  *time.Time      `json:"last_step_at,omitempty"`
	Results     []StepLog       `json:"results"`
}
