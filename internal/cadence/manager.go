package cadence

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
)

// minPropensityForCadence is the floor below which no cadence is selected.
const minPropensityForCadence = 40

// Manager selects templates and advances executions. The catalog is fixed at
// construction; execution state is owned by the caller (persisted via the
// store), so the manager itself is stateless and safe for concurrent use as
// long as no two callers advance the same execution.
type Manager struct {
	catalog []model.CadenceTemplate
	nowFunc func() time.Time
}

func NewManager(catalog []model.CadenceTemplate) *Manager {
	if len(catalog) == 0 {
		catalog = DefaultTemplates()
	}
	return &Manager{catalog: catalog, nowFunc: time.Now}
}

// SelectCadence picks the best-fitting template for the profile, propensity
// and persona, or nil when propensity is too low or nothing matches.
func (m *Manager) SelectCadence(profile *model.ICPProfile, propensity float64, persona string) *model.CadenceTemplate {
	if propensity < minPropensityForCadence {
		return nil
	}

	var (
		best    *model.CadenceTemplate
		bestFit float64
	)
	for i := range m.catalog {
		tpl := &m.catalog[i]
		if tpl.Persona != persona {
			continue
		}
		exact := tpl.Vertical == profile.Vertical
		if !exact && tpl.Vertical != model.CadenceWildcardVertical {
			continue
		}

		fit := fitScore(exact, propensity, profile.Tier)
		if best == nil || fit > bestFit {
			best = tpl
			bestFit = fit
		}
	}
	return best
}

// TemplateByID returns the catalog template with the given ID, or nil when
// the catalog has no such template.
func (m *Manager) TemplateByID(id string) *model.CadenceTemplate {
	for i := range m.catalog {
		if m.catalog[i].ID == id {
			return &m.catalog[i]
		}
	}
	return nil
}

// fitScore ranks candidate templates: exact vertical beats wildcard,
// propensity contributes up to 30 points, tier adds a bonus.
func fitScore(exactVertical bool, propensity float64, tier model.ICPTier) float64 {
	fit := 30.0
	if exactVertical {
		fit = 50
	}
	fit += math.Min(30, propensity*0.3)
	switch tier {
	case model.TierA:
		fit += 20
	case model.TierB:
		fit += 10
	}
	return fit
}

// StartExecution creates a fresh active execution for a company and template.
func (m *Manager) StartExecution(companyID string, tpl *model.CadenceTemplate) *model.CadenceExecution {
	return &model.CadenceExecution{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		CadenceID:   tpl.ID,
		CurrentStep: 0,
		Status:      model.ExecutionActive,
		StartedAt:   m.nowFunc().UTC(),
	}
}

// StepContext is the live execution context the step conditions gate on.
type StepContext struct {
	Score    float64
	Vertical string
	Persona  string
}

// NextStep is the planned next action of an execution.
type NextStep struct {
	Step        model.CadenceStep
	ScheduledAt time.Time
}

var (
	// ErrExecutionNotActive rejects step advancement on paused, stopped or
	// completed executions.
	ErrExecutionNotActive = eris.New("cadence: execution not active")
	// ErrStepConditionsNotMet rejects a step whose conditions fail against
	// the live context.
	ErrStepConditionsNotMet = eris.New("cadence: step conditions not met")
)

// ExecuteNextStep advances the execution by one step. When the template has
// no further steps the execution transitions to completed and (nil, nil) is
// returned. Step conditions are enforced against the supplied context.
// Callers must serialize calls per execution.
func (m *Manager) ExecuteNextStep(exec *model.CadenceExecution, tpl *model.CadenceTemplate, stepCtx StepContext) (*NextStep, error) {
	if exec.Status != model.ExecutionActive {
		return nil, ErrExecutionNotActive
	}

	next, ok := stepAt(tpl, exec.CurrentStep+1)
	if !ok {
		exec.Status = model.ExecutionCompleted
		return nil, nil
	}

	if !conditionsMet(next.Conditions, stepCtx) {
		return nil, eris.Wrap(ErrStepConditionsNotMet, tpl.ID)
	}

	anchor := exec.StartedAt
	if exec.LastStepAt != nil {
		anchor = *exec.LastStepAt
	}
	scheduledAt := anchor.Add(time.Duration(next.TimingHours) * time.Hour)

	now := m.nowFunc().UTC()
	exec.CurrentStep = next.Step
	exec.LastStepAt = &now
	exec.Results = append(exec.Results, model.StepLog{
		Step:       next.Step,
		Action:     next.Action,
		ExecutedAt: now,
		Result:     model.ResultNeutral,
	})

	return &NextStep{Step: next, ScheduledAt: scheduledAt}, nil
}

// RecordStepResult overwrites the outcome of the most recent step log entry.
func (m *Manager) RecordStepResult(exec *model.CadenceExecution, result model.StepResult) error {
	if len(exec.Results) == 0 {
		return eris.New("cadence: no executed step to record against")
	}
	exec.Results[len(exec.Results)-1].Result = result
	return nil
}

// PauseCadence is an external transition independent of step advancement.
func (m *Manager) PauseCadence(exec *model.CadenceExecution) error {
	if exec.Status != model.ExecutionActive {
		return ErrExecutionNotActive
	}
	exec.Status = model.ExecutionPaused
	return nil
}

// ResumeCadence reverses a pause.
func (m *Manager) ResumeCadence(exec *model.CadenceExecution) error {
	if exec.Status != model.ExecutionPaused {
		return eris.New("cadence: execution not paused")
	}
	exec.Status = model.ExecutionActive
	return nil
}

// StopCadence terminally ends an execution from outside the step machine.
func (m *Manager) StopCadence(exec *model.CadenceExecution) error {
	if exec.Status == model.ExecutionCompleted || exec.Status == model.ExecutionStopped {
		return eris.New("cadence: execution already finished")
	}
	exec.Status = model.ExecutionStopped
	return nil
}

func stepAt(tpl *model.CadenceTemplate, number int) (model.CadenceStep, bool) {
	for _, s := range tpl.Steps {
		if s.Step == number {
			return s, true
		}
	}
	return model.CadenceStep{}, false
}

func conditionsMet(c *model.StepConditions, ctx StepContext) bool {
	if c == nil {
		return true
	}
	if c.MinScore != nil && ctx.Score < *c.MinScore {
		return false
	}
	if c.MaxScore != nil && ctx.Score > *c.MaxScore {
		return false
	}
	if len(c.Verticals) > 0 && !contains(c.Verticals, ctx.Vertical) {
		return false
	}
	if len(c.Personas) > 0 && !contains(c.Personas, ctx.Persona) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
