package cadence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

func testProfile(vertical string, tier model.ICPTier) *model.ICPProfile {
	return &model.ICPProfile{CompanyID: "c-1", Vertical: vertical, Tier: tier}
}

func TestSelectCadenceLowPropensityReturnsNil(t *testing.T) {
	m := NewManager(nil)

	tpl := m.SelectCadence(testProfile("Manufatura", model.TierA), 39.9, "decisor_ti")

	assert.Nil(t, tpl)
}

func TestSelectCadenceExactVerticalBeatsWildcard(t *testing.T) {
	m := NewManager(nil)

	tpl := m.SelectCadence(testProfile("Manufatura", model.TierA), 80, "decisor_ti")

	require.NotNil(t, tpl)
	assert.Equal(t, "manufatura-decisor", tpl.ID)
}

func TestSelectCadenceWildcardFallback(t *testing.T) {
	m := NewManager(nil)

	tpl := m.SelectCadence(testProfile("Agronegocio", model.TierB), 60, "decisor_ti")

	require.NotNil(t, tpl)
	assert.Equal(t, "geral-decisor", tpl.ID)
}

func TestSelectCadenceNoPersonaMatch(t *testing.T) {
	m := NewManager(nil)

	tpl := m.SelectCadence(testProfile("Manufatura", model.TierA), 80, "estagiario")

	assert.Nil(t, tpl)
}

func TestFitScoreComponents(t *testing.T) {
	// exact vertical, capped propensity bonus, tier A
	assert.Equal(t, 100.0, fitScore(true, 100, model.TierA))
	// wildcard, tier B, propensity 50 -> 30 + 15 + 10
	assert.Equal(t, 55.0, fitScore(false, 50, model.TierB))
}

func TestExecuteNextStepAdvances(t *testing.T) {
	m := NewManager(nil)
	tpl := &DefaultTemplates()[0]
	exec := m.StartExecution("c-1", tpl)

	next, err := m.ExecuteNextStep(exec, tpl, StepContext{Score: 80})
	require.NoError(t, err)
	require.NotNil(t, next)

	assert.Equal(t, 1, exec.CurrentStep)
	assert.Equal(t, model.ActionEmail, next.Step.Action)
	assert.Len(t, exec.Results, 1)
	assert.Equal(t, model.ExecutionActive, exec.Status)
}

func TestExecuteNextStepSchedulesFromLastStep(t *testing.T) {
	m := NewManager(nil)
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m.nowFunc = func() time.Time { return fixed }

	tpl := &DefaultTemplates()[0]
	exec := m.StartExecution("c-1", tpl)

	_, err := m.ExecuteNextStep(exec, tpl, StepContext{Score: 80})
	require.NoError(t, err)

	next, err := m.ExecuteNextStep(exec, tpl, StepContext{Score: 80})
	require.NoError(t, err)

	// Step 2 timing is 48h anchored on the previous step's execution time.
	assert.Equal(t, fixed.Add(48*time.Hour), next.ScheduledAt)
}

func TestExecuteNextStepCompletesAtTemplateEnd(t *testing.T) {
	m := NewManager(nil)
	tpl := &model.CadenceTemplate{
		ID:      "curta",
		Persona: "decisor_ti",
		Steps: []model.CadenceStep{
			{Step: 1, Action: model.ActionEmail, TimingHours: 0},
		},
	}
	exec := m.StartExecution("c-1", tpl)

	_, err := m.ExecuteNextStep(exec, tpl, StepContext{})
	require.NoError(t, err)

	next, err := m.ExecuteNextStep(exec, tpl, StepContext{})
	require.NoError(t, err)
	assert.Nil(t, next)
	assert.Equal(t, model.ExecutionCompleted, exec.Status)
}

func TestExecuteNextStepEnforcesConditions(t *testing.T) {
	m := NewManager(nil)
	tpl := &DefaultTemplates()[0]
	exec := m.StartExecution("c-1", tpl)

	// Steps 1 and 2 are unconditional.
	_, err := m.ExecuteNextStep(exec, tpl, StepContext{Score: 30})
	require.NoError(t, err)
	_, err = m.ExecuteNextStep(exec, tpl, StepContext{Score: 30})
	require.NoError(t, err)

	// Step 3 requires score >= 60.
	_, err = m.ExecuteNextStep(exec, tpl, StepContext{Score: 30})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepConditionsNotMet)
	assert.Equal(t, 2, exec.CurrentStep, "failed gate must not advance the step")

	_, err = m.ExecuteNextStep(exec, tpl, StepContext{Score: 75})
	require.NoError(t, err)
	assert.Equal(t, 3, exec.CurrentStep)
}

func TestExecuteNextStepRejectsInactive(t *testing.T) {
	m := NewManager(nil)
	tpl := &DefaultTemplates()[0]
	exec := m.StartExecution("c-1", tpl)

	require.NoError(t, m.PauseCadence(exec))

	_, err := m.ExecuteNextStep(exec, tpl, StepContext{Score: 80})
	assert.ErrorIs(t, err, ErrExecutionNotActive)
}

func TestPauseResumeStopTransitions(t *testing.T) {
	m := NewManager(nil)
	tpl := &DefaultTemplates()[0]
	exec := m.StartExecution("c-1", tpl)

	require.NoError(t, m.PauseCadence(exec))
	assert.Equal(t, model.ExecutionPaused, exec.Status)
	assert.Error(t, m.PauseCadence(exec), "pausing twice is invalid")

	require.NoError(t, m.ResumeCadence(exec))
	assert.Equal(t, model.ExecutionActive, exec.Status)

	require.NoError(t, m.StopCadence(exec))
	assert.Equal(t, model.ExecutionStopped, exec.Status)
	assert.Error(t, m.StopCadence(exec), "stopping a finished execution is invalid")
}

func TestRecordStepResult(t *testing.T) {
	m := NewManager(nil)
	tpl := &DefaultTemplates()[0]
	exec := m.StartExecution("c-1", tpl)

	assert.Error(t, m.RecordStepResult(exec, model.ResultPositive), "nothing executed yet")

	_, err := m.ExecuteNextStep(exec, tpl, StepContext{Score: 80})
	require.NoError(t, err)

	require.NoError(t, m.RecordStepResult(exec, model.ResultPositive))
	assert.Equal(t, model.ResultPositive, exec.Results[0].Result)
}

func TestConditionsMetMatrix(t *testing.T) {
	minScore := 50.0
	maxScore := 90.0

	cases := []struct {
		name string
		cond *model.StepConditions
		ctx  StepContext
		want bool
	}{
		{"nil conditions", nil, StepContext{}, true},
		{"min score pass", &model.StepConditions{MinScore: &minScore}, StepContext{Score: 50}, true},
		{"min score fail", &model.StepConditions{MinScore: &minScore}, StepContext{Score: 49}, false},
		{"max score fail", &model.StepConditions{MaxScore: &maxScore}, StepContext{Score: 91}, false},
		{"vertical pass", &model.StepConditions{Verticals: []string{"Manufatura"}}, StepContext{Vertical: "Manufatura"}, true},
		{"vertical fail", &model.StepConditions{Verticals: []string{"Manufatura"}}, StepContext{Vertical: "Varejo"}, false},
		{"persona fail", &model.StepConditions{Personas: []string{"decisor_ti"}}, StepContext{Persona: "socio"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, conditionsMet(tc.cond, tc.ctx))
		})
	}
}

func TestDefaultPersonaSelectsFromDefaultCatalog(t *testing.T) {
	m := NewManager(DefaultTemplates())

	tpl := m.SelectCadence(testProfile("Manufatura", model.TierA), 80, DefaultPersona)

	require.NotNil(t, tpl)
	assert.Equal(t, "manufatura-decisor", tpl.ID)
}
