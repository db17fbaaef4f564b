// Package cadence selects outreach sequences and advances executions through
// their steps.
package cadence

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
)

// LoadTemplates reads a template catalog from a YAML file.
func LoadTemplates(path string) ([]model.CadenceTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "cadence: read templates")
	}
	var catalog struct {
		Templates []model.CadenceTemplate `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, eris.Wrap(err, "cadence: parse templates")
	}
	return catalog.Templates, nil
}

func f(v float64) *float64 { return &v }

// DefaultPersona is the persona assumed when a caller does not name one.
// It must match a persona present in the default catalog.
const DefaultPersona = "decisor_ti"

// DefaultTemplates is the built-in catalog used when no YAML file is
// configured.
func DefaultTemplates() []model.CadenceTemplate {
	return []model.CadenceTemplate{
		{
			ID:       "manufatura-decisor",
			Name:     "Manufatura - decisor de TI",
			Vertical: "Manufatura",
			Persona:  "decisor_ti",
			Steps: []model.CadenceStep{
				{Step: 1, Action: model.ActionEmail, TemplateID: "mft-intro", TimingHours: 0},
				{Step: 2, Action: model.ActionLinkedIn, TemplateID: "mft-connect", TimingHours: 48},
				{Step: 3, Action: model.ActionCall, TemplateID: "mft-call", TimingHours: 72,
					Conditions: &model.StepConditions{MinScore: f(60)}},
				{Step: 4, Action: model.ActionWait, TemplateID: "", TimingHours: 96},
				{Step: 5, Action: model.ActionEmail, TemplateID: "mft-breakup", TimingHours: 120},
			},
		},
		{
			ID:       "manufatura-financeiro",
			Name:     "Manufatura - decisor financeiro",
			Vertical: "Manufatura",
			Persona:  "decisor_financeiro",
			Steps: []model.CadenceStep{
				{Step: 1, Action: model.ActionEmail, TemplateID: "fin-roi", TimingHours: 0},
				{Step: 2, Action: model.ActionCall, TemplateID: "fin-call", TimingHours: 96},
				{Step: 3, Action: model.ActionEmail, TemplateID: "fin-case", TimingHours: 168},
			},
		},
		{
			ID:       "varejo-decisor",
			Name:     "Varejo - decisor de TI",
			Vertical: "Varejo",
			Persona:  "decisor_ti",
			Steps: []model.CadenceStep{
				{Step: 1, Action: model.ActionEmail, TemplateID: "var-intro", TimingHours: 0},
				{Step: 2, Action: model.ActionLinkedIn, TemplateID: "var-connect", TimingHours: 24},
				{Step: 3, Action: model.ActionCall, TemplateID: "var-call", TimingHours: 72},
			},
		},
		{
			ID:       "geral-decisor",
			Name:     "Cadência geral - decisor de TI",
			Vertical: model.CadenceWildcardVertical,
			Persona:  "decisor_ti",
			Steps: []model.CadenceStep{
				{Step: 1, Action: model.ActionEmail, TemplateID: "ger-intro", TimingHours: 0},
				{Step: 2, Action: model.ActionWait, TemplateID: "", TimingHours: 72},
				{Step: 3, Action: model.ActionEmail, TemplateID: "ger-followup", TimingHours: 96},
				{Step: 4, Action: model.ActionCall, TemplateID: "ger-call", TimingHours: 120,
					Conditions: &model.StepConditions{MinScore: f(50)}},
			},
		},
		{
			ID:       "geral-socio",
			Name:     "Cadência geral - sócio-diretor",
			Vertical: model.CadenceWildcardVertical,
			Persona:  "socio_diretor",
			Steps: []model.CadenceStep{
				{Step: 1, Action: model.ActionEmail, TemplateID: "soc-intro", TimingHours: 0},
				{Step: 2, Action: model.ActionCall, TemplateID: "soc-call", TimingHours: 48},
				{Step: 3, Action: model.ActionEmail, TemplateID: "soc-breakup", TimingHours: 168},
			},
		},
	}
}
