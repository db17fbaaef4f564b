package recommend

import (
	"fmt"

	"github.com/sells-group/prospect-cli/internal/model"
)

// maxSuggestedActions bounds the prioritized action list.
const maxSuggestedActions = 3

// ActionContext carries the decision-specific inputs the lookup tables key
// on.
type ActionContext struct {
	AttentionPoints    []model.AttentionPoint
	CompetitorDetected bool
	CompetitorName     string
}

// GenerateSuggestedActions maps a decision to at most three prioritized
// actions. QUALIFICAR actions are driven by the actual attention points; GO
// actions differ when a competitor product was already detected.
func GenerateSuggestedActions(decision model.Decision, ctx ActionContext) []string {
	var actions []string

	switch decision {
	case model.DecisionGo:
		if ctx.CompetitorDetected {
			actions = []string{
				fmt.Sprintf("abrir conversa de substituição do %s com caso de migração", ctx.CompetitorName),
				"agendar demonstração focada nas dores do produto atual",
				"preparar comparativo de custo total de propriedade",
			}
		} else {
			actions = []string{
				"iniciar cadência de outreach imediatamente",
				"agendar diagnóstico com o decisor mapeado",
				"enviar material da oferta de maior propensão",
			}
		}
	case model.DecisionQualify:
		for _, p := range ctx.AttentionPoints {
			if p.Action != "" {
				actions = append(actions, p.Action)
			}
		}
		actions = append(actions, "reavaliar o score após resolver as pendências")
	case model.DecisionNoGo:
		actions = []string{
			"registrar o motivo do descarte na base",
			"agendar reavaliação automática em 6 meses",
		}
	}

	if len(actions) > maxSuggestedActions {
		actions = actions[:maxSuggestedActions]
	}
	return actions
}
