// Package recommend turns scores and raw signals into attention points, a
// GO / NO-GO / QUALIFICAR decision, and prioritized next actions.
package recommend

import (
	"fmt"
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
)

// attentionPredicate inspects the bundle and emits zero or one point.
// Predicates are independent: they never read each other's output.
type attentionPredicate func(model.SignalBundle) *model.AttentionPoint

// attentionChecks is the ordered predicate list. Output order follows this
// declaration order.
var attentionChecks = []attentionPredicate{
	checkIrregularRegistration,
	checkWebsiteUnvalidated,
	checkLegalProcesses,
	checkFewSocialProfiles,
	checkNoRecentNews,
	checkCapitalLowForPorte,
}

// IdentifyAttentionPoints runs every predicate against the bundle.
func IdentifyAttentionPoints(bundle model.SignalBundle) []model.AttentionPoint {
	points := make([]model.AttentionPoint, 0, len(attentionChecks))
	for _, check := range attentionChecks {
		if p := check(bundle); p != nil {
			points = append(points, *p)
		}
	}
	return points
}

func checkIrregularRegistration(b model.SignalBundle) *model.AttentionPoint {
	status := strings.ToUpper(b.RegistrationStatus)
	if status == "" || status == "ATIVA" {
		return nil
	}
	return &model.AttentionPoint{
		ID:       "irregular-status",
		Text:     fmt.Sprintf("situação cadastral irregular: %s", status),
		Severity: model.SeverityAlta,
		Action:   "confirmar situação na Receita Federal antes de qualquer proposta",
	}
}

func checkWebsiteUnvalidated(b model.SignalBundle) *model.AttentionPoint {
	confident := b.WebsiteValidated && model.Float(b.WebsiteConfidence, 0) >= 60
	if b.WebsiteURL != "" && confident {
		return nil
	}
	return &model.AttentionPoint{
		ID:       "website-unvalidated",
		Text:     "site oficial não validado ou com baixa confiança de correspondência",
		Severity: model.SeverityMedia,
		Action:   "validar manualmente o site antes de usar dados derivados dele",
	}
}

func checkLegalProcesses(b model.SignalBundle) *model.AttentionPoint {
	if model.Int(b.LegalProcessCount, 0) <= 5 {
		return nil
	}
	return &model.AttentionPoint{
		ID:       "excess-legal-processes",
		Text:     fmt.Sprintf("%d processos judiciais encontrados", *b.LegalProcessCount),
		Severity: model.SeverityAlta,
		Action:   "avaliar risco de crédito e reputacional com o time jurídico",
	}
}

func checkFewSocialProfiles(b model.SignalBundle) *model.AttentionPoint {
	if b.SocialProfileCount == nil || *b.SocialProfileCount >= 2 {
		return nil
	}
	return &model.AttentionPoint{
		ID:       "few-social-profiles",
		Text:     "presença em redes sociais abaixo do esperado para o porte",
		Severity: model.SeverityBaixa,
		Action:   "verificar canais digitais alternativos da empresa",
	}
}

func checkNoRecentNews(b model.SignalBundle) *model.AttentionPoint {
	if b.RecentNewsCount == nil || *b.RecentNewsCount > 0 {
		return nil
	}
	return &model.AttentionPoint{
		ID:       "no-recent-news",
		Text:     "nenhuma notícia recente encontrada",
		Severity: model.SeverityBaixa,
		Action:   "buscar sinais de atividade em fontes setoriais",
	}
}

// porteCapitalFloor is the minimum plausible capital social per declared
// size bracket.
var porteCapitalFloor = map[string]float64{
	"EPP":    50_000,
	"MEDIA":  200_000,
	"GRANDE": 1_000_000,
}

func checkCapitalLowForPorte(b model.SignalBundle) *model.AttentionPoint {
	if b.Capital == nil {
		return nil
	}
	floor, ok := porteCapitalFloor[strings.ToUpper(b.Porte)]
	if !ok || *b.Capital >= floor {
		return nil
	}
	return &model.AttentionPoint{
		ID:       "capital-low-for-porte",
		Text:     fmt.Sprintf("capital social de R$ %.0f incompatível com porte %s", *b.Capital, b.Porte),
		Severity: model.SeverityMedia,
		Action:   "cruzar faturamento estimado com outras fontes",
	}
}
