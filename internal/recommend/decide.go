package recommend

import (
	"fmt"
	"time"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Decide applies the precedence table to a propensity score and the attention
// points. Rules are evaluated strictly top to bottom; the first match wins.
func Decide(companyID string, score float64, points []model.AttentionPoint) *model.Recommendation {
	rec := &model.Recommendation{
		CompanyID:       companyID,
		AttentionPoints: points,
		CreatedAt:       time.Now().UTC(),
	}

	altas, medias := countBySeverity(points)

	switch {
	case altas > 0:
		// A single alta point vetoes the deal regardless of score.
		rec.Decision = model.DecisionNoGo
		rec.Confidence = model.ConfidenceHigh
		rec.Justification = fmt.Sprintf("%d ponto(s) de atenção de severidade alta bloqueiam a abordagem", altas)
	case score < 40:
		rec.Decision = model.DecisionNoGo
		rec.Confidence = model.ConfidenceHigh
		rec.Justification = fmt.Sprintf("score %.0f abaixo do mínimo viável", score)
	case score < 70 || medias >= 2:
		rec.Decision = model.DecisionQualify
		if medias == 0 {
			rec.Confidence = model.ConfidenceHigh
		} else {
			rec.Confidence = model.ConfidenceMedium
		}
		rec.Justification = fmt.Sprintf("score %.0f e %d ponto(s) de severidade média pedem qualificação adicional", score, medias)
	default:
		rec.Decision = model.DecisionGo
		rec.Confidence = model.ConfidenceHigh
		rec.Justification = fmt.Sprintf("score %.0f sem bloqueios relevantes", score)
	}
	return rec
}

func countBySeverity(points []model.AttentionPoint) (altas, medias int) {
	for _, p := range points {
		switch p.Severity {
		case model.SeverityAlta:
			altas++
		case model.SeverityMedia:
			medias++
		}
	}
	return altas, medias
}
