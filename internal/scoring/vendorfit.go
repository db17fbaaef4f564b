package scoring

import (
	"strings"
	"time"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/ptext"
)

// FitRule is one declarative trigger: a competitor technology detected in the
// stack yields one recommendation. Rules evaluate top-to-bottom; every
// matching rule fires, results accumulate without bound.
type FitRule struct {
	Competitor    string
	Product       string
	Rationale     string
	Confidence    float64
	EstimatedROI  string
	Complexity    model.MigrationComplexity
	TimelineWeeks int
	MigrationPath []string
	EstimatedTime string
}

// VendorFitCalculator suggests which products to pitch given the detected
// stack and maturity profile.
type VendorFitCalculator struct {
	vendor string
	rules  []FitRule
}

// NewVendorFitCalculator builds a calculator for one vendor with an ordered
// rule list.
func NewVendorFitCalculator(vendor string, rules []FitRule) *VendorFitCalculator {
	if len(rules) == 0 {
		rules = DefaultTOTVSRules()
	}
	if vendor == "" {
		vendor = "TOTVS"
	}
	return &VendorFitCalculator{vendor: vendor, rules: rules}
}

// DefaultTOTVSRules is the built-in competitor-displacement rule list.
func DefaultTOTVSRules() []FitRule {
	return []FitRule{
		{
			Competitor:    "sap",
			Product:       "TOTVS Protheus",
			Rationale:     "SAP detectado: custo total de propriedade elevado para o porte; Protheus cobre os mesmos processos com localização fiscal nativa",
			Confidence:    75,
			EstimatedROI:  "redução de 30-40% em licenciamento e suporte",
			Complexity:    model.ComplexityHigh,
			TimelineWeeks: 24,
			MigrationPath: []string{"levantamento de customizações", "migração de dados mestres", "paralelo contábil", "go-live assistido"},
			EstimatedTime: "6 a 9 meses",
		},
		{
			Competitor:    "oracle",
			Product:       "TOTVS Protheus",
			Rationale:     "Oracle ERP detectado: oportunidade de substituição com aderência fiscal brasileira superior",
			Confidence:    70,
			EstimatedROI:  "redução de 25-35% em licenciamento",
			Complexity:    model.ComplexityHigh,
			TimelineWeeks: 24,
			MigrationPath: []string{"levantamento de customizações", "migração de dados mestres", "go-live assistido"},
			EstimatedTime: "6 a 9 meses",
		},
		{
			Competitor:    "sankhya",
			Product:       "TOTVS Protheus",
			Rationale:     "Sankhya detectado: upgrade natural para empresas em crescimento que superam o escopo do produto atual",
			Confidence:    65,
			EstimatedROI:  "ganho de escala sem troca de fornecedor futuro",
			Complexity:    model.ComplexityMedium,
			TimelineWeeks: 16,
			MigrationPath: []string{"migração de cadastros", "integração fiscal", "treinamento"},
			EstimatedTime: "3 a 5 meses",
		},
		{
			Competitor:    "omie",
			Product:       "TOTVS Protheus",
			Rationale:     "Omie detectado: empresa provavelmente superando o escopo de um ERP de entrada",
			Confidence:    60,
			EstimatedROI:  "suporte a operação multi-filial e manufatura",
			Complexity:    model.ComplexityLow,
			TimelineWeeks: 10,
			MigrationPath: []string{"migração de cadastros", "treinamento"},
			EstimatedTime: "2 a 3 meses",
		},
		{
			Competitor:    "pipedrive",
			Product:       "TOTVS CRM",
			Rationale:     "CRM isolado detectado: integração nativa com o ERP elimina retrabalho comercial",
			Confidence:    55,
			EstimatedROI:  "visão única do cliente entre vendas e faturamento",
			Complexity:    model.ComplexityLow,
			TimelineWeeks: 6,
			MigrationPath: []string{"importação de pipeline", "integração com ERP"},
			EstimatedTime: "1 a 2 meses",
		},
	}
}

// SuggestFit evaluates the rule list against the stack and assembles the
// deal-size and decision-path estimates.
func (c *VendorFitCalculator) SuggestFit(bundle model.SignalBundle, maturity model.MaturityScores) *model.VendorFit {
	stack := make([]string, len(bundle.TechStack))
	for i, s := range bundle.TechStack {
		stack[i] = ptext.Fold(s)
	}

	var (
		recs       []model.FitRecommendation
		migration  *model.CompetitorMigration
		confidence float64
	)
	for _, rule := range c.rules {
		if !stackContains(stack, rule.Competitor) {
			continue
		}
		recs = append(recs, model.FitRecommendation{
			Product:       rule.Product,
			Rationale:     rule.Rationale,
			Confidence:    rule.Confidence,
			EstimatedROI:  rule.EstimatedROI,
			Complexity:    rule.Complexity,
			TimelineWeeks: rule.TimelineWeeks,
		})
		confidence += rule.Confidence
		if migration == nil {
			migration = &model.CompetitorMigration{
				From:          rule.Competitor,
				To:            rule.Product,
				MigrationPath: rule.MigrationPath,
				EstimatedTime: rule.EstimatedTime,
				Complexity:    rule.Complexity,
			}
		}
	}

	if len(recs) > 0 {
		confidence /= float64(len(recs))
	} else {
		confidence = 40
	}

	employees := model.Int(bundle.EmployeeCount, 0)
	return &model.VendorFit{
		CompanyID:           bundle.CompanyID,
		Vendor:              c.vendor,
		FitScore:            fitScore(len(recs), maturity),
		Confidence:          model.Clamp(confidence),
		Recommendations:     recs,
		CompetitorMigration: migration,
		EstimatedDealSize:   dealSize(employees, len(recs)),
		DecisionPath:        decisionPath(employees),
		CreatedAt:           time.Now().UTC(),
	}
}

func stackContains(stack []string, competitor string) bool {
	needle := ptext.Fold(competitor)
	for _, s := range stack {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

// fitScore blends trigger count with digital maturity: mature companies with
// displaced competitors are the strongest pitches.
func fitScore(recCount int, maturity model.MaturityScores) float64 {
	score := 30 + 20*float64(recCount) + maturity.Overall*0.2
	return model.Clamp(score)
}

// baseDealValue is the annual contract baseline in BRL for a small company
// with a single recommendation.
const baseDealValue = 60_000

func dealSize(employees, recCount int) model.DealSize {
	var sizeMult float64
	var basis string
	switch {
	case employees > 500:
		sizeMult = 3.0
		basis = "porte grande (>500 funcionários)"
	case employees >= 100:
		sizeMult = 2.0
		basis = "porte médio (100-500 funcionários)"
	default:
		sizeMult = 1.0
		basis = "porte pequeno (<100 funcionários)"
	}

	min := baseDealValue * sizeMult * (1 + 0.3*float64(recCount))
	return model.DealSize{
		Min:      min,
		Max:      min * 1.8,
		Currency: "BRL",
		Basis:    basis,
	}
}

func decisionPath(employees int) model.DecisionPath {
	switch {
	case employees > 500:
		return model.DecisionPath{
			PrimaryDecisionMaker: "CIO",
			BudgetApprover:       "CFO",
			Influencers:          []string{"Gerente de TI", "Controller", "Diretor de Operações"},
			EstimatedCycleDays:   180,
		}
	case employees >= 100:
		return model.DecisionPath{
			PrimaryDecisionMaker: "Diretor de TI",
			BudgetApprover:       "Diretor Financeiro",
			Influencers:          []string{"Gerente de TI", "Controller"},
			EstimatedCycleDays:   90,
		}
	default:
		return model.DecisionPath{
			PrimaryDecisionMaker: "Sócio-diretor",
			BudgetApprover:       "Sócio-diretor",
			Influencers:          []string{"Contador"},
			EstimatedCycleDays:   45,
		}
	}
}
