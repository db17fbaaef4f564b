package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/ptext"
)

// subFactor awards points per matched keyword up to a cap. Caps within one
// dimension sum to at most 100.
type subFactor struct {
	keywords []string
	perMatch float64
	cap      float64
}

func (f subFactor) score(stack []string) float64 {
	var pts float64
	for _, kw := range f.keywords {
		needle := ptext.Fold(kw)
		for _, s := range stack {
			if strings.Contains(s, needle) {
				pts += f.perMatch
				break
			}
		}
		if pts >= f.cap {
			return f.cap
		}
	}
	return pts
}

func sumSubFactors(stack []string, factors []subFactor) float64 {
	var total float64
	for _, f := range factors {
		total += f.score(stack)
	}
	return model.Clamp(total)
}

// MaturityCalculator derives the six digital-maturity dimensions from the
// detected technology stack. All dimension functions are pure.
type MaturityCalculator struct{}

func NewMaturityCalculator() *MaturityCalculator {
	return &MaturityCalculator{}
}

// Compute scores the bundle's stack across all six dimensions and the
// weighted overall.
func (m *MaturityCalculator) Compute(bundle model.SignalBundle) model.MaturityScores {
	stack := make([]string, len(bundle.TechStack))
	for i, s := range bundle.TechStack {
		stack[i] = ptext.Fold(s)
	}

	scores := model.MaturityScores{
		CompanyID:      bundle.CompanyID,
		Infrastructure: infrastructureScore(stack),
		Systems:        systemsScore(stack),
		Data:           dataScore(stack),
		Security:       securityScore(stack),
		Automation:     automationScore(stack),
		Culture:        cultureScore(stack, bundle),
		CreatedAt:      time.Now().UTC(),
	}

	var overall float64
	for name, value := range scores.Dimensions() {
		overall += value * model.MaturityWeights[name]
	}
	scores.Overall = model.Clamp(math.Round(overall))
	return scores
}

// infrastructure: cloud 40, CDN 20, containers 20, monitoring/devops 20.
func infrastructureScore(stack []string) float64 {
	return sumSubFactors(stack, []subFactor{
		{keywords: []string{"aws", "amazon web services", "azure", "google cloud", "gcp", "oracle cloud"}, perMatch: 40, cap: 40},
		{keywords: []string{"cloudflare", "akamai", "fastly", "cloudfront"}, perMatch: 20, cap: 20},
		{keywords: []string{"docker", "kubernetes", "container"}, perMatch: 20, cap: 20},
		{keywords: []string{"datadog", "grafana", "new relic", "prometheus", "jenkins", "gitlab", "github actions"}, perMatch: 10, cap: 20},
	})
}

// systems: ERP 40, CRM 30, commerce/integration 30.
func systemsScore(stack []string) float64 {
	return sumSubFactors(stack, []subFactor{
		{keywords: []string{"totvs", "protheus", "sap", "oracle erp", "sankhya", "omie", "senior"}, perMatch: 40, cap: 40},
		{keywords: []string{"salesforce", "pipedrive", "hubspot", "rd station crm", "zoho"}, perMatch: 30, cap: 30},
		{keywords: []string{"vtex", "shopify", "magento", "linx", "woocommerce"}, perMatch: 15, cap: 30},
	})
}

// data: analytics 40, databases 35, tagging/instrumentation 25.
func dataScore(stack []string) float64 {
	return sumSubFactors(stack, []subFactor{
		{keywords: []string{"google analytics", "power bi", "tableau", "looker", "metabase", "qlik"}, perMatch: 20, cap: 40},
		{keywords: []string{"postgres", "mysql", "sql server", "mongodb", "bigquery", "redshift", "snowflake"}, perMatch: 18, cap: 35},
		{keywords: []string{"tag manager", "segment", "amplitude", "mixpanel"}, perMatch: 13, cap: 25},
	})
}

// security: TLS 25, perimeter 25, identity 25, compliance 25.
func securityScore(stack []string) float64 {
	return sumSubFactors(stack, []subFactor{
		{keywords: []string{"ssl", "tls", "https", "lets encrypt"}, perMatch: 25, cap: 25},
		{keywords: []string{"waf", "firewall", "cloudflare"}, perMatch: 13, cap: 25},
		{keywords: []string{"okta", "sso", "auth0", "active directory"}, perMatch: 13, cap: 25},
		{keywords: []string{"lgpd", "compliance", "onetrust", "cookiebot"}, perMatch: 13, cap: 25},
	})
}

// automation: marketing 40, workflow/RPA 30, conversational 30.
func automationScore(stack []string) float64 {
	return sumSubFactors(stack, []subFactor{
		{keywords: []string{"rd station", "mailchimp", "hubspot", "activecampaign", "sendgrid"}, perMatch: 20, cap: 40},
		{keywords: []string{"zapier", "make.com", "n8n", "uipath", "automation anywhere", "rpa"}, perMatch: 15, cap: 30},
		{keywords: []string{"chatbot", "intercom", "zendesk", "jivochat", "blip"}, perMatch: 15, cap: 30},
	})
}

// culture: modern engineering stack 40, open collaboration 30, active tech
// hiring 30 (the only sub-factor fed by a non-stack signal).
func cultureScore(stack []string, bundle model.SignalBundle) float64 {
	score := sumSubFactors(stack, []subFactor{
		{keywords: []string{"react", "vue", "node", "python", "golang", "typescript", "flutter"}, perMatch: 10, cap: 40},
		{keywords: []string{"github", "gitlab", "open source", "bitbucket"}, perMatch: 15, cap: 30},
	})

	switch hiring := model.Int(bundle.HiringActivity, 0); {
	case hiring > 5:
		score += 30
	case hiring > 0:
		score += 15
	}
	return model.Clamp(score)
}
