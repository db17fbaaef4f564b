package scoring

// PropensityWeights are the 11 per-factor weights of an offer. They must sum
// to 1.0; ValidateOfferCatalog enforces this at load time.
type PropensityWeights struct {
	ICPScore        float64 `yaml:"icp_score"`
	Maturity        float64 `yaml:"maturity"`
	TechStack       float64 `yaml:"tech_stack"`
	RecentSignals   float64 `yaml:"recent_signals"`
	SignalIntensity float64 `yaml:"signal_intensity"`
	DigitalPresence float64 `yaml:"digital_presence"`
	CompanyAge      float64 `yaml:"company_age"`
	CapitalGrowth   float64 `yaml:"capital_growth"`
	NewsSentiment   float64 `yaml:"news_sentiment"`
	HiringActivity  float64 `yaml:"hiring_activity"`
	WebsiteChanges  float64 `yaml:"website_changes"`
}

// Sum returns the total of the propensity weights.
func (w PropensityWeights) Sum() float64 {
	return w.ICPScore + w.Maturity + w.TechStack + w.RecentSignals +
		w.SignalIntensity + w.DigitalPresence + w.CompanyAge +
		w.CapitalGrowth + w.NewsSentiment + w.HiringActivity + w.WebsiteChanges
}

// OfferConfig declares one sellable offer and its scoring profile.
type OfferConfig struct {
	ID                 string            `yaml:"id"`
	Name               string            `yaml:"name"`
	AllowedVerticals   []string          `yaml:"allowed_verticals"`
	MinICPScore        float64           `yaml:"min_icp_score"`
	IdealTimeframeDays int               `yaml:"ideal_timeframe_days"`
	Weights            PropensityWeights `yaml:"weights"`
}

// defaultPropensityWeights is the standard 11-factor profile shared by the
// built-in offers.
func defaultPropensityWeights() PropensityWeights {
	return PropensityWeights{
		ICPScore:        0.30,
		Maturity:        0.18,
		TechStack:       0.15,
		RecentSignals:   0.12,
		SignalIntensity: 0.10,
		DigitalPresence: 0.04,
		CompanyAge:      0.02,
		CapitalGrowth:   0.03,
		NewsSentiment:   0.02,
		HiringActivity:  0.02,
		WebsiteChanges:  0.02,
	}
}

// DefaultOfferCatalog returns the built-in offer catalog keyed by offer id.
func DefaultOfferCatalog() map[string]OfferConfig {
	offers := []OfferConfig{
		{
			ID:                 "TOTVS_Protheus",
			Name:               "TOTVS Protheus",
			AllowedVerticals:   []string{"Manufatura", "Distribuicao", "Agronegocio", "Servicos"},
			MinICPScore:        70,
			IdealTimeframeDays: 60,
			Weights:            defaultPropensityWeights(),
		},
		{
			ID:                 "TOTVS_Manufatura",
			Name:               "TOTVS Manufatura",
			AllowedVerticals:   []string{"Manufatura"},
			MinICPScore:        80,
			IdealTimeframeDays: 90,
			Weights:            defaultPropensityWeights(),
		},
		{
			ID:                 "TOTVS_Varejo",
			Name:               "TOTVS Varejo",
			AllowedVerticals:   []string{"Varejo", "Distribuicao"},
			MinICPScore:        65,
			IdealTimeframeDays: 45,
			Weights:            defaultPropensityWeights(),
		},
		{
			ID:                 "TOTVS_RH",
			Name:               "TOTVS RH",
			AllowedVerticals:   []string{"Manufatura", "Varejo", "Servicos", "Saude", "Distribuicao"},
			MinICPScore:        55,
			IdealTimeframeDays: 40,
			Weights:            defaultPropensityWeights(),
		},
	}

	catalog := make(map[string]OfferConfig, len(offers))
	for _, o := range offers {
		catalog[o.ID] = o
	}
	return catalog
}
