// Package scoring implements the four deterministic scorers of the decision
// pipeline: ICP classification, propensity, maturity, and vendor fit. Every
// scorer is a pure function over a request-scoped signal bundle; catalogs are
// injected so tests can substitute fixed configurations.
package scoring

// FactorWeights are the per-factor weights of one vertical config. They must
// sum to 1.0.
type FactorWeights struct {
	Porte           float64 `yaml:"porte"`
	Capital         float64 `yaml:"capital"`
	TechStack       float64 `yaml:"tech_stack"`
	Maturity        float64 `yaml:"maturity"`
	DigitalPresence float64 `yaml:"digital_presence"`
}

// CapitalRange is the ideal capital-social band in BRL.
type CapitalRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// VerticalConfig declares the ideal-customer profile of one vertical.
type VerticalConfig struct {
	Name        string        `yaml:"name"`
	SubVertical string        `yaml:"sub_vertical,omitempty"`
	Portes      []string      `yaml:"portes"`  // ideal size brackets
	Capital     CapitalRange  `yaml:"capital"` // ideal capital band
	Keywords    []string      `yaml:"keywords"`
	MinMaturity float64       `yaml:"min_maturity"`
	MinDigital  float64       `yaml:"min_digital"`
	Weights     FactorWeights `yaml:"weights"`
}

// FallbackVertical is assigned when no catalog entry scores above zero.
const FallbackVertical = "Outros"

// DefaultVerticalCatalog returns the built-in vertical catalog. Order
// matters: on an exact score tie the earlier entry wins.
func DefaultVerticalCatalog() []VerticalConfig {
	return []VerticalConfig{
		{
			Name:        "Manufatura",
			Portes:      []string{"MEDIA", "GRANDE"},
			Capital:     CapitalRange{Min: 500_000, Max: 50_000_000},
			Keywords:    []string{"erp", "sap", "totvs", "protheus", "mes", "plm", "scada", "wms"},
			MinMaturity: 50,
			MinDigital:  40,
			Weights:     FactorWeights{Porte: 0.25, Capital: 0.20, TechStack: 0.25, Maturity: 0.15, DigitalPresence: 0.15},
		},
		{
			Name:        "Distribuicao",
			Portes:      []string{"EPP", "MEDIA", "GRANDE"},
			Capital:     CapitalRange{Min: 300_000, Max: 20_000_000},
			Keywords:    []string{"wms", "tms", "erp", "totvs", "sankhya", "logistica", "roteirizacao"},
			MinMaturity: 45,
			MinDigital:  40,
			Weights:     FactorWeights{Porte: 0.20, Capital: 0.20, TechStack: 0.30, Maturity: 0.15, DigitalPresence: 0.15},
		},
		{
			Name:        "Varejo",
			Portes:      []string{"ME", "EPP", "MEDIA"},
			Capital:     CapitalRange{Min: 100_000, Max: 10_000_000},
			Keywords:    []string{"vtex", "shopify", "magento", "pdv", "ecommerce", "marketplace", "linx"},
			MinMaturity: 40,
			MinDigital:  60,
			Weights:     FactorWeights{Porte: 0.15, Capital: 0.15, TechStack: 0.30, Maturity: 0.15, DigitalPresence: 0.25},
		},
		{
			Name:        "Servicos",
			Portes:      []string{"ME", "EPP", "MEDIA"},
			Capital:     CapitalRange{Min: 50_000, Max: 5_000_000},
			Keywords:    []string{"crm", "salesforce", "pipedrive", "hubspot", "rd station", "agendamento"},
			MinMaturity: 40,
			MinDigital:  50,
			Weights:     FactorWeights{Porte: 0.20, Capital: 0.15, TechStack: 0.25, Maturity: 0.20, DigitalPresence: 0.20},
		},
		{
			Name:        "Agronegocio",
			Portes:      []string{"MEDIA", "GRANDE"},
			Capital:     CapitalRange{Min: 1_000_000, Max: 100_000_000},
			Keywords:    []string{"agro", "erp", "totvs", "telemetria", "rastreabilidade", "cooperativa"},
			MinMaturity: 35,
			MinDigital:  30,
			Weights:     FactorWeights{Porte: 0.30, Capital: 0.25, TechStack: 0.20, Maturity: 0.15, DigitalPresence: 0.10},
		},
		{
			Name:        "Saude",
			Portes:      []string{"EPP", "MEDIA", "GRANDE"},
			Capital:     CapitalRange{Min: 200_000, Max: 30_000_000},
			Keywords:    []string{"prontuario", "tasy", "his", "telemedicina", "faturamento tiss", "erp"},
			MinMaturity: 50,
			MinDigital:  45,
			Weights:     FactorWeights{Porte: 0.20, Capital: 0.20, TechStack: 0.25, Maturity: 0.20, DigitalPresence: 0.15},
		},
	}
}

// Sum returns the total of the factor weights, used to validate catalogs.
func (w FactorWeights) Sum() float64 {
	return w.Porte + w.Capital + w.TechStack + w.Maturity + w.DigitalPresence
}
