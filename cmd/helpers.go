package main

import (
	"context"
	"os"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/alerting"
	"github.com/sells-group/prospect-cli/internal/cadence"
	"github.com/sells-group/prospect-cli/internal/crm"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/internal/scoring"
	"github.com/sells-group/prospect-cli/internal/search"
	"github.com/sells-group/prospect-cli/internal/store"
	"github.com/sells-group/prospect-cli/pkg/brave"
	"github.com/sells-group/prospect-cli/pkg/cnpj"
	"github.com/sells-group/prospect-cli/pkg/jina"
	"github.com/sells-group/prospect-cli/pkg/serper"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "prospect.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// buildSearch assembles the provider fallback chain from the configured
// keys. Providers without a key are left out of the chain.
func buildSearch(st store.Store) *search.Resilient {
	var providers []search.Provider
	if cfg.Search.SerperKey != "" {
		providers = append(providers, search.NewSerperProvider(serper.NewClient(cfg.Search.SerperKey)))
	}
	if cfg.Search.BraveKey != "" {
		providers = append(providers, search.NewBraveProvider(brave.NewClient(cfg.Search.BraveKey)))
	}
	if cfg.Search.JinaKey != "" {
		providers = append(providers, search.NewJinaProvider(jina.NewClient(cfg.Search.JinaKey)))
	}
	if len(providers) == 0 {
		zap.L().Warn("no search provider keys configured, web enrichment disabled")
		return nil
	}

	return search.NewResilient(providers, search.ResilientConfig{
		PerCallTimeout: time.Duration(cfg.Search.TimeoutSecs) * time.Second,
		RatePerSecond:  cfg.Search.RatePerSecond,
	}, st)
}

func buildRegistry() *search.RegistryLookup {
	if !cfg.Registry.Enabled {
		return nil
	}
	var opts []cnpj.Option
	if cfg.Registry.BaseURL != "" {
		opts = append(opts, cnpj.WithBaseURL(cfg.Registry.BaseURL))
	}
	breakers := resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.Search.FailureThreshold,
		Timeout:          time.Duration(cfg.Search.BreakerTimeoutS) * time.Second,
	})
	return search.NewRegistryLookup(cnpj.NewClient(opts...), breakers)
}

func buildPipeline(st store.Store) *pipeline.Pipeline {
	templates := cadence.DefaultTemplates()
	if cfg.Cadence.TemplatesPath != "" {
		loaded, err := cadence.LoadTemplates(cfg.Cadence.TemplatesPath)
		if err != nil {
			zap.L().Warn("loading cadence templates failed, using defaults",
				zap.String("path", cfg.Cadence.TemplatesPath),
				zap.Error(err),
			)
		} else {
			templates = loaded
		}
	}

	return pipeline.New(
		st,
		buildSearch(st),
		buildRegistry(),
		scoring.NewICPClassifier(scoring.DefaultVerticalCatalog()),
		scoring.NewPropensityScorer(scoring.DefaultOfferCatalog()),
		scoring.NewMaturityCalculator(),
		scoring.NewVendorFitCalculator(cfg.Scoring.Vendor, scoring.DefaultTOTVSRules()),
		cadence.NewManager(templates),
	)
}

// buildAlertChannels returns the delivery channels the config enables.
func buildAlertChannels() []alerting.Channel {
	var channels []alerting.Channel
	if cfg.Alerting.SlackWebhookURL != "" {
		channels = append(channels, alerting.NewSlackChannel(cfg.Alerting.SlackWebhookURL))
	}
	if cfg.Alerting.WebhookURL != "" {
		channels = append(channels, alerting.NewWebhookChannel(cfg.Alerting.WebhookURL))
	}
	if cfg.Alerting.SMTPHost != "" && len(cfg.Alerting.EmailTo) > 0 {
		channels = append(channels, alerting.NewEmailChannel(
			cfg.Alerting.SMTPHost,
			cfg.Alerting.SMTPPort,
			cfg.Alerting.SMTPUsername,
			cfg.Alerting.SMTPPassword,
			cfg.Alerting.EmailFrom,
			cfg.Alerting.EmailTo,
		))
	}
	return channels
}

func initSalesforce() (crm.Salesforce, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (PROSPECT_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return crm.NewSalesforce(sf, crm.WithRateLimit(cfg.Salesforce.RateRPS)), nil
}
