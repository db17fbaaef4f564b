// Package config loads application configuration from config.yaml and the
// PROSPECT_-prefixed environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/prospect-cli/internal/cadence"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Registry   RegistryConfig   `yaml:"registry" mapstructure:"registry"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Cadence    CadenceConfig    `yaml:"cadence" mapstructure:"cadence"`
	Alerting   AlertingConfig   `yaml:"alerting" mapstructure:"alerting"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite file
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SearchConfig holds the provider keys and fallback tuning of the search
// chain. Providers without a key are skipped in the chain.
type SearchConfig struct {
	SerperKey        string  `yaml:"serper_key" mapstructure:"serper_key"`
	BraveKey         string  `yaml:"brave_key" mapstructure:"brave_key"`
	JinaKey          string  `yaml:"jina_key" mapstructure:"jina_key"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSecond    float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	BreakerTimeoutS  int     `yaml:"breaker_timeout_secs" mapstructure:"breaker_timeout_secs"`
}

// RegistryConfig configures the CNPJ registry lookup.
type RegistryConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
}

// ScoringConfig names the vendor perspective and the fallback offer.
type ScoringConfig struct {
	Vendor       string `yaml:"vendor" mapstructure:"vendor"`
	DefaultOffer string `yaml:"default_offer" mapstructure:"default_offer"`
}

// CadenceConfig configures outreach cadence selection.
type CadenceConfig struct {
	TemplatesPath  string `yaml:"templates_path" mapstructure:"templates_path"`
	DefaultPersona string `yaml:"default_persona" mapstructure:"default_persona"`
}

// AlertingConfig configures the background sweep and delivery channels.
type AlertingConfig struct {
	SweepIntervalSecs int      `yaml:"sweep_interval_secs" mapstructure:"sweep_interval_secs"`
	SlackWebhookURL   string   `yaml:"slack_webhook_url" mapstructure:"slack_webhook_url"`
	WebhookURL        string   `yaml:"webhook_url" mapstructure:"webhook_url"`
	SMTPHost          string   `yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort          int      `yaml:"smtp_port" mapstructure:"smtp_port"`
	SMTPUsername      string   `yaml:"smtp_username" mapstructure:"smtp_username"`
	SMTPPassword      string   `yaml:"smtp_password" mapstructure:"smtp_password"`
	EmailFrom         string   `yaml:"email_from" mapstructure:"email_from"`
	EmailTo           []string `yaml:"email_to" mapstructure:"email_to"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID string  `yaml:"client_id" mapstructure:"client_id"`
	Username string  `yaml:"username" mapstructure:"username"`
	KeyPath  string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string  `yaml:"login_url" mapstructure:"login_url"`
	RateRPS  float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
}

// NotionConfig holds the Notion integration token and target database.
type NotionConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	ProspectDB string `yaml:"prospect_db" mapstructure:"prospect_db"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PROSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "prospect.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("search.timeout_secs", 8)
	v.SetDefault("search.failure_threshold", 5)
	v.SetDefault("search.breaker_timeout_secs", 60)
	v.SetDefault("registry.enabled", true)
	v.SetDefault("scoring.vendor", "TOTVS")
	v.SetDefault("scoring.default_offer", "TOTVS_Protheus")
	v.SetDefault("cadence.default_persona", cadence.DefaultPersona)
	v.SetDefault("alerting.sweep_interval_secs", 300)
	v.SetDefault("alerting.smtp_port", 587)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_rps", 5)

	// AutomaticEnv only covers keys viper has already seen. Keys with no
	// default must be bound explicitly or their PROSPECT_* variables are
	// ignored by Unmarshal.
	for _, key := range []string{
		"store.database_url", "store.max_conns", "store.min_conns",
		"search.serper_key", "search.brave_key", "search.jina_key", "search.rate_per_second",
		"registry.base_url",
		"cadence.templates_path",
		"alerting.slack_webhook_url", "alerting.webhook_url",
		"alerting.smtp_host", "alerting.smtp_username", "alerting.smtp_password",
		"alerting.email_from", "alerting.email_to",
		"salesforce.client_id", "salesforce.username", "salesforce.key_path",
		"notion.token", "notion.prospect_db",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration carries everything the given
// command mode needs. Problems are accumulated so the operator sees all
// missing settings at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "analyze", "import":
		if c.Search.RatePerSecond < 0 {
			problems = append(problems, "search.rate_per_second must be >= 0")
		}
	case "export":
		sfConfigured := c.Salesforce.ClientID != "" && c.Salesforce.Username != "" && c.Salesforce.KeyPath != ""
		notionConfigured := c.Notion.Token != "" && c.Notion.ProspectDB != ""
		if !sfConfigured && !notionConfigured {
			problems = append(problems, "export requires salesforce credentials (client_id, username, key_path) or notion settings (token, prospect_db)")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Alerting.SweepIntervalSecs <= 0 {
			problems = append(problems, "alerting.sweep_interval_secs must be > 0")
		}
	case "alerts":
		if c.Alerting.SweepIntervalSecs <= 0 {
			problems = append(problems, "alerting.sweep_interval_secs must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
