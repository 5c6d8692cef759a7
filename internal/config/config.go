package config

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/richardawr/Options/pkg/models"
	"github.com/richardawr/Options/pkg/secrets"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Basket   BasketConfig   `mapstructure:"basket"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	GCP      GCPConfig      `mapstructure:"gcp"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type FeedConfig struct {
	URL            string `mapstructure:"url"`
	ReconnectDelay int    `mapstructure:"reconnect_delay"`
	MaxReconnects  int    `mapstructure:"max_reconnects"`

	// HMAC authentication
	AuthType  string `mapstructure:"auth_type"` // "hmac" or "jwt"
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`

	// JWT authentication
	APIKeyName    string `mapstructure:"api_key_name"`
	PrivateKeyPEM string `mapstructure:"private_key_pem"`
}

type LegConfig struct {
	Pair        string  `mapstructure:"pair"`
	Symbol      string  `mapstructure:"symbol"`
	Currency    string  `mapstructure:"currency"`
	Weight      float64 `mapstructure:"weight"`
	NotionalUSD float64 `mapstructure:"notional_usd"`
	DemoSpot    float64 `mapstructure:"demo_spot"`
}

type BasketConfig struct {
	Legs []LegConfig `mapstructure:"legs"`
	// BasePremiums is tenor -> pair -> premium in USD for the leg's notional.
	BasePremiums map[string]map[string]float64 `mapstructure:"base_premiums"`
	// TenorYears holds fixed time-to-expiry constants per tenor; the expiry
	// date strings are display metadata and never drive these values.
	TenorYears map[string]float64 `mapstructure:"tenor_years"`
	Expiries   map[string]string  `mapstructure:"expiries"`
}

type AnalysisConfig struct {
	RiskFreeRate     float64   `mapstructure:"risk_free_rate"`
	DisplayThreshold float64   `mapstructure:"display_threshold"`
	TradeThreshold   float64   `mapstructure:"trade_threshold"`
	MoneynessGrid    []float64 `mapstructure:"moneyness_grid"`
	Scenarios        []string  `mapstructure:"scenarios"`
	IntervalSeconds  int       `mapstructure:"interval_seconds"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GCPConfig struct {
	ProjectID   string              `mapstructure:"project_id"`
	UseSecrets  bool                `mapstructure:"use_secrets"`
	SecretNames secrets.SecretNames `mapstructure:"secret_names"`
}

func Load(configPath string) (*Config, error) {
	// A local .env is optional; missing is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/arb-scanner")
	}

	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if len(config.Basket.Legs) == 0 {
		config.Basket.Legs = defaultLegs()
	}
	if len(config.Basket.BasePremiums) == 0 {
		config.Basket.BasePremiums = defaultBasePremiums()
	}

	overrideFromEnv(&config)

	if config.GCP.UseSecrets && config.GCP.ProjectID != "" {
		ctx := context.Background()
		logger := logrus.New()
		if err := loadSecretsFromGCP(ctx, &config, logger); err != nil {
			return nil, fmt.Errorf("error loading secrets from GCP: %w", err)
		}
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)

	// Feed defaults
	v.SetDefault("feed.url", "wss://md-gateway.example.com/stream")
	v.SetDefault("feed.auth_type", "hmac")
	v.SetDefault("feed.reconnect_delay", 5)
	v.SetDefault("feed.max_reconnects", 10)

	// Basket defaults: fixed per-tenor expiry constants, not calendar-derived
	v.SetDefault("basket.tenor_years", map[string]float64{
		"weekly":  0.02,
		"monthly": 0.08,
	})
	v.SetDefault("basket.expiries", map[string]string{
		"weekly":  "20241115",
		"monthly": "20241129",
	})

	// Analysis defaults
	v.SetDefault("analysis.risk_free_rate", 0.02)
	v.SetDefault("analysis.display_threshold", 0.005)
	v.SetDefault("analysis.trade_threshold", 0.01)
	v.SetDefault("analysis.moneyness_grid", []float64{-0.03, -0.01, 0.0, 0.01, 0.03})
	v.SetDefault("analysis.scenarios", []string{"normal", "mispriced", "efficient"})
	v.SetDefault("analysis.interval_seconds", 60)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// GCP defaults
	v.SetDefault("gcp.use_secrets", false)
	v.SetDefault("gcp.project_id", "")

	secretNames := secrets.DefaultSecretNames()
	v.SetDefault("gcp.secret_names.feed_api_key", secretNames.FeedAPIKey)
	v.SetDefault("gcp.secret_names.feed_api_secret", secretNames.FeedAPISecret)
	v.SetDefault("gcp.secret_names.feed_api_key_name", secretNames.FeedAPIKeyName)
	v.SetDefault("gcp.secret_names.feed_private_key", secretNames.FeedPrivateKey)
}

func defaultLegs() []LegConfig {
	return []LegConfig{
		{Pair: "EURUSD", Symbol: "EUR", Currency: "USD", Weight: 0.4, NotionalUSD: 400000, DemoSpot: 1.0850},
		{Pair: "GBPUSD", Symbol: "GBP", Currency: "USD", Weight: 0.3, NotionalUSD: 300000, DemoSpot: 1.2400},
		{Pair: "USDJPY", Symbol: "USD", Currency: "JPY", Weight: 0.3, NotionalUSD: 300000, DemoSpot: 154.16},
	}
}

func defaultBasePremiums() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"weekly": {
			"EURUSD": 2000,
			"GBPUSD": 1800,
			"USDJPY": 2500,
		},
		"monthly": {
			"EURUSD": 4500,
			"GBPUSD": 4000,
			"USDJPY": 5500,
		},
	}
}

func overrideFromEnv(config *Config) {
	// Feed credentials from environment
	if apiKey := os.Getenv("FEED_API_KEY"); apiKey != "" {
		config.Feed.APIKey = apiKey
	}
	if apiSecret := os.Getenv("FEED_API_SECRET"); apiSecret != "" {
		config.Feed.APISecret = apiSecret
	}
	if authType := os.Getenv("FEED_AUTH_TYPE"); authType != "" {
		config.Feed.AuthType = authType
	}
	if apiKeyName := os.Getenv("FEED_API_KEY_NAME"); apiKeyName != "" {
		config.Feed.APIKeyName = apiKeyName
	}
	if privateKey := os.Getenv("FEED_PRIVATE_KEY"); privateKey != "" {
		config.Feed.PrivateKeyPEM = privateKey
	}

	// GCP configuration from environment
	if projectID := os.Getenv("GCP_PROJECT_ID"); projectID != "" {
		config.GCP.ProjectID = projectID
	}
	if useSecrets := os.Getenv("GCP_USE_SECRETS"); useSecrets == "true" {
		config.GCP.UseSecrets = true
	}
}

func loadSecretsFromGCP(ctx context.Context, config *Config, logger *logrus.Logger) error {
	secretManager, err := secrets.NewGCPSecretManager(ctx, config.GCP.ProjectID, logger)
	if err != nil {
		return fmt.Errorf("failed to create secret manager: %w", err)
	}
	defer secretManager.Close()

	// Only load secrets that are not already set
	if config.Feed.APIKey == "" {
		config.Feed.APIKey = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.FeedAPIKey, "")
	}
	if config.Feed.APISecret == "" {
		config.Feed.APISecret = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.FeedAPISecret, "")
	}
	if config.Feed.APIKeyName == "" {
		config.Feed.APIKeyName = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.FeedAPIKeyName, "")
	}
	if config.Feed.PrivateKeyPEM == "" {
		config.Feed.PrivateKeyPEM = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.FeedPrivateKey, "")
	}

	logger.Info("Successfully loaded secrets from GCP Secret Manager")
	return nil
}

// Legs converts the configured legs into the basket's reference data.
func (c *Config) Legs() []models.Leg {
	legs := make([]models.Leg, len(c.Basket.Legs))
	for i, l := range c.Basket.Legs {
		legs[i] = models.Leg{
			Pair:        l.Pair,
			Symbol:      l.Symbol,
			Currency:    l.Currency,
			Weight:      l.Weight,
			NotionalUSD: l.NotionalUSD,
			DemoSpot:    l.DemoSpot,
		}
	}
	return legs
}

// Tenors returns the configured expiry buckets, shortest first so reports
// read near-to-far.
func (c *Config) Tenors() []models.Tenor {
	names := make([]string, 0, len(c.Basket.TenorYears))
	for name := range c.Basket.TenorYears {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return c.Basket.TenorYears[names[i]] < c.Basket.TenorYears[names[j]]
	})

	tenors := make([]models.Tenor, len(names))
	for i, name := range names {
		tenors[i] = models.Tenor{
			Name:   name,
			Years:  c.Basket.TenorYears[name],
			Expiry: c.Basket.Expiries[name],
		}
	}
	return tenors
}
