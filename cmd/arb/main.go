package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/richardawr/Options/api"
	"github.com/richardawr/Options/internal/config"
	"github.com/richardawr/Options/pkg/analyzer"
	"github.com/richardawr/Options/pkg/feed"
	"github.com/richardawr/Options/pkg/pricing"
	"github.com/richardawr/Options/pkg/scanner"
)

var (
	cfgFile string
	logger  *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "arb",
		Short: "FX basket options arbitrage scanner",
		Long:  `Detects mispricing between individual FX vanilla options and a closed-form geometric basket valuation across moneyness scenarios`,
		Run:   runScanner,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "One-shot walkthrough of the geometric formula across the moneyness grid",
		Run:   runDemo,
	}
	rootCmd.AddCommand(demoCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) {
	logger = logrus.New()
	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.WithError(err).Error("Invalid log level, using INFO")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func runScanner(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	setupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := pricing.NewModel(cfg.Analysis.RiskFreeRate)
	legs := cfg.Legs()
	tenors := cfg.Tenors()

	sources, spots := buildSources(ctx, cfg)

	arbScanner := scanner.New(scanner.Config{
		Legs:             legs,
		Tenors:           tenors,
		MoneynessGrid:    cfg.Analysis.MoneynessGrid,
		DisplayThreshold: cfg.Analysis.DisplayThreshold,
		TradeThreshold:   cfg.Analysis.TradeThreshold,
		Interval:         time.Duration(cfg.Analysis.IntervalSeconds) * time.Second,
	}, sources, model, logger)

	if err := arbScanner.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start arbitrage scanner")
	}

	apiServer := api.NewServer(arbScanner, spots, logger, fmt.Sprintf("%d", cfg.Server.Port))
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start API server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Arbitrage scanner is running. Press Ctrl+C to stop.")

	<-sigChan
	logger.Info("Received shutdown signal")

	arbScanner.Stop()
	cancel()

	logger.Info("Arbitrage scanner stopped")
}

// buildSources wires the live feed when credentials are configured, plus one
// simulated source per configured scenario. When the feed cannot connect the
// scanner carries on with simulated data only, matching the demo fallback of
// the connectivity layer. The second return value exposes live spots to the
// API when the feed is up.
func buildSources(ctx context.Context, cfg *config.Config) ([]scanner.NamedSource, api.SpotProvider) {
	sources := make([]scanner.NamedSource, 0)
	var spots api.SpotProvider

	if feedConfigured(cfg) {
		auth, err := feed.NewAuthenticator(
			feed.AuthType(cfg.Feed.AuthType),
			cfg.Feed.APIKey, cfg.Feed.APISecret,
			cfg.Feed.APIKeyName, cfg.Feed.PrivateKeyPEM)
		if err != nil {
			logger.WithError(err).Warn("Invalid feed auth configuration, running on simulated premiums")
		} else {
			stream := feed.NewStream(feed.Options{
				URL:            cfg.Feed.URL,
				Auth:           auth,
				ReconnectDelay: time.Duration(cfg.Feed.ReconnectDelay) * time.Second,
				MaxReconnects:  cfg.Feed.MaxReconnects,
				BasePremiums:   cfg.Basket.BasePremiums,
			}, logger)

			if err := stream.Connect(ctx); err != nil {
				logger.WithError(err).Warn("Market-data feed unavailable, running on simulated premiums")
			} else {
				pairs := make([]string, 0, len(cfg.Basket.Legs))
				for _, leg := range cfg.Basket.Legs {
					pairs = append(pairs, leg.Pair)
				}
				tenorNames := make([]string, 0, len(cfg.Basket.TenorYears))
				for name := range cfg.Basket.TenorYears {
					tenorNames = append(tenorNames, name)
				}
				if err := stream.Subscribe(ctx, []string{"spot", "premium"}, pairs, tenorNames); err != nil {
					logger.WithError(err).Warn("Feed subscription failed, running on simulated premiums")
					stream.Close()
				} else {
					sources = append(sources, scanner.NamedSource{Name: "live", Source: stream})
					spots = stream
				}
			}
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for _, name := range cfg.Analysis.Scenarios {
		sources = append(sources, scanner.NamedSource{
			Name: name,
			Source: &scanner.SimulatedSource{
				Kind:         analyzer.ScenarioKind(name),
				BasePremiums: cfg.Basket.BasePremiums,
				Noise:        rng,
			},
		})
	}

	return sources, spots
}

// feedConfigured reports whether either credential set is present: an HMAC
// key or a JWT key name.
func feedConfigured(cfg *config.Config) bool {
	return cfg.Feed.APIKey != "" || cfg.Feed.APIKeyName != ""
}

// runDemo prints one mispriced-scenario sweep in detail, showing the
// geometric formula's inputs and outputs at each moneyness level.
func runDemo(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	setupLogger(cfg)

	model := pricing.NewModel(cfg.Analysis.RiskFreeRate)
	legs := cfg.Legs()
	tenors := cfg.Tenors()
	if len(tenors) == 0 {
		logger.Fatal("No tenors configured")
	}
	// Use the longest tenor so the discount term is visible.
	tenor := tenors[len(tenors)-1]

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	premiums, details, err := analyzer.SimulatePremiums(
		legs, cfg.Basket.BasePremiums[tenor.Name], analyzer.ScenarioMispriced, rng)
	if err != nil {
		logger.WithError(err).Fatal("Failed to simulate premiums")
	}

	var totalPremium float64
	for _, detail := range details {
		totalPremium += detail.Premium
		logger.WithFields(logrus.Fields{
			"pair":    detail.Pair,
			"premium": detail.Premium,
			"noise":   detail.Noise,
		}).Info("Simulated option premium")
	}

	for _, offset := range []float64{-0.05, -0.02, 0.0, 0.02, 0.05} {
		params := analyzer.NormalizeToBasis(premiums, offset)
		theoretical := model.BasketCallValue(params.P, params.K, tenor.Years)
		theoreticalUSD := theoretical / params.ScaleFactor

		edge := 0.0
		if theoreticalUSD > 0 {
			edge = (totalPremium - theoreticalUSD) / theoreticalUSD
		}

		entry := logger.WithFields(logrus.Fields{
			"moneyness":       analyzer.MoneynessLabel(offset),
			"P":               params.P,
			"K":               params.K,
			"T":               tenor.Years,
			"log_moneyness":   math.Log(params.P / params.K),
			"theoretical_usd": theoreticalUSD,
			"edge":            edge,
		})

		if math.Abs(edge) > cfg.Analysis.TradeThreshold {
			entry.Info("Tradeable opportunity")
		} else {
			entry.Info("Geometric formula evaluation")
		}
	}
}
