package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/richardawr/Options/pkg/analyzer"
	"github.com/richardawr/Options/pkg/models"
	"github.com/richardawr/Options/pkg/pricing"
)

// Config carries the sweep parameters for every round.
type Config struct {
	Legs             []models.Leg
	Tenors           []models.Tenor
	MoneynessGrid    []float64
	DisplayThreshold float64
	TradeThreshold   float64
	Interval         time.Duration
}

// Scanner drives the analysis loop: every interval it takes a premium
// snapshot from each source, evaluates the moneyness sweep for each tenor,
// and keeps the latest results for the API. One sweep runs at a time;
// cancellation is at round granularity.
type Scanner struct {
	cfg     Config
	sources []NamedSource
	model   *pricing.Model
	logger  *logrus.Logger

	mu            sync.RWMutex
	latest        []models.ArbitrageResult
	rounds        int
	opportunities int

	stopCh chan struct{}
}

func New(cfg Config, sources []NamedSource, model *pricing.Model, logger *logrus.Logger) *Scanner {
	return &Scanner{
		cfg:     cfg,
		sources: sources,
		model:   model,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

func (s *Scanner) Start(ctx context.Context) error {
	s.logger.WithField("interval", s.cfg.Interval.String()).Info("Starting arbitrage scanner")
	go s.run(ctx)
	return nil
}

func (s *Scanner) Stop() {
	s.logger.Info("Stopping arbitrage scanner")
	close(s.stopCh)
}

func (s *Scanner) run(ctx context.Context) {
	// First round immediately, then on the ticker.
	s.RunRound(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunRound(ctx)
		}
	}
}

// RunRound executes one full sweep across all sources and tenors. Errors from
// a single source are logged and skipped; the round carries on, because a bad
// snapshot is "no opportunity", not a fault worth halting the loop for.
func (s *Scanner) RunRound(ctx context.Context) {
	round := make([]models.ArbitrageResult, 0)
	opportunities := 0

	for _, src := range s.sources {
		premiumsByTenor := make(map[string][]float64, len(s.cfg.Tenors))
		for _, tenor := range s.cfg.Tenors {
			observations, err := src.Source.Snapshot(ctx, s.cfg.Legs, tenor.Name)
			if err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"source": src.Name,
					"tenor":  tenor.Name,
				}).Error("Failed to snapshot premiums")
				continue
			}
			premiums := make([]float64, len(observations))
			for i, obs := range observations {
				premiums[i] = obs.Premium
			}
			premiumsByTenor[tenor.Name] = premiums
		}

		outcome, err := analyzer.EvaluateRound(analyzer.RoundInput{
			Legs:             s.cfg.Legs,
			Scenario:         src.Name,
			PremiumsByTenor:  premiumsByTenor,
			Tenors:           s.cfg.Tenors,
			MoneynessGrid:    s.cfg.MoneynessGrid,
			DisplayThreshold: s.cfg.DisplayThreshold,
			TradeThreshold:   s.cfg.TradeThreshold,
		}, s.model)
		if err != nil {
			s.logger.WithError(err).WithField("source", src.Name).Error("Round evaluation failed")
			continue
		}

		for _, result := range outcome.Results {
			resultsTotal.WithLabelValues(result.Scenario, result.Tenor).Inc()

			entry := s.logger.WithFields(logrus.Fields{
				"scenario":    result.Scenario,
				"tenor":       result.Tenor,
				"moneyness":   result.MoneynessLabel,
				"edge":        result.Edge,
				"market_usd":  result.MarketUSD,
				"theoretical": result.TheoreticalUSD,
			})

			if result.Tradeable() {
				opportunitiesTotal.WithLabelValues(result.Scenario, result.Tenor).Inc()
				entry.WithFields(logrus.Fields{
					"direction":  result.Direction,
					"profit_usd": result.ProfitUSD,
				}).Info("Tradeable arbitrage opportunity")
			} else {
				entry.Debug("Edge above display threshold")
			}
		}

		round = append(round, outcome.Results...)
		opportunities += outcome.Opportunities
	}

	roundsTotal.Inc()

	s.mu.Lock()
	s.latest = round
	s.rounds++
	s.opportunities += opportunities
	s.mu.Unlock()

	if opportunities == 0 {
		s.logger.Debug("No significant arbitrage opportunities detected")
	}
}

// LatestResults returns a copy of the most recent round's results.
func (s *Scanner) LatestResults() []models.ArbitrageResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ArbitrageResult, len(s.latest))
	copy(out, s.latest)
	return out
}

// LatestOpportunities returns the tradeable subset of the most recent round.
func (s *Scanner) LatestOpportunities() []models.ArbitrageResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ArbitrageResult, 0)
	for _, r := range s.latest {
		if r.Tradeable() {
			out = append(out, r)
		}
	}
	return out
}

// Rounds reports how many rounds have completed since start.
func (s *Scanner) Rounds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rounds
}

// Opportunities reports the running count of tradeable results since start.
func (s *Scanner) Opportunities() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opportunities
}

// Legs exposes the basket's reference data for the API.
func (s *Scanner) Legs() []models.Leg {
	return s.cfg.Legs
}
