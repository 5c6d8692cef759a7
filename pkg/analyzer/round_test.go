package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardawr/Options/pkg/models"
	"github.com/richardawr/Options/pkg/pricing"
)

func weeklyTenor() models.Tenor {
	return models.Tenor{Name: "weekly", Years: 0.02, Expiry: "20241115"}
}

func TestEvaluateRound_ATMDegenerateProducesNoSignal(t *testing.T) {
	model := pricing.NewModel(pricing.DefaultRiskFreeRate)

	// At zero moneyness the theoretical value is exactly zero, so the sweep
	// must report nothing rather than a spurious edge.
	outcome, err := EvaluateRound(RoundInput{
		Legs:             testLegs(),
		Scenario:         "efficient",
		PremiumsByTenor:  map[string][]float64{"weekly": {2100, 1900, 2600}},
		Tenors:           []models.Tenor{weeklyTenor()},
		MoneynessGrid:    []float64{0},
		DisplayThreshold: 0.005,
		TradeThreshold:   0.01,
	}, model)
	require.NoError(t, err)

	assert.Empty(t, outcome.Results)
	assert.Zero(t, outcome.Opportunities)
}

func TestEvaluateRound_TradeableAtShiftedMoneyness(t *testing.T) {
	model := pricing.NewModel(pricing.DefaultRiskFreeRate)

	outcome, err := EvaluateRound(RoundInput{
		Legs:             testLegs(),
		Scenario:         "efficient",
		PremiumsByTenor:  map[string][]float64{"weekly": {2100, 1900, 2600}},
		Tenors:           []models.Tenor{weeklyTenor()},
		MoneynessGrid:    []float64{0.02},
		DisplayThreshold: 0.005,
		TradeThreshold:   0.01,
	}, model)
	require.NoError(t, err)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, 1, outcome.Opportunities)

	result := outcome.Results[0]
	assert.Equal(t, "weekly", result.Tenor)
	assert.Equal(t, "efficient", result.Scenario)
	assert.Equal(t, "+2.0%", result.MoneynessLabel)
	assert.Equal(t, models.ClassificationTradeable, result.Classification)
	assert.NotEmpty(t, result.ID)

	// Cross-check the edge against the pricing model on the normalized basis.
	params := NormalizeToBasis([]float64{2100, 1900, 2600}, 0.02)
	wantEdge, wantTheoretical, wantMarket := model.ArbitrageEdge(
		params.ScaledPremiums, params.P, params.K, 0.02)
	assert.InDelta(t, wantEdge, result.Edge, 1e-12)
	assert.InDelta(t, wantTheoretical/params.ScaleFactor, result.TheoreticalUSD, 1e-9)
	assert.InDelta(t, wantMarket/params.ScaleFactor, result.MarketUSD, 1e-9)
	assert.InDelta(t, 6600.0, result.MarketUSD, 1e-6)

	// The scaled premiums sum below the theoretical basket, so the trade is
	// buy legs / sell basket with a positive expected profit.
	assert.Negative(t, result.Edge)
	assert.Equal(t, models.DirectionBuyLegs, result.Direction)
	assert.InDelta(t, result.TheoreticalUSD-result.MarketUSD, result.ProfitUSD, 1e-9)
	assert.Positive(t, result.ProfitUSD)
}

func TestEvaluateRound_InformationalBelowTradeThreshold(t *testing.T) {
	model := pricing.NewModel(pricing.DefaultRiskFreeRate)

	// A small offset produces an edge between the display and trade
	// thresholds: reported but not tradeable.
	outcome, err := EvaluateRound(RoundInput{
		Legs:             testLegs(),
		Scenario:         "efficient",
		PremiumsByTenor:  map[string][]float64{"weekly": {2100, 1900, 2600}},
		Tenors:           []models.Tenor{weeklyTenor()},
		MoneynessGrid:    []float64{0.008},
		DisplayThreshold: 0.005,
		TradeThreshold:   0.01,
	}, model)
	require.NoError(t, err)
	require.Len(t, outcome.Results, 1)

	result := outcome.Results[0]
	assert.Equal(t, models.ClassificationInformational, result.Classification)
	assert.Zero(t, outcome.Opportunities)
	assert.Zero(t, result.ProfitUSD)
	assert.Empty(t, result.Direction)
}

func TestEvaluateRound_LegMismatchFailsFast(t *testing.T) {
	model := pricing.NewModel(pricing.DefaultRiskFreeRate)

	_, err := EvaluateRound(RoundInput{
		Legs:             testLegs(),
		Scenario:         "normal",
		PremiumsByTenor:  map[string][]float64{"weekly": {2100, 1900}},
		Tenors:           []models.Tenor{weeklyTenor()},
		MoneynessGrid:    []float64{0.02},
		DisplayThreshold: 0.005,
		TradeThreshold:   0.01,
	}, model)
	assert.ErrorIs(t, err, ErrLegMismatch)
}

func TestEvaluateRound_SkipsTenorsWithoutPremiums(t *testing.T) {
	model := pricing.NewModel(pricing.DefaultRiskFreeRate)

	outcome, err := EvaluateRound(RoundInput{
		Legs:             testLegs(),
		Scenario:         "normal",
		PremiumsByTenor:  map[string][]float64{},
		Tenors:           []models.Tenor{weeklyTenor()},
		MoneynessGrid:    []float64{0.02},
		DisplayThreshold: 0.005,
		TradeThreshold:   0.01,
	}, model)
	require.NoError(t, err)
	assert.Empty(t, outcome.Results)
}

func TestEvaluateRound_MalformedPremiumsDegradeToNoSignal(t *testing.T) {
	model := pricing.NewModel(pricing.DefaultRiskFreeRate)

	// An all-zero premium set keeps the raw sum non-positive: the scale
	// factor stays 1 and the normalized market sum is zero, so no cell can
	// cross the display threshold on market value alone.
	outcome, err := EvaluateRound(RoundInput{
		Legs:             testLegs(),
		Scenario:         "normal",
		PremiumsByTenor:  map[string][]float64{"weekly": {0, 0, 0}},
		Tenors:           []models.Tenor{weeklyTenor()},
		MoneynessGrid:    []float64{0},
		DisplayThreshold: 0.005,
		TradeThreshold:   0.01,
	}, model)
	require.NoError(t, err)
	assert.Empty(t, outcome.Results)
}

func TestMoneynessLabel(t *testing.T) {
	assert.Equal(t, "ATM", MoneynessLabel(0))
	assert.Equal(t, "+2.0%", MoneynessLabel(0.02))
	assert.Equal(t, "-1.0%", MoneynessLabel(-0.01))
	assert.Equal(t, "+3.0%", MoneynessLabel(0.03))
}
