package analyzer

import (
	"errors"
	"fmt"

	"github.com/richardawr/Options/pkg/models"
)

// ScenarioKind names a market-noise regime for simulated premiums.
type ScenarioKind string

const (
	// ScenarioNormal models typical market conditions.
	ScenarioNormal ScenarioKind = "normal"
	// ScenarioMispriced models an inefficient market more likely to produce
	// tradeable edges.
	ScenarioMispriced ScenarioKind = "mispriced"
	// ScenarioEfficient models a highly efficient market.
	ScenarioEfficient ScenarioKind = "efficient"
)

var (
	ErrUnknownScenario    = errors.New("unknown scenario kind")
	ErrMissingBasePremium = errors.New("no base premium configured for leg")
	ErrLegMismatch        = errors.New("premium count does not match leg count")
)

// noiseWidth returns the half-width of the uniform multiplicative noise band
// for a scenario.
func noiseWidth(kind ScenarioKind) (float64, error) {
	switch kind {
	case ScenarioNormal:
		return 0.15, nil
	case ScenarioMispriced:
		return 0.30, nil
	case ScenarioEfficient:
		return 0.05, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownScenario, kind)
	}
}

// NoiseSource supplies uniform draws in [0, 1). *math/rand.Rand satisfies it;
// tests inject fixed sources for determinism.
type NoiseSource interface {
	Float64() float64
}

// SimulatePremiums applies independent uniform multiplicative noise to each
// leg's base premium. The returned premiums are ordered to match legs; the
// details carry per-leg diagnostics.
func SimulatePremiums(legs []models.Leg, basePremiums map[string]float64, kind ScenarioKind, src NoiseSource) ([]float64, []models.PremiumDetail, error) {
	width, err := noiseWidth(kind)
	if err != nil {
		return nil, nil, err
	}

	premiums := make([]float64, 0, len(legs))
	details := make([]models.PremiumDetail, 0, len(legs))

	for _, leg := range legs {
		base, ok := basePremiums[leg.Pair]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingBasePremium, leg.Pair)
		}

		noise := -width + src.Float64()*2*width
		premium := base * (1 + noise)
		premiums = append(premiums, premium)

		details = append(details, models.PremiumDetail{
			Pair:        leg.Pair,
			Premium:     premium,
			PremiumRate: premium / leg.NotionalUSD,
			BasePremium: base,
			Noise:       noise,
		})
	}

	return premiums, details, nil
}

// normalizedStrike is the arbitrary strike every round is rescaled onto.
const normalizedStrike = 100.0

// NormalizeToBasis maps raw premiums onto the normalized strike basis.
// scaleFactor is K / sum(raw) when the raw sum is positive, else 1, so the
// scaled premiums sum to K whenever there is any market premium at all.
func NormalizeToBasis(raw []float64, moneynessOffset float64) models.BasketParams {
	K := normalizedStrike
	P := K * (1 + moneynessOffset)

	var total float64
	for _, p := range raw {
		total += p
	}

	scaleFactor := 1.0
	if total > 0 {
		scaleFactor = K / total
	}

	scaled := make([]float64, len(raw))
	for i, p := range raw {
		scaled[i] = p * scaleFactor
	}

	return models.BasketParams{
		P:              P,
		K:              K,
		ScaledPremiums: scaled,
		ScaleFactor:    scaleFactor,
	}
}
