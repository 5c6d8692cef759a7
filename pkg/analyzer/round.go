package analyzer

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/richardawr/Options/pkg/models"
	"github.com/richardawr/Options/pkg/pricing"
)

// RoundInput describes one evaluation sweep: per-tenor premiums for a fixed
// leg set, a symmetric moneyness grid, and the two independent thresholds.
type RoundInput struct {
	Legs []models.Leg
	// Scenario tags results for reporting; "live" for feed-sourced rounds,
	// otherwise the simulated scenario kind.
	Scenario         string
	PremiumsByTenor  map[string][]float64
	Tenors           []models.Tenor
	MoneynessGrid    []float64
	DisplayThreshold float64
	TradeThreshold   float64
}

// RoundOutcome is the full set of per-(tenor, moneyness) results that crossed
// the display threshold, plus the tradeable count.
type RoundOutcome struct {
	Results       []models.ArbitrageResult
	Opportunities int
}

// EvaluateRound sweeps every (tenor, moneyness) cell: normalize the tenor's
// premiums onto the strike basis, price the basket, compute the edge, convert
// back to currency units, classify. A malformed leg premium degrades the edge
// toward the zero case rather than halting the sweep; a premium slice whose
// length disagrees with the leg set is a programming error and fails fast.
func EvaluateRound(in RoundInput, model *pricing.Model) (*RoundOutcome, error) {
	out := &RoundOutcome{}
	now := time.Now().UTC()

	for _, tenor := range in.Tenors {
		raw, ok := in.PremiumsByTenor[tenor.Name]
		if !ok {
			continue
		}
		if len(raw) != len(in.Legs) {
			return nil, fmt.Errorf("%w: tenor %s has %d premiums for %d legs",
				ErrLegMismatch, tenor.Name, len(raw), len(in.Legs))
		}

		for _, offset := range in.MoneynessGrid {
			params := NormalizeToBasis(raw, offset)
			edge, theoretical, marketSum := model.ArbitrageEdge(
				params.ScaledPremiums, params.P, params.K, tenor.Years)

			// Back out of the normalized basis into currency units.
			theoreticalUSD := theoretical / params.ScaleFactor
			marketUSD := marketSum / params.ScaleFactor

			if math.Abs(edge) <= in.DisplayThreshold {
				continue
			}

			result := models.ArbitrageResult{
				ID:              uuid.NewString(),
				Tenor:           tenor.Name,
				Scenario:        in.Scenario,
				MoneynessOffset: offset,
				MoneynessLabel:  MoneynessLabel(offset),
				Edge:            edge,
				TheoreticalUSD:  theoreticalUSD,
				MarketUSD:       marketUSD,
				ScaleFactor:     params.ScaleFactor,
				Classification:  models.ClassificationInformational,
				Timestamp:       now,
			}

			if math.Abs(edge) > in.TradeThreshold {
				result.Classification = models.ClassificationTradeable
				result.ProfitUSD = math.Abs(theoreticalUSD - marketUSD)
				if edge > 0 {
					result.Direction = models.DirectionSellLegs
				} else {
					result.Direction = models.DirectionBuyLegs
				}
				out.Opportunities++
			}

			out.Results = append(out.Results, result)
		}
	}

	return out, nil
}

// MoneynessLabel renders an offset for display: "ATM" at zero, otherwise a
// signed percentage.
func MoneynessLabel(offset float64) string {
	if offset == 0 {
		return "ATM"
	}
	return fmt.Sprintf("%+.1f%%", offset*100)
}
