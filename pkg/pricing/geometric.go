package pricing

import (
	"math"
)

// DefaultRiskFreeRate is the process-wide default discount rate.
const DefaultRiskFreeRate = 0.02

// atmEpsilon guards the sinh(m)/m ratio against division by a moneyness
// numerically indistinguishable from zero.
const atmEpsilon = 1e-10

// Model prices a basket call in closed form:
//
//	C(P,K,T) = e^(-rT) * ((P+K) * sinh(ln(P/K))/ln(P/K) - K)
//
// The sinh(m)/m factor substitutes for a stochastic-calculus-derived basket
// adjustment. All methods are pure.
type Model struct {
	riskFreeRate float64
}

func NewModel(riskFreeRate float64) *Model {
	return &Model{riskFreeRate: riskFreeRate}
}

func (m *Model) RiskFreeRate() float64 {
	return m.riskFreeRate
}

// GeometricFactor returns sinh(m)/m, an even, always-positive function that
// equals 1 at m = 0 and grows with |m|.
func GeometricFactor(moneyness float64) float64 {
	if math.Abs(moneyness) < atmEpsilon {
		return 1
	}
	return math.Sinh(moneyness) / moneyness
}

// BasketCallValue computes the closed-form basket call value for spot P,
// strike K and time-to-expiry T (years). Non-positive P or K degrades to 0
// rather than erroring: malformed input is "no value", not a fault.
func (m *Model) BasketCallValue(P, K, T float64) float64 {
	if P <= 0 || K <= 0 {
		return 0
	}

	moneyness := math.Log(P / K)
	discount := math.Exp(-m.riskFreeRate * T)

	if math.Abs(moneyness) < atmEpsilon {
		return discount * (P - K)
	}

	price := discount * ((P+K)*GeometricFactor(moneyness) - K)
	// No-arbitrage lower bound: a call is never worth less than zero.
	return math.Max(0, price)
}

// ArbitrageEdge compares the summed per-leg premiums against the theoretical
// basket value. Premiums must share a basis with P and K. A non-positive
// theoretical value yields exactly (0, 0, 0): no tradeable signal can be
// derived from it, so the degenerate case reads as "no opinion" rather than
// an error.
//
// Positive edge means the market overprices the sum of parts relative to the
// basket.
func (m *Model) ArbitrageEdge(premiums []float64, P, K, T float64) (edge, theoretical, marketSum float64) {
	theoretical = m.BasketCallValue(P, K, T)
	if theoretical <= 0 {
		return 0, 0, 0
	}

	for _, p := range premiums {
		marketSum += p
	}
	edge = (marketSum - theoretical) / theoretical
	return edge, theoretical, marketSum
}
