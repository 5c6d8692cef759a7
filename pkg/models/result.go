package models

import (
	"time"
)

// BasketParams is the normalized pricing basis derived from one round's
// premium observations.
type BasketParams struct {
	P              float64
	K              float64
	ScaledPremiums []float64
	ScaleFactor    float64
}

type Classification string

const (
	ClassificationNone          Classification = "none"
	ClassificationInformational Classification = "informational"
	ClassificationTradeable     Classification = "tradeable"
)

type Direction string

const (
	// DirectionSellLegs: market overprices the individual legs relative to
	// the theoretical basket.
	DirectionSellLegs Direction = "sell_legs_buy_basket"
	DirectionBuyLegs  Direction = "buy_legs_sell_basket"
)

// ArbitrageResult is the outcome of evaluating one (tenor, moneyness) cell.
// Values are in currency units unless suffixed otherwise.
type ArbitrageResult struct {
	ID              string
	Tenor           string
	Scenario        string
	MoneynessOffset float64
	MoneynessLabel  string // "ATM" or signed percent, e.g. "+2.0%"
	Edge            float64
	TheoreticalUSD  float64
	MarketUSD       float64
	ScaleFactor     float64
	Classification  Classification
	Direction       Direction
	ProfitUSD       float64
	Timestamp       time.Time
}

// Tradeable reports whether the result crossed the trade threshold.
func (r *ArbitrageResult) Tradeable() bool {
	return r.Classification == ClassificationTradeable
}
