package models

import (
	"time"
)

// Leg is one FX pair in the basket. Reference data, built once from
// configuration and never mutated.
type Leg struct {
	Pair        string  // e.g. "EURUSD"
	Symbol      string  // base currency, e.g. "EUR"
	Currency    string  // quote currency, e.g. "USD"
	Weight      float64 // relative weight in (0, 1]
	NotionalUSD float64
	DemoSpot    float64
}

// Provenance records whether an observation came from the live feed or the
// simulated fallback.
type Provenance string

const (
	ProvenanceLive Provenance = "live"
	ProvenanceDemo Provenance = "demo"
)

// PremiumObservation is a single leg's current option premium for one
// analysis round. Discarded after the round.
type PremiumObservation struct {
	Pair       string
	Premium    float64
	Provenance Provenance
	Timestamp  time.Time
}

// Tenor is an expiry bucket with its time-to-expiry in years. The expiry
// date string is carried for display only and never drives Years.
type Tenor struct {
	Name   string
	Years  float64
	Expiry string
}

// PremiumDetail is the per-leg diagnostic emitted alongside simulated
// premiums.
type PremiumDetail struct {
	Pair        string
	Premium     float64
	PremiumRate float64 // premium / notional
	BasePremium float64
	Noise       float64
}
