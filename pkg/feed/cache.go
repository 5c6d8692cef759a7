package feed

import (
	"sync"
	"time"

	"github.com/richardawr/Options/pkg/models"
)

type premiumEntry struct {
	value     float64
	updatedAt time.Time
}

// PriceCache holds the latest spot and per-tenor option premium ticks. It is
// the only shared mutable state in the system; the analysis core only ever
// sees immutable snapshots taken from it.
type PriceCache struct {
	mu       sync.RWMutex
	spots    map[string]premiumEntry            // pair -> spot
	premiums map[string]map[string]premiumEntry // tenor -> pair -> premium
}

func NewPriceCache() *PriceCache {
	return &PriceCache{
		spots:    make(map[string]premiumEntry),
		premiums: make(map[string]map[string]premiumEntry),
	}
}

func (c *PriceCache) SetSpot(pair string, price float64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spots[pair] = premiumEntry{value: price, updatedAt: at}
}

func (c *PriceCache) SetPremium(tenor, pair string, price float64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	byPair, ok := c.premiums[tenor]
	if !ok {
		byPair = make(map[string]premiumEntry)
		c.premiums[tenor] = byPair
	}
	byPair[pair] = premiumEntry{value: price, updatedAt: at}
}

// Spot returns the last-known spot for a pair, if any.
func (c *PriceCache) Spot(pair string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.spots[pair]
	return entry.value, ok
}

// Snapshot builds the per-round observation set for a tenor. Legs with no
// live premium tick fall back to the supplied base premium with demo
// provenance, so a round can always proceed.
func (c *PriceCache) Snapshot(legs []models.Leg, tenor string, basePremiums map[string]float64) []models.PremiumObservation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now().UTC()
	observations := make([]models.PremiumObservation, 0, len(legs))

	for _, leg := range legs {
		if entry, ok := c.premiums[tenor][leg.Pair]; ok {
			observations = append(observations, models.PremiumObservation{
				Pair:       leg.Pair,
				Premium:    entry.value,
				Provenance: models.ProvenanceLive,
				Timestamp:  entry.updatedAt,
			})
			continue
		}

		observations = append(observations, models.PremiumObservation{
			Pair:       leg.Pair,
			Premium:    basePremiums[leg.Pair],
			Provenance: models.ProvenanceDemo,
			Timestamp:  now,
		})
	}

	return observations
}
