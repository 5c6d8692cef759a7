package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardawr/Options/pkg/models"
)

func cacheTestLegs() []models.Leg {
	return []models.Leg{
		{Pair: "EURUSD", NotionalUSD: 400000},
		{Pair: "GBPUSD", NotionalUSD: 300000},
	}
}

func TestPriceCache_SpotRoundTrip(t *testing.T) {
	cache := NewPriceCache()

	_, ok := cache.Spot("EURUSD")
	assert.False(t, ok)

	cache.SetSpot("EURUSD", 1.0850, time.Now())
	spot, ok := cache.Spot("EURUSD")
	require.True(t, ok)
	assert.Equal(t, 1.0850, spot)
}

func TestPriceCache_SnapshotMixesLiveAndDemo(t *testing.T) {
	cache := NewPriceCache()
	tickTime := time.Date(2024, 11, 8, 14, 30, 0, 0, time.UTC)
	cache.SetPremium("weekly", "EURUSD", 2012.50, tickTime)

	base := map[string]float64{"EURUSD": 2000, "GBPUSD": 1800}
	observations := cache.Snapshot(cacheTestLegs(), "weekly", base)
	require.Len(t, observations, 2)

	assert.Equal(t, "EURUSD", observations[0].Pair)
	assert.Equal(t, 2012.50, observations[0].Premium)
	assert.Equal(t, models.ProvenanceLive, observations[0].Provenance)
	assert.Equal(t, tickTime, observations[0].Timestamp)

	// No tick for GBPUSD yet: demo fallback from the base premium.
	assert.Equal(t, "GBPUSD", observations[1].Pair)
	assert.Equal(t, 1800.0, observations[1].Premium)
	assert.Equal(t, models.ProvenanceDemo, observations[1].Provenance)
}

func TestPriceCache_SnapshotUnknownTenorIsAllDemo(t *testing.T) {
	cache := NewPriceCache()

	base := map[string]float64{"EURUSD": 4500, "GBPUSD": 4000}
	observations := cache.Snapshot(cacheTestLegs(), "monthly", base)
	require.Len(t, observations, 2)

	for _, obs := range observations {
		assert.Equal(t, models.ProvenanceDemo, obs.Provenance)
		assert.Equal(t, base[obs.Pair], obs.Premium)
	}
}
