package scanner

import (
	"context"
	"time"

	"github.com/richardawr/Options/pkg/analyzer"
	"github.com/richardawr/Options/pkg/models"
)

// ObservationSource supplies the current premium observations for a leg set
// and tenor. The live feed implements it; SimulatedSource is the demo
// fallback. The scanner only ever consumes immutable per-round snapshots, so
// implementations own whatever locking their internals need.
type ObservationSource interface {
	Snapshot(ctx context.Context, legs []models.Leg, tenor string) ([]models.PremiumObservation, error)
}

// NamedSource labels a source for reporting; the name becomes the scenario
// tag on results.
type NamedSource struct {
	Name   string
	Source ObservationSource
}

// SimulatedSource generates premiums by applying a scenario's noise regime to
// the configured base premiums. The noise source is injected so tests can fix
// the draw.
type SimulatedSource struct {
	Kind         analyzer.ScenarioKind
	BasePremiums map[string]map[string]float64 // tenor -> pair -> premium
	Noise        analyzer.NoiseSource
}

func (s *SimulatedSource) Snapshot(ctx context.Context, legs []models.Leg, tenor string) ([]models.PremiumObservation, error) {
	premiums, _, err := analyzer.SimulatePremiums(legs, s.BasePremiums[tenor], s.Kind, s.Noise)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	observations := make([]models.PremiumObservation, len(legs))
	for i, leg := range legs {
		observations[i] = models.PremiumObservation{
			Pair:       leg.Pair,
			Premium:    premiums[i],
			Provenance: models.ProvenanceDemo,
			Timestamp:  now,
		}
	}
	return observations, nil
}
