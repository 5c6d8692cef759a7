package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardawr/Options/pkg/models"
	"github.com/richardawr/Options/pkg/pricing"
	"github.com/richardawr/Options/pkg/scanner"
)

type stubSpots struct {
	spots map[string]float64
}

func (s *stubSpots) Spot(pair string) (float64, bool) {
	spot, ok := s.spots[pair]
	return spot, ok
}

func testServer(spots SpotProvider) *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	arbScanner := scanner.New(scanner.Config{
		Legs: []models.Leg{
			{Pair: "EURUSD", Symbol: "EUR", Currency: "USD", Weight: 0.6, NotionalUSD: 600000, DemoSpot: 1.0850},
			{Pair: "GBPUSD", Symbol: "GBP", Currency: "USD", Weight: 0.4, NotionalUSD: 400000, DemoSpot: 1.2400},
		},
	}, nil, pricing.NewModel(pricing.DefaultRiskFreeRate), logger)

	return NewServer(arbScanner, spots, logger, "0")
}

func basketView(t *testing.T, s *Server) []BasketLeg {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/basket", nil)
	rec := httptest.NewRecorder()
	s.handleBasket(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var view []BasketLeg
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestHandleBasket_DemoSpotsWithoutProvider(t *testing.T) {
	s := testServer(nil)

	view := basketView(t, s)
	require.Len(t, view, 2)

	assert.Equal(t, 1.0850, view[0].Spot)
	assert.Equal(t, models.ProvenanceDemo, view[0].SpotProvenance)
	assert.Equal(t, 1.2400, view[1].Spot)
	assert.Equal(t, models.ProvenanceDemo, view[1].SpotProvenance)
}

func TestHandleBasket_LiveSpotsOverrideDemo(t *testing.T) {
	s := testServer(&stubSpots{spots: map[string]float64{"EURUSD": 1.0912}})

	view := basketView(t, s)
	require.Len(t, view, 2)

	assert.Equal(t, 1.0912, view[0].Spot)
	assert.Equal(t, models.ProvenanceLive, view[0].SpotProvenance)

	// No live tick for GBPUSD, so its demo level stands.
	assert.Equal(t, 1.2400, view[1].Spot)
	assert.Equal(t, models.ProvenanceDemo, view[1].SpotProvenance)
}

func TestHandleHealth_ReportsCounters(t *testing.T) {
	s := testServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "rounds")
	assert.Contains(t, body, "opportunities")
}
