package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/richardawr/Options/pkg/models"
	"github.com/richardawr/Options/pkg/scanner"
)

// SpotProvider supplies the last live spot observation for a pair. The feed
// implements it; a nil provider means every leg reports its demo spot.
type SpotProvider interface {
	Spot(pair string) (float64, bool)
}

type Server struct {
	scanner *scanner.Scanner
	spots   SpotProvider
	logger  *logrus.Logger
	port    string
}

func NewServer(scanner *scanner.Scanner, spots SpotProvider, logger *logrus.Logger, port string) *Server {
	return &Server{
		scanner: scanner,
		spots:   spots,
		logger:  logger,
		port:    port,
	}
}

func (s *Server) Start() error {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/results", s.handleResults).Methods(http.MethodGet)
	r.HandleFunc("/api/opportunities", s.handleOpportunities).Methods(http.MethodGet)
	r.HandleFunc("/api/basket", s.handleBasket).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())

	handler := corsMiddleware(r)

	s.logger.Infof("Starting API server on port %s", s.port)
	return http.ListenAndServe(":"+s.port, handler)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":        "healthy",
		"rounds":        s.scanner.Rounds(),
		"opportunities": s.scanner.Opportunities(),
		"timestamp":     time.Now().UTC(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.scanner.LatestResults())
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.scanner.LatestOpportunities())
}

// BasketLeg is a leg plus its current spot: the live tick when the feed has
// one, otherwise the configured demo level.
type BasketLeg struct {
	Pair           string
	Symbol         string
	Currency       string
	Weight         float64
	NotionalUSD    float64
	Spot           float64
	SpotProvenance models.Provenance
}

func (s *Server) handleBasket(w http.ResponseWriter, r *http.Request) {
	legs := s.scanner.Legs()
	view := make([]BasketLeg, len(legs))
	for i, leg := range legs {
		view[i] = BasketLeg{
			Pair:           leg.Pair,
			Symbol:         leg.Symbol,
			Currency:       leg.Currency,
			Weight:         leg.Weight,
			NotionalUSD:    leg.NotionalUSD,
			Spot:           leg.DemoSpot,
			SpotProvenance: models.ProvenanceDemo,
		}
		if s.spots != nil {
			if spot, ok := s.spots.Spot(leg.Pair); ok {
				view[i].Spot = spot
				view[i].SpotProvenance = models.ProvenanceLive
			}
		}
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}
