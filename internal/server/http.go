package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dealpulse/internal/store"
)

// Server exposes the dashboard polling endpoints. Handlers only read the
// store; all computation happens in the background loops.
type Server struct {
	store *store.Store
	mux   *chi.Mux
}

// New creates the HTTP boundary over the given store.
func New(st *store.Store) *Server {
	s := &Server{store: st, mux: chi.NewRouter()}
	s.mux.Use(middleware.Recoverer)
	s.routes()
	return s
}

// Router returns the http.Handler to mount.
func (s *Server) Router() http.Handler { return s.mux }

func (s *Server) routes() {
	s.mux.Get("/get_metrics", s.handleGetMetrics)
	s.mux.Get("/check_deal", s.handleCheckDeal)
	s.mux.Get("/healthz", s.handleHealth)
}

type performanceResponse struct {
	Name           string  `json:"name"`
	GoalPercentage float64 `json:"goal_percentage"`
	ConversionRate float64 `json:"conversion_rate"`
}

type metricsResponse struct {
	TotalWonDeals          int                   `json:"total_won_deals"`
	TotalValue             float64               `json:"total_value"`
	AverageTicket          float64               `json:"average_ticket"`
	SalespeoplePerformance []performanceResponse `json:"salespeople_performance"`
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Current()
	resp := metricsResponse{
		TotalWonDeals:          snap.TotalWonDeals,
		TotalValue:             snap.TotalValue.InexactFloat64(),
		AverageTicket:          snap.AverageTicket.InexactFloat64(),
		SalespeoplePerformance: make([]performanceResponse, 0, len(snap.Salespeople)),
	}
	for _, p := range snap.Salespeople {
		resp.SalespeoplePerformance = append(resp.SalespeoplePerformance, performanceResponse{
			Name:           p.Name,
			GoalPercentage: p.GoalPercentage,
			ConversionRate: p.ConversionRate,
		})
	}
	writeJSON(w, resp)
}

func (s *Server) handleCheckDeal(w http.ResponseWriter, _ *http.Request) {
	evt, ok := s.store.ReadAndClearWinEvent(time.Now())
	if !ok {
		writeJSON(w, map[string]any{})
		return
	}
	// Field names match what the dashboard client already expects.
	writeJSON(w, map[string]any{
		"vendedor":  evt.Salesperson,
		"valor":     evt.Value.InexactFloat64(),
		"titulo":    evt.Title,
		"timestamp": evt.ObservedAt.Unix(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}
