// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/iwdjoe/iwd-bonus-tracker/internal/app"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/bonus"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Pulse materializes the dashboard snapshot.
	Pulse(ctx context.Context) (*Pulse, error)

	// RunReport executes the report pipeline, publishing unless preview.
	RunReport(ctx context.Context, mode bonus.Mode, preview bool) (*ReportResult, error)

	// UpdateRate writes one project rate and returns the updated table.
	UpdateRate(ctx context.Context, projectID string, rate int) (model.RateTable, error)
}

// Pulse mirrors the read shape returned by snapshot queries.
type Pulse = service.Pulse

// ReportResult mirrors the outcome shape of a report run.
type ReportResult = service.ReportResult

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	pulseHandler  *PulseHandler
	weeklyHandler *WeeklyHandler
	reportHandler *ReportHandler
	ratesHandler  *RatesHandler
	auth          *Authenticator
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, auth *Authenticator) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		pulseHandler:  NewPulseHandler(deps),
		weeklyHandler: NewWeeklyHandler(deps),
		reportHandler: NewReportHandler(deps),
		ratesHandler:  NewRatesHandler(deps),
		auth:          auth,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/pulse", s.route("pulse", s.pulseHandler.HandlePulse))
	mux.HandleFunc("/api/weekly", s.route("weekly", s.weeklyHandler.HandleWeekly))
	mux.HandleFunc("/api/report", s.route("report", s.reportHandler.HandleReport))
	mux.HandleFunc("/api/rates", s.route("rates", s.ratesHandler.HandleUpdateRate))
}

// route composes the standard middleware chain for gated API endpoints.
func (s *Server) route(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return MetricsMiddleware(RequestIDMiddleware(s.auth.Require(next)), endpoint)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
