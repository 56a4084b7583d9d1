// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/adapters/slack"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/adapters/timesource"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/bonus"
)

// reportRequest is the POST /api/report body.
type reportRequest struct {
	Mode    string `json:"mode"`
	Preview bool   `json:"preview"`
}

// ReportHandler triggers report runs.
type ReportHandler struct {
	deps Dependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps Dependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleReport handles POST /api/report requests.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	mode, err := bonus.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.deps.RunReport(r.Context(), mode, req.Preview)
	if err != nil {
		status, code := upstreamStatus(err)
		writeError(w, status, code, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// upstreamStatus maps pipeline failures onto HTTP statuses: dependency
// outages surface as 502 so callers can tell them apart from our own bugs.
func upstreamStatus(err error) (int, string) {
	switch {
	case errors.Is(err, timesource.ErrSourceUnavailable):
		return http.StatusBadGateway, "source_unavailable"
	case errors.Is(err, slack.ErrWebhook):
		return http.StatusBadGateway, "publish_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
