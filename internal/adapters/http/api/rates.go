// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/adapters/ratestore"
)

// Rate bounds accepted by the API, dollars per hour.
const (
	minRate = 1
	maxRate = 100000
)

var projectIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Object-prototype names that must never become rate-table keys; the table
// round-trips through JSON consumers that treat them specially.
var pollutionKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

// rateRequest is the POST /api/rates body.
type rateRequest struct {
	ProjectID string `json:"projectId"`
	Rate      int    `json:"rate"`
}

func (r rateRequest) validate() error {
	if !projectIDPattern.MatchString(r.ProjectID) {
		return errors.New("projectId must be 1-64 characters of [A-Za-z0-9_-]")
	}
	if strings.HasPrefix(r.ProjectID, "__") && strings.HasSuffix(r.ProjectID, "__") {
		return errors.New("projectId must not be a reserved key")
	}
	if pollutionKeys[strings.ToLower(r.ProjectID)] {
		return errors.New("projectId must not be an object prototype name")
	}
	if r.Rate < minRate || r.Rate > maxRate {
		return errors.New("rate must be an integer between 1 and 100000")
	}
	return nil
}

// RatesHandler edits the project rate table.
type RatesHandler struct {
	deps Dependencies
}

// NewRatesHandler creates a new rates handler.
func NewRatesHandler(deps Dependencies) *RatesHandler {
	return &RatesHandler{deps: deps}
}

// HandleUpdateRate handles POST /api/rates requests. Validation happens
// before any call to the rate store so a bad request has no side effects.
func (h *RatesHandler) HandleUpdateRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	table, err := h.deps.UpdateRate(r.Context(), req.ProjectID, req.Rate)
	if err != nil {
		switch {
		case errors.Is(err, ratestore.ErrVersionConflict):
			writeError(w, http.StatusConflict, "version_conflict", err)
		case errors.Is(err, ratestore.ErrStoreUnavailable):
			writeError(w, http.StatusBadGateway, "store_unavailable", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"projectId": req.ProjectID,
		"rate":      req.Rate,
		"rates":     table,
	})
}
