// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// PulseHandler serves the dashboard snapshot.
type PulseHandler struct {
	deps Dependencies
}

// NewPulseHandler creates a new pulse handler.
func NewPulseHandler(deps Dependencies) *PulseHandler {
	return &PulseHandler{deps: deps}
}

// HandlePulse handles GET /api/pulse requests.
func (h *PulseHandler) HandlePulse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	pulse, err := h.deps.Pulse(r.Context())
	if err != nil {
		status, code := upstreamStatus(err)
		writeError(w, status, code, err)
		return
	}

	writeJSON(w, http.StatusOK, pulse)
}
