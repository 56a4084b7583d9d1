// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"

	service "github.com/iwdjoe/iwd-bonus-tracker/internal/app"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/aggregate"
)

// weeklyTopN bounds the top users/projects lists on the weekly view.
const weeklyTopN = 5

type weeklyResponse struct {
	Weekly      service.WeeklyBuckets    `json:"weekly"`
	WeeklyGoal  int                      `json:"weeklyGoal"`
	TopUsers    []aggregate.UserTotal    `json:"topUsers"`
	TopProjects []aggregate.ProjectTotal `json:"topProjects"`
	GeneratedAt time.Time                `json:"generatedAt"`
}

// WeeklyHandler serves the condensed weekly view.
type WeeklyHandler struct {
	deps Dependencies
}

// NewWeeklyHandler creates a new weekly handler.
func NewWeeklyHandler(deps Dependencies) *WeeklyHandler {
	return &WeeklyHandler{deps: deps}
}

// HandleWeekly handles GET /api/weekly requests.
func (h *WeeklyHandler) HandleWeekly(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, weeklyResponse{
		Weekly:      pulse.Weekly,
		WeeklyGoal:  pulse.Meta.WeeklyGoal,
		TopUsers:    topUsers(pulse.Users, weeklyTopN),
		TopProjects: topProjects(pulse.Projects, weeklyTopN),
		GeneratedAt: pulse.Meta.GeneratedAt,
	})
}

func topUsers(users []aggregate.UserTotal, n int) []aggregate.UserTotal {
	if len(users) > n {
		return users[:n]
	}
	return users
}

func topProjects(projects []aggregate.ProjectTotal, n int) []aggregate.ProjectTotal {
	if len(projects) > n {
		return projects[:n]
	}
	return projects
}
