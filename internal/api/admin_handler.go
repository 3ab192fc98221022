package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tally/internal/admin"
)

// adminHandler groups the operator rollup HTTP handlers.
type adminHandler struct {
	rollup *admin.Rollup
}

func newAdminHandler(rollup *admin.Rollup) *adminHandler {
	return &adminHandler{rollup: rollup}
}

type adminUserResponse struct {
	Email          string            `json:"email"`
	Name           string            `json:"name"`
	AuthProvider   string            `json:"auth_provider,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	TotalDays      int               `json:"total_days"`
	TotalHours     string            `json:"total_hours"`
	EmployeeTotals map[string]string `json:"employee_totals"`
	LastActivity   *time.Time        `json:"last_activity,omitempty"`
}

// ListUsers handles GET /api/v1/admin/users. Hour totals are formatted to one
// decimal for display.
func (h *adminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.rollup.Summaries(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	users := make([]adminUserResponse, len(summaries))
	for i, s := range summaries {
		totals := make(map[string]string, len(s.EmployeeTotals))
		for e, t := range s.EmployeeTotals {
			totals[e] = formatTotal(t)
		}
		users[i] = adminUserResponse{
			Email:          s.Email,
			Name:           s.Name,
			AuthProvider:   s.AuthProvider,
			CreatedAt:      s.CreatedAt,
			TotalDays:      s.TotalDays,
			TotalHours:     formatTotal(s.TotalHours),
			EmployeeTotals: totals,
			LastActivity:   s.LastActivity,
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// UserActivity handles GET /api/v1/admin/users/{email}/activity.
func (h *adminHandler) UserActivity(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	entries, err := h.rollup.ActivityLog(r.Context(), email)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"email":    email,
		"activity": entries,
	})
}

// formatTotal renders an hour total with one decimal place.
func formatTotal(t float64) string {
	return strconv.FormatFloat(t, 'f', 1, 64)
}
