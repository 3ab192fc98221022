package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tally/internal/auth"
	"tally/internal/blob"
	"tally/internal/ledger"
	"tally/internal/metrics"
)

// hoursHandler groups the ledger HTTP handlers.
type hoursHandler struct {
	ledgers *ledger.Service
	metrics *metrics.Metrics
	now     func() time.Time
}

func newHoursHandler(ledgers *ledger.Service, m *metrics.Metrics) *hoursHandler {
	return &hoursHandler{ledgers: ledgers, metrics: m, now: time.Now}
}

// sessionEmail returns the authenticated user's email. The session middleware
// guarantees it is present on these routes.
func sessionEmail(r *http.Request) string {
	if sess := auth.SessionFromContext(r.Context()); sess != nil {
		return sess.Email
	}
	return ""
}

// GetHours handles GET /api/v1/hours.
func (h *hoursHandler) GetHours(w http.ResponseWriter, r *http.Request) {
	l, err := h.ledgers.Load(r.Context(), sessionEmail(r))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"hours": l})
}

// SetHours handles PUT /api/v1/hours/{employee}/{date}.
func (h *hoursHandler) SetHours(w http.ResponseWriter, r *http.Request) {
	employee := chi.URLParam(r, "employee")
	date, err := ledger.ParseDateKey(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "date must be YYYY-MM-DD")
		return
	}

	var req struct {
		Hours interface{} `json:"hours"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	hours, err := parseHoursValue(req.Hours)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "hours must be a non-negative number")
		return
	}

	l, err := h.ledgers.SetHours(r.Context(), sessionEmail(r), employee, date, hours)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.metrics.IncLedgerWrite("set")
	auditLog(r, "hours.set", "employee", employee, "date", ledger.DateKey(date), "hours", hours)
	writeJSON(w, http.StatusOK, map[string]interface{}{"hours": l})
}

// DeleteHours handles DELETE /api/v1/hours/{employee}/{date}.
func (h *hoursHandler) DeleteHours(w http.ResponseWriter, r *http.Request) {
	employee := chi.URLParam(r, "employee")
	date, err := ledger.ParseDateKey(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "date must be YYYY-MM-DD")
		return
	}

	l, err := h.ledgers.DeleteHours(r.Context(), sessionEmail(r), employee, date)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.metrics.IncLedgerWrite("delete")
	auditLog(r, "hours.delete", "employee", employee, "date", ledger.DateKey(date))
	writeJSON(w, http.StatusOK, map[string]interface{}{"hours": l})
}

// MonthlyTotal handles GET /api/v1/hours/{employee}/monthly-total.
// Without year/month parameters the current month is used.
func (h *hoursHandler) MonthlyTotal(w http.ResponseWriter, r *http.Request) {
	employee := chi.URLParam(r, "employee")

	now := h.now()
	year, month, err := yearMonthParams(r, now.Year(), now.Month())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	l, err := h.ledgers.Load(r.Context(), sessionEmail(r))
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	total := l.MonthlyTotal(employee, year, month)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"employee":  employee,
		"year":      year,
		"month":     int(month),
		"total":     total,
		"formatted": ledger.FormatHours(total),
	})
}

// yearMonthParams reads year and month query parameters, falling back to the
// given defaults when absent.
func yearMonthParams(r *http.Request, defYear int, defMonth time.Month) (int, time.Month, error) {
	year, month := defYear, defMonth

	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("year must be an integer")
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("month must be an integer between 1 and 12")
		}
		month = time.Month(m)
	}
	return year, month, nil
}

// parseHoursValue accepts the hours field as a JSON number or a decimal
// string, matching the free-text input it originates from.
func parseHoursValue(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return ledger.ParseHours(x)
	default:
		return 0, ledger.ErrInvalidHours
	}
}

// writeLedgerError maps ledger and persistence errors to HTTP responses.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidHours):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "hours must be a non-negative number")
	case errors.Is(err, ledger.ErrInvalidDate):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "date must be YYYY-MM-DD")
	case errors.Is(err, ledger.ErrInvalidImportFormat):
		writeError(w, http.StatusUnprocessableEntity, "invalid_import", "imported document is not a valid hours ledger")
	case errors.Is(err, blob.ErrPersistence):
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to access stored data")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to access stored data")
	}
}
