package api

import (
	"io"
	"net/http"
	"strings"
	"time"

	"tally/internal/calendar"
	"tally/internal/ledger"
	"tally/internal/metrics"
	"tally/internal/period"
)

// reportHandler groups the calendar and reporting HTTP handlers.
type reportHandler struct {
	ledgers *ledger.Service
	roster  []string
	metrics *metrics.Metrics
	now     func() time.Time
}

func newReportHandler(ledgers *ledger.Service, roster []string, m *metrics.Metrics) *reportHandler {
	return &reportHandler{ledgers: ledgers, roster: roster, metrics: m, now: time.Now}
}

type calendarCell struct {
	Day  int    `json:"day"`
	Date string `json:"date,omitempty"`
}

// Calendar handles GET /api/v1/calendar. Without year/month parameters the
// current month is returned.
func (h *reportHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	year, month, err := yearMonthParams(r, now.Year(), now.Month())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	grid := calendar.MonthGrid(year, month)
	cells := make([]calendarCell, len(grid))
	for i, c := range grid {
		cells[i].Day = c.Day
		if !c.Blank() {
			cells[i].Date = ledger.DateKey(c.Date)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year":  year,
		"month": int(month),
		"cells": cells,
	})
}

type reportDay struct {
	Date  string             `json:"date"`
	Hours map[string]float64 `json:"hours"`
}

// Report handles GET /api/v1/report.
func (h *reportHandler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	p := period.Period(q.Get("period"))
	if p == "" {
		p = period.Week
	}

	var start, end time.Time
	var err error
	if v := q.Get("start"); v != "" {
		if start, err = ledger.ParseDateKey(v); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "start must be YYYY-MM-DD")
			return
		}
	}
	if v := q.Get("end"); v != "" {
		if end, err = ledger.ParseDateKey(v); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "end must be YYYY-MM-DD")
			return
		}
	}

	rng, ok, err := period.Resolve(p, h.now(), start, end)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "unknown period")
		return
	}
	if !ok {
		// A custom range without both bounds is not an error; the caller has
		// simply not finished picking dates.
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "awaiting_input"})
		return
	}

	employees := h.roster
	if v := q.Get("employees"); v != "" {
		employees = nil
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				employees = append(employees, e)
			}
		}
	}

	l, err := h.ledgers.Load(r.Context(), sessionEmail(r))
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	series := period.DailySeries(l, employees, rng)
	days := make([]reportDay, len(series))
	totals := make(map[string]float64, len(employees))
	for i, d := range series {
		days[i] = reportDay{Date: ledger.DateKey(d.Date), Hours: d.Hours}
	}
	for _, e := range employees {
		totals[e] = period.Total(series, e)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"period": string(p),
		"range": map[string]string{
			"start": ledger.DateKey(rng.Start),
			"end":   ledger.DateKey(rng.End),
		},
		"employees": employees,
		"days":      days,
		"totals":    totals,
		"max_hours": period.MaxHours(series, employees),
	})
}

// Export handles GET /api/v1/export. The response is the full ledger as a
// downloadable JSON document.
func (h *reportHandler) Export(w http.ResponseWriter, r *http.Request) {
	l, err := h.ledgers.Load(r.Context(), sessionEmail(r))
	if err != nil {
		h.metrics.IncTransfer("export", "error")
		writeLedgerError(w, err)
		return
	}

	data, err := ledger.Encode(l)
	if err != nil {
		h.metrics.IncTransfer("export", "error")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to encode ledger")
		return
	}

	h.metrics.IncTransfer("export", "ok")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ledger.ExportFilename(h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import handles POST /api/v1/import. The body replaces the user's entire
// ledger; an invalid document leaves it untouched.
func (h *reportHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return
	}

	l, err := h.ledgers.Replace(r.Context(), sessionEmail(r), data)
	if err != nil {
		h.metrics.IncTransfer("import", "error")
		writeLedgerError(w, err)
		return
	}

	h.metrics.IncTransfer("import", "ok")
	h.metrics.IncLedgerWrite("import")
	auditLog(r, "hours.import", "entries", l.EntryCount())
	writeJSON(w, http.StatusOK, map[string]interface{}{"hours": l})
}
