package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tally/internal/admin"
	"tally/internal/auth"
	"tally/internal/identity"
	"tally/internal/ledger"
	"tally/internal/metrics"
	"tally/internal/ratelimit"
)

// Pinger reports backing-store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Identity *identity.Store
	Google   *identity.GoogleProvider // nil disables the google routes
	Ledgers  *ledger.Service
	Rollup   *admin.Rollup
	Limiter  *ratelimit.Limiter
	Metrics  *metrics.Metrics
	DB       Pinger // nil skips the DB ping in /health

	AdminKey       string
	Roster         []string
	AllowedOrigins []string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(slogRequestLogger)
	r.Use(metricsMiddleware(deps.Metrics))

	// Handlers.
	authH := newAuthHandler(deps.Identity, deps.Google, deps.Metrics)
	hours := newHoursHandler(deps.Ledgers, deps.Metrics)
	reports := newReportHandler(deps.Ledgers, deps.Roster, deps.Metrics)
	adminH := newAdminHandler(deps.Rollup)

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := deps.DB.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": "unreachable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Well-known manifest.
	r.Get("/.well-known/tally.json", WellKnownHandler)

	// Metrics summary.
	r.Get("/metrics/summary", deps.Metrics.Handler())

	// Credential routes (rate limited per client IP).
	r.Route("/api/v1/auth", func(ar chi.Router) {
		limited := ratelimit.Middleware(deps.Limiter, func() {
			deps.Metrics.IncRateLimitRejection("auth")
		})

		ar.With(limited).Post("/signup", authH.Signup)
		ar.With(limited).Post("/login", authH.Login)
		ar.Post("/logout", authH.Logout)

		ar.Get("/google/login", authH.GoogleLogin)
		ar.With(limited).Get("/google/callback", authH.GoogleCallback)

		ar.Group(func(sr chi.Router) {
			sr.Use(auth.SessionAuthMiddleware(deps.Identity))
			sr.Get("/me", authH.Me)
			sr.Put("/profile", authH.UpdateProfile)
		})
	})

	// Session-authed routes.
	r.Route("/api/v1", func(sr chi.Router) {
		sr.Use(auth.SessionAuthMiddleware(deps.Identity))

		sr.Get("/hours", hours.GetHours)
		sr.Put("/hours/{employee}/{date}", hours.SetHours)
		sr.Delete("/hours/{employee}/{date}", hours.DeleteHours)
		sr.Get("/hours/{employee}/monthly-total", hours.MonthlyTotal)

		sr.Get("/calendar", reports.Calendar)
		sr.Get("/report", reports.Report)
		sr.Get("/export", reports.Export)
		sr.Post("/import", reports.Import)
	})

	// Admin routes (require admin key).
	r.Route("/api/v1/admin", func(ar chi.Router) {
		ar.Use(auth.AdminKeyMiddleware(deps.AdminKey))

		ar.Get("/users", adminH.ListUsers)
		ar.Get("/users/{email}/activity", adminH.UserActivity)
	})

	return r
}

// slogRequestLogger is a simple structured logging middleware using slog.
func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", ww.BytesWritten(),
		)
	})
}

// metricsMiddleware records request counts and latencies against the chi
// route pattern, keeping metric cardinality bounded.
func metricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			m.HTTPRequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		})
	}
}
