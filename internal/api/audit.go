package api

import (
	"log/slog"
	"net/http"

	"tally/internal/auth"
)

// auditLog emits a structured audit log entry for a mutating action.
func auditLog(r *http.Request, action string, detail ...any) {
	attrs := []any{
		"action", action,
		"ip", clientIP(r),
		"request_id", RequestIDFromContext(r.Context()),
	}

	if sess := auth.SessionFromContext(r.Context()); sess != nil {
		attrs = append(attrs, "user_email", sess.Email)
	}

	attrs = append(attrs, detail...)
	slog.Info("audit", attrs...)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
