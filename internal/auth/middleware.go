package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"tally/internal/identity"
)

type contextKey int

const (
	sessionContextKey contextKey = iota
	tokenContextKey
)

// SessionLookup is the interface for resolving bearer tokens to sessions.
type SessionLookup interface {
	SessionFromToken(ctx context.Context, token string) (*identity.Session, error)
}

// ContextWithSession returns a new context carrying the given session.
func ContextWithSession(ctx context.Context, sess *identity.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFromContext extracts the session from the context, or nil if not present.
func SessionFromContext(ctx context.Context) *identity.Session {
	sess, _ := ctx.Value(sessionContextKey).(*identity.Session)
	return sess
}

// ContextWithToken returns a new context carrying the raw bearer token.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// TokenFromContext extracts the raw bearer token, or "" if not present.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// SessionAuthMiddleware returns middleware that resolves the Authorization
// bearer token to a session and injects both into the request context.
func SessionAuthMiddleware(sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeUnauthorized(w, "missing or malformed authorization header")
				return
			}

			sess, err := sessions.SessionFromToken(r.Context(), token)
			if err != nil || sess == nil {
				writeUnauthorized(w, "invalid or expired session")
				return
			}

			ctx := ContextWithSession(r.Context(), sess)
			ctx = ContextWithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminKeyMiddleware returns middleware that requires the request to carry
// the configured admin key in the X-Admin-Key header.
func AdminKeyMiddleware(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" {
				writeForbidden(w, "admin access is not configured")
				return
			}
			got := r.Header.Get("X-Admin-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(adminKey)) != 1 {
				writeForbidden(w, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorBody{
			Code:    "unauthorized",
			Message: message,
		},
	})
}

func writeForbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorBody{
			Code:    "forbidden",
			Message: message,
		},
	})
}
