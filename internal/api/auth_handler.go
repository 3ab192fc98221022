package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"tally/internal/auth"
	"tally/internal/identity"
	"tally/internal/metrics"
)

// authHandler groups authentication HTTP handlers.
type authHandler struct {
	store   *identity.Store
	google  *identity.GoogleProvider
	metrics *metrics.Metrics
	states  *stateStore
}

func newAuthHandler(store *identity.Store, google *identity.GoogleProvider, m *metrics.Metrics) *authHandler {
	return &authHandler{
		store:   store,
		google:  google,
		metrics: m,
		states:  newStateStore(5 * time.Minute),
	}
}

// Signup handles POST /api/v1/auth/signup.
func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "email, password and name are required")
		return
	}

	sess, token, err := h.store.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.metrics.IncAuthFailure("signup")
		writeAuthError(w, err)
		return
	}

	h.metrics.IncAuthSuccess("signup")
	auditLog(r, "auth.signup", "email", sess.Email)
	writeJSON(w, http.StatusCreated, sessionResponse(sess, token))
}

// Login handles POST /api/v1/auth/login.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "email and password are required")
		return
	}

	sess, token, err := h.store.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.IncAuthFailure("password")
		writeAuthError(w, err)
		return
	}

	h.metrics.IncAuthSuccess("password")
	writeJSON(w, http.StatusOK, sessionResponse(sess, token))
}

// Logout handles POST /api/v1/auth/logout.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	_ = h.store.Logout(r.Context(), token)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me.
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": sess})
}

// UpdateProfile handles PUT /api/v1/auth/profile.
func (h *authHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Name == "" && req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "nothing to update")
		return
	}

	token := auth.TokenFromContext(r.Context())
	sess, err := h.store.UpdateProfile(r.Context(), token, req.Name, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	auditLog(r, "auth.profile_update", "email", sess.Email)
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": sess})
}

// GoogleLogin handles GET /api/v1/auth/google/login. It redirects the browser
// to the Google consent screen with a fresh anti-CSRF state.
func (h *authHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeError(w, http.StatusNotFound, "not_found", "google login is not configured")
		return
	}

	state := h.states.Issue()
	http.Redirect(w, r, h.google.LoginURL(state), http.StatusFound)
}

// GoogleCallback handles GET /api/v1/auth/google/callback. The authorization
// code is exchanged server-side; the resulting claim is never taken from the
// client.
func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeError(w, http.StatusNotFound, "not_found", "google login is not configured")
		return
	}

	q := r.URL.Query()
	if !h.states.Consume(q.Get("state")) {
		h.metrics.IncAuthFailure("google")
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired state")
		return
	}
	code := q.Get("code")
	if code == "" {
		h.metrics.IncAuthFailure("google")
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing authorization code")
		return
	}

	claim, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.metrics.IncAuthFailure("google")
		writeError(w, http.StatusUnauthorized, "unauthorized", "google authorization failed")
		return
	}

	sess, token, err := h.store.LoginWithGoogle(r.Context(), claim)
	if err != nil {
		h.metrics.IncAuthFailure("google")
		writeAuthError(w, err)
		return
	}

	h.metrics.IncAuthSuccess("google")
	auditLog(r, "auth.google_login", "email", sess.Email)
	writeJSON(w, http.StatusOK, sessionResponse(sess, token))
}

func sessionResponse(sess *identity.Session, token string) map[string]interface{} {
	return map[string]interface{}{
		"token": token,
		"user":  sess,
	}
}

// writeAuthError maps identity errors to HTTP responses.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "conflict", "an account with this email already exists")
	case errors.Is(err, identity.ErrWeakPassword):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "password must be at least 6 characters")
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
	case errors.Is(err, identity.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "authentication failed")
	}
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && h[:7] == "Bearer " {
		return h[7:]
	}
	return ""
}

// stateStore tracks short-lived OAuth states.
type stateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	ttl    time.Duration
}

func newStateStore(ttl time.Duration) *stateStore {
	return &stateStore{states: make(map[string]time.Time), ttl: ttl}
}

// Issue creates and remembers a new random state.
func (s *stateStore) Issue() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	state := hex.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, exp := range s.states {
		if now.After(exp) {
			delete(s.states, k)
		}
	}
	s.states[state] = now.Add(s.ttl)
	return state
}

// Consume validates a state and removes it. Each state is single-use.
func (s *stateStore) Consume(state string) bool {
	if state == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.states[state]
	delete(s.states, state)
	return ok && time.Now().Before(exp)
}
