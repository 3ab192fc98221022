// Package identity manages the user registry, authentication, and sessions.
// Users live in a single registry blob keyed by email; sessions are opaque
// bearer tokens whose hashes key per-session blobs.
package identity

import (
	"errors"
	"time"
)

const minPasswordLength = 6

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// User is a registered account. Registry entries are keyed by email; ID is a
// stable identifier that survives profile changes.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Picture      string    `json:"picture,omitempty"`
	GoogleID     string    `json:"google_id,omitempty"`
	AuthProvider string    `json:"auth_provider,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public returns the user fields safe to hand to clients.
func (u User) Public() map[string]any {
	out := map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
	}
	if u.Picture != "" {
		out["picture"] = u.Picture
	}
	if u.AuthProvider != "" {
		out["auth_provider"] = u.AuthProvider
	}
	return out
}

// Session is an authenticated user's public identity, persisted under the
// session blob key for reload continuity.
type Session struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Claim is a verified federated identity assertion. It is produced
// server-side by the Google code exchange, never taken from the client.
type Claim struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Subject       string `json:"sub"`
	EmailVerified bool   `json:"email_verified"`
}
