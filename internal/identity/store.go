package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tally/internal/blob"
)

const (
	// RegistryKey is the blob key holding the whole user registry as one
	// JSON document (email -> User).
	RegistryKey = "users"

	// SessionBaseKey prefixes session blobs; the full key is
	// SessionBaseKey + "_" + tokenHash.
	SessionBaseKey = "auth_user"
)

// Blobs is the slice of the blob store the identity store needs.
type Blobs interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Store provides signup, login, federated login, profile updates, and
// session resolution over the blob store.
type Store struct {
	blobs Blobs
	ttl   time.Duration
	now   func() time.Time // injectable clock for testing
}

// NewStore creates an identity store. Sessions issued by it expire after ttl.
func NewStore(blobs Blobs, ttl time.Duration) *Store {
	return &Store{blobs: blobs, ttl: ttl, now: time.Now}
}

// Signup registers a new user and establishes a session. It returns the
// session and the plaintext bearer token to hand to the client.
func (s *Store) Signup(ctx context.Context, email, password, name string) (*Session, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	users, err := s.registry(ctx)
	if err != nil {
		return nil, "", err
	}
	if _, exists := users[email]; exists {
		return nil, "", ErrDuplicateEmail
	}
	if len(password) < minPasswordLength {
		return nil, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	users[email] = User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		AuthProvider: "local",
		CreatedAt:    s.now().UTC(),
	}
	if err := s.saveRegistry(ctx, users); err != nil {
		return nil, "", err
	}

	return s.createSession(ctx, users[email])
}

// Login authenticates by email and password and establishes a session.
// Unknown emails, wrong passwords, and federated-only accounts all fail
// with ErrInvalidCredentials.
func (s *Store) Login(ctx context.Context, email, password string) (*Session, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	users, err := s.registry(ctx)
	if err != nil {
		return nil, "", err
	}
	u, ok := users[email]
	if !ok {
		return nil, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	return s.createSession(ctx, u)
}

// LoginWithGoogle logs in from a verified federated claim, creating the user
// record on first login and merging picture/provider details on subsequent
// ones. Repeated calls with the same claim converge on the same record.
func (s *Store) LoginWithGoogle(ctx context.Context, claim Claim) (*Session, string, error) {
	email := strings.TrimSpace(strings.ToLower(claim.Email))

	users, err := s.registry(ctx)
	if err != nil {
		return nil, "", err
	}

	u, exists := users[email]
	if !exists {
		u = User{
			ID:        uuid.New().String(),
			Email:     email,
			Name:      claim.Name,
			CreatedAt: s.now().UTC(),
		}
	}
	if claim.Picture != "" {
		u.Picture = claim.Picture
	}
	u.GoogleID = claim.Subject
	u.AuthProvider = "google"

	if !exists || users[email] != u {
		users[email] = u
		if err := s.saveRegistry(ctx, users); err != nil {
			return nil, "", err
		}
	}

	return s.createSession(ctx, u)
}

// UpdateProfile changes the authenticated user's name and/or password.
// Empty arguments leave the corresponding field alone.
func (s *Store) UpdateProfile(ctx context.Context, token, name, newPassword string) (*Session, error) {
	sess, key, err := s.lookupSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotAuthenticated
	}

	users, err := s.registry(ctx)
	if err != nil {
		return nil, err
	}
	u, ok := users[sess.Email]
	if !ok {
		return nil, ErrNotAuthenticated
	}

	if name != "" {
		u.Name = name
	}
	if newPassword != "" {
		if len(newPassword) < minPasswordLength {
			return nil, ErrWeakPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	users[sess.Email] = u
	if err := s.saveRegistry(ctx, users); err != nil {
		return nil, err
	}

	sess.Name = u.Name
	if err := s.saveSession(ctx, key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Logout removes the session; the user record is untouched. An unknown token
// is a no-op.
func (s *Store) Logout(ctx context.Context, token string) error {
	return s.blobs.Delete(ctx, sessionKey(token))
}

// SessionFromToken resolves a bearer token to its session. Unknown and
// expired tokens both return (nil, nil).
func (s *Store) SessionFromToken(ctx context.Context, token string) (*Session, error) {
	sess, _, err := s.lookupSession(ctx, token)
	return sess, err
}

// Users returns the registry snapshot in registration order.
func (s *Store) Users(ctx context.Context) ([]User, error) {
	users, err := s.registry(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]User, 0, len(users))
	for _, u := range users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].Email < list[j].Email
	})
	return list, nil
}

// CleanExpiredSessions deletes session blobs past their expiry.
func (s *Store) CleanExpiredSessions(ctx context.Context) (int, error) {
	keys, err := s.blobs.Keys(ctx, SessionBaseKey+"_")
	if err != nil {
		return 0, err
	}

	var removed int
	for _, key := range keys {
		data, err := s.blobs.Get(ctx, key)
		if err != nil || data == nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil || s.now().After(sess.ExpiresAt) {
			if err := s.blobs.Delete(ctx, key); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (s *Store) registry(ctx context.Context) (map[string]User, error) {
	data, err := s.blobs.Get(ctx, RegistryKey)
	if err != nil {
		return nil, err
	}
	users := make(map[string]User)
	if data != nil {
		if err := json.Unmarshal(data, &users); err != nil {
			return nil, fmt.Errorf("%w: user registry is malformed: %v", blob.ErrPersistence, err)
		}
	}
	return users, nil
}

func (s *Store) saveRegistry(ctx context.Context, users map[string]User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("%w: encoding user registry: %v", blob.ErrPersistence, err)
	}
	return s.blobs.Set(ctx, RegistryKey, data)
}

// createSession issues a fresh opaque token, persists the session under the
// token's hash, and returns both.
func (s *Store) createSession(ctx context.Context, u User) (*Session, string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, "", fmt.Errorf("generating session token: %w", err)
	}
	token := hex.EncodeToString(b)

	now := s.now().UTC()
	sess := &Session{
		Email:     u.Email,
		Name:      u.Name,
		Picture:   u.Picture,
		Provider:  u.AuthProvider,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.saveSession(ctx, sessionKey(token), sess); err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

func (s *Store) saveSession(ctx context.Context, key string, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%w: encoding session: %v", blob.ErrPersistence, err)
	}
	return s.blobs.Set(ctx, key, data)
}

// lookupSession returns the live session for a token along with its blob
// key, or (nil, "", nil) when the token is unknown or expired.
func (s *Store) lookupSession(ctx context.Context, token string) (*Session, string, error) {
	if token == "" {
		return nil, "", nil
	}
	key := sessionKey(token)
	data, err := s.blobs.Get(ctx, key)
	if err != nil {
		return nil, "", err
	}
	if data == nil {
		return nil, "", nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, "", fmt.Errorf("%w: stored session is malformed: %v", blob.ErrPersistence, err)
	}
	if s.now().After(sess.ExpiresAt) {
		return nil, "", nil
	}
	return &sess, key, nil
}

func sessionKey(token string) string {
	h := sha256.Sum256([]byte(token))
	return blob.UserKey(SessionBaseKey, hex.EncodeToString(h[:]))
}
