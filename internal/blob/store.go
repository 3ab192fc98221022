// Package blob provides the persistence layer: a key-value store of JSON
// documents, namespaced per user. Every persisted shape in the system (user
// registry, sessions, hours ledgers) lives in it as a single blob per key.
package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPersistence wraps storage write failures. Callers are expected to log it
// and carry on with their in-memory state rather than abort the session.
var ErrPersistence = errors.New("persistence failure")

// Store provides database operations for JSON blobs.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new blob store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UserKey builds the storage key for a per-user namespace. With an empty email
// the base key is returned unchanged.
func UserKey(base, email string) string {
	if email == "" {
		return base
	}
	return base + "_" + email
}

// Get returns the raw JSON stored under key, or (nil, nil) when the key does
// not exist.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM blobs WHERE key = $1`, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting blob %q: %w", key, err)
	}
	return value, nil
}

// Set upserts the JSON document stored under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO blobs (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("%w: setting blob %q: %v", ErrPersistence, key, err)
	}
	return nil
}

// Delete removes the blob stored under key; missing keys are a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM blobs WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("%w: deleting blob %q: %v", ErrPersistence, key, err)
	}
	return nil
}

// Keys returns all keys with the given prefix, ordered lexicographically.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM blobs WHERE key LIKE $1 || '%' ORDER BY key`, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing blob keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning blob key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
