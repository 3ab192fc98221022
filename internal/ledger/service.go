package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tally/internal/blob"
)

// BaseKey is the blob key for ledger data. Per-user ledgers live under
// BaseKey + "_" + email.
const BaseKey = "hoursDeclarationData"

// Blobs is the slice of the blob store the ledger service needs.
type Blobs interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Service loads and saves per-user ledgers through the blob store. Every
// successful mutation persists the full ledger snapshot, so concurrent
// writers resolve as last-write-wins at whole-ledger granularity.
type Service struct {
	blobs Blobs
}

// NewService creates a ledger service backed by the given blob store.
func NewService(blobs Blobs) *Service {
	return &Service{blobs: blobs}
}

// Load fetches the user's ledger. A missing blob yields an empty ledger; a
// malformed one is reported as a persistence failure rather than propagated.
func (s *Service) Load(ctx context.Context, email string) (Ledger, error) {
	data, err := s.blobs.Get(ctx, blob.UserKey(BaseKey, email))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return Ledger{}, nil
	}

	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: stored ledger for %s is malformed: %v", blob.ErrPersistence, email, err)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("%w: stored ledger for %s: %v", blob.ErrPersistence, email, err)
	}
	if l == nil {
		l = Ledger{}
	}
	return l, nil
}

// Save persists the full ledger snapshot to the user's namespace.
func (s *Service) Save(ctx context.Context, email string, l Ledger) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("%w: encoding ledger for %s: %v", blob.ErrPersistence, email, err)
	}
	return s.blobs.Set(ctx, blob.UserKey(BaseKey, email), data)
}

// SetHours records hours for an employee on a date in the user's ledger and
// persists the result. The returned ledger is the new snapshot.
func (s *Service) SetHours(ctx context.Context, email, employee string, date time.Time, hours float64) (Ledger, error) {
	l, err := s.Load(ctx, email)
	if err != nil {
		return nil, err
	}
	next, err := l.Set(employee, date, hours)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, email, next); err != nil {
		return nil, err
	}
	return next, nil
}

// DeleteHours removes an entry and persists the result. Deleting an absent
// entry is a no-op and skips the save.
func (s *Service) DeleteHours(ctx context.Context, email, employee string, date time.Time) (Ledger, error) {
	l, err := s.Load(ctx, email)
	if err != nil {
		return nil, err
	}
	next := l.Delete(employee, date)
	if next.EntryCount() == l.EntryCount() {
		return l, nil
	}
	if err := s.Save(ctx, email, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Replace validates an imported document and, when valid, replaces the
// user's entire ledger with it. An invalid document leaves the stored ledger
// untouched.
func (s *Service) Replace(ctx context.Context, email string, data []byte) (Ledger, error) {
	l, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, email, l); err != nil {
		return nil, err
	}
	return l, nil
}
