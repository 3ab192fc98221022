// Package admin aggregates every user's ledger into the operator-facing
// rollup views.
package admin

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tally/internal/identity"
	"tally/internal/ledger"
)

// UserLister is the slice of the identity store the rollup needs.
type UserLister interface {
	Users(ctx context.Context) ([]identity.User, error)
}

// LedgerLoader is the slice of the ledger service the rollup needs.
type LedgerLoader interface {
	Load(ctx context.Context, email string) (ledger.Ledger, error)
}

// Summary is one user's row in the admin rollup.
type Summary struct {
	Email          string             `json:"email"`
	Name           string             `json:"name"`
	AuthProvider   string             `json:"auth_provider"`
	CreatedAt      time.Time          `json:"created_at"`
	TotalDays      int                `json:"total_days"`
	TotalHours     float64            `json:"total_hours"`
	EmployeeTotals map[string]float64 `json:"employee_totals"`
	LastActivity   *time.Time         `json:"last_activity,omitempty"`
}

// Activity is a single ledger entry in a user's activity log.
type Activity struct {
	Date     string  `json:"date"`
	Employee string  `json:"employee"`
	Hours    float64 `json:"hours"`
}

// Rollup builds admin views over the full user population.
type Rollup struct {
	users   UserLister
	ledgers LedgerLoader
}

// NewRollup creates a rollup over the given identity and ledger stores.
func NewRollup(users UserLister, ledgers LedgerLoader) *Rollup {
	return &Rollup{users: users, ledgers: ledgers}
}

// Summaries returns one Summary per registered user, in registration order.
// Users with no ledger data appear with zero totals.
func (r *Rollup) Summaries(ctx context.Context) ([]Summary, error) {
	users, err := r.users.Users(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(users))
	for _, u := range users {
		l, err := r.ledgers.Load(ctx, u.Email)
		if err != nil {
			return nil, fmt.Errorf("loading ledger for %s: %w", u.Email, err)
		}

		s := Summary{
			Email:          u.Email,
			Name:           u.Name,
			AuthProvider:   u.AuthProvider,
			CreatedAt:      u.CreatedAt,
			TotalDays:      l.EntryCount(),
			TotalHours:     l.Total(),
			EmployeeTotals: l.EmployeeTotals(),
		}
		if last, ok := l.LastActivity(); ok {
			s.LastActivity = &last
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// ActivityLog returns every ledger entry for the given user, newest first.
// Entries on the same date are ordered by employee name.
func (r *Rollup) ActivityLog(ctx context.Context, email string) ([]Activity, error) {
	l, err := r.ledgers.Load(ctx, email)
	if err != nil {
		return nil, err
	}

	entries := make([]Activity, 0, l.EntryCount())
	for employee, days := range l {
		for date, hours := range days {
			entries = append(entries, Activity{Date: date, Employee: employee, Hours: hours})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].Employee < entries[j].Employee
	})
	return entries, nil
}
