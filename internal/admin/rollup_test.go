package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"tally/internal/identity"
	"tally/internal/ledger"
)

type fakeUsers struct {
	users []identity.User
	err   error
}

func (f *fakeUsers) Users(context.Context) ([]identity.User, error) {
	return f.users, f.err
}

type fakeLedgers struct {
	ledgers map[string]ledger.Ledger
	err     error
}

func (f *fakeLedgers) Load(_ context.Context, email string) (ledger.Ledger, error) {
	if f.err != nil {
		return nil, f.err
	}
	if l, ok := f.ledgers[email]; ok {
		return l, nil
	}
	return ledger.Ledger{}, nil
}

func TestSummaries(t *testing.T) {
	created := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	users := &fakeUsers{users: []identity.User{
		{Email: "a@b.com", Name: "Alice", AuthProvider: "local", CreatedAt: created},
		{Email: "g@b.com", Name: "Grace", AuthProvider: "google", CreatedAt: created.Add(time.Hour)},
	}}
	ledgers := &fakeLedgers{ledgers: map[string]ledger.Ledger{
		"a@b.com": {
			"Meline": {"2024-03-05": 7.5, "2024-03-06": 4},
			"Cel":    {"2024-03-05": 8},
		},
	}}

	got, err := NewRollup(users, ledgers).Summaries(context.Background())
	if err != nil {
		t.Fatalf("Summaries failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	alice := got[0]
	if alice.Email != "a@b.com" || alice.TotalDays != 3 || alice.TotalHours != 19.5 {
		t.Errorf("summary = %+v", alice)
	}
	if alice.EmployeeTotals["Meline"] != 11.5 || alice.EmployeeTotals["Cel"] != 8 {
		t.Errorf("employee totals = %v", alice.EmployeeTotals)
	}
	if alice.LastActivity == nil || alice.LastActivity.Format(ledger.DateLayout) != "2024-03-06" {
		t.Errorf("last activity = %v", alice.LastActivity)
	}

	// A user with no ledger appears with zero totals.
	grace := got[1]
	if grace.Email != "g@b.com" || grace.TotalDays != 0 || grace.TotalHours != 0 {
		t.Errorf("summary = %+v", grace)
	}
	if grace.LastActivity != nil {
		t.Errorf("empty ledger last activity = %v", grace.LastActivity)
	}
}

func TestSummariesLedgerError(t *testing.T) {
	users := &fakeUsers{users: []identity.User{{Email: "a@b.com"}}}
	ledgers := &fakeLedgers{err: errors.New("store down")}

	if _, err := NewRollup(users, ledgers).Summaries(context.Background()); err == nil {
		t.Fatal("expected an error when a ledger fails to load")
	}
}

func TestActivityLog(t *testing.T) {
	ledgers := &fakeLedgers{ledgers: map[string]ledger.Ledger{
		"a@b.com": {
			"Meline": {"2024-03-05": 7.5, "2024-03-07": 4},
			"Cel":    {"2024-03-05": 8},
		},
	}}

	got, err := NewRollup(&fakeUsers{}, ledgers).ActivityLog(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("ActivityLog failed: %v", err)
	}

	want := []Activity{
		{Date: "2024-03-07", Employee: "Meline", Hours: 4},
		{Date: "2024-03-05", Employee: "Cel", Hours: 8},
		{Date: "2024-03-05", Employee: "Meline", Hours: 7.5},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestActivityLogEmpty(t *testing.T) {
	got, err := NewRollup(&fakeUsers{}, &fakeLedgers{}).ActivityLog(context.Background(), "nobody@b.com")
	if err != nil {
		t.Fatalf("ActivityLog failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("entries = %v, want none", got)
	}
}
