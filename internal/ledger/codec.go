package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidImportFormat is returned when an imported document does not
// conform to the ledger shape.
var ErrInvalidImportFormat = errors.New("invalid import format")

// Decode parses and validates a JSON document as a ledger. On any failure the
// returned error wraps ErrInvalidImportFormat and no partial ledger is
// returned.
func Decode(data []byte) (Ledger, error) {
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImportFormat, err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = Ledger{}
	}
	return l, nil
}

// Encode renders the ledger as the export document: pretty-printed JSON.
func Encode(l Ledger) ([]byte, error) {
	if l == nil {
		l = Ledger{}
	}
	return json.MarshalIndent(l, "", "  ")
}

// Validate checks every entry against the ledger invariants: parseable date
// keys and finite, non-negative hour values.
func (l Ledger) Validate() error {
	for employee, days := range l {
		if employee == "" {
			return fmt.Errorf("%w: empty employee name", ErrInvalidImportFormat)
		}
		for key, hours := range days {
			if _, err := ParseDateKey(key); err != nil {
				return fmt.Errorf("%w: bad date key %q for %s", ErrInvalidImportFormat, key, employee)
			}
			if err := validateHours(hours); err != nil {
				return fmt.Errorf("%w: bad hours %v on %s for %s", ErrInvalidImportFormat, hours, key, employee)
			}
		}
	}
	return nil
}

// ExportFilename returns the download filename for an export taken at t.
func ExportFilename(t time.Time) string {
	return "hours-declaration-" + t.Format(DateLayout) + ".json"
}
