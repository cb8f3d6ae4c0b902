package domain

import (
	"fmt"
	"strings"
	"time"
)

// Ticket is a time-bound transit pass. Trips dated inside the closed interval
// [StartDate, EndDate] count toward its price progress.
type Ticket struct {
	ID               int64
	Name             string
	Price            int64  // minor currency units
	Deduction        *int64 // minor currency units, never above Price
	StartDate        time.Time
	EndDate          time.Time
	CreatedTimestamp int64 // epoch milliseconds
}

// Validate enforces the per-ticket invariants. Disjointness between tickets
// is not checked here; see service.ValidityChecker.
func (t Ticket) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if t.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if t.Deduction != nil {
		if *t.Deduction < 0 {
			return fmt.Errorf("%w: deduction must not be negative", ErrValidation)
		}
		if *t.Deduction > t.Price {
			return fmt.Errorf("%w: deduction must not exceed price", ErrValidation)
		}
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end date are required", ErrValidation)
	}
	if t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("%w: end date must not be before start date", ErrValidation)
	}
	return nil
}

// Overlaps reports whether the ticket's validity period and the closed
// interval [start, end] share at least one day. Touching boundaries overlap.
func (t Ticket) Overlaps(start, end time.Time) bool {
	return !t.StartDate.After(end) && !start.After(t.EndDate)
}

// OverlapWarning is returned next to a saved ticket whose validity period
// intersects an existing ticket. It is informational and never blocks a save.
type OverlapWarning struct {
	Conflicting Ticket
}

// Message renders the warning for API clients.
func (w OverlapWarning) Message() string {
	return fmt.Sprintf("validity period overlaps ticket %q (%s to %s)",
		w.Conflicting.Name,
		w.Conflicting.StartDate.Format(DateLayout),
		w.Conflicting.EndDate.Format(DateLayout))
}
