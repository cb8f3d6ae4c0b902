// Package domain contains the core data types for the fare ledger.
// This package has zero external dependencies and is imported by every other
// internal package (repo, service, transfer, handler).
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Trip is a single journey the user paid (or rode) for.
// Fare is always present; every other optional field is independently nullable.
type Trip struct {
	ID              int64
	StartCity       string
	EndCity         string
	Fare            int64  // minor currency units
	AdditionalCosts *int64 // minor currency units
	Date            time.Time
	Duration        *time.Duration // minute precision
	Delay           *time.Duration // minute precision
	Distance        *float64       // kilometers
	Types           TransportTypes
	Notes           *string

	// CreatedTimestamp is the creation instant in epoch milliseconds.
	// It is kept verbatim across export/import.
	CreatedTimestamp int64
}

// Validate enforces the invariants a trip must satisfy before it is stored.
func (t Trip) Validate() error {
	if strings.TrimSpace(t.StartCity) == "" {
		return fmt.Errorf("%w: start city is required", ErrValidation)
	}
	if strings.TrimSpace(t.EndCity) == "" {
		return fmt.Errorf("%w: end city is required", ErrValidation)
	}
	if t.Fare < 0 {
		return fmt.Errorf("%w: fare must not be negative", ErrValidation)
	}
	if t.AdditionalCosts != nil && *t.AdditionalCosts < 0 {
		return fmt.Errorf("%w: additional costs must not be negative", ErrValidation)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if t.Duration != nil && *t.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrValidation)
	}
	if t.Distance != nil && *t.Distance < 0 {
		return fmt.Errorf("%w: distance must not be negative", ErrValidation)
	}
	return nil
}

// TruncateMinutes drops anything below minute precision from d.
// Durations are stored and exported as whole minutes.
func TruncateMinutes(d *time.Duration) *time.Duration {
	if d == nil {
		return nil
	}
	v := d.Truncate(time.Minute)
	return &v
}

// MaxMinutes is the largest magnitude, in whole minutes, a trip duration or
// delay can have. Beyond it the value no longer fits a time.Duration.
const MaxMinutes = math.MaxInt64 / int64(time.Minute)

// DurationFromMinutes converts a whole-minute count to a duration. Counts
// outside [-MaxMinutes, MaxMinutes] return an error wrapping ErrValidation.
func DurationFromMinutes(m int64) (time.Duration, error) {
	if m > MaxMinutes || m < -MaxMinutes {
		return 0, fmt.Errorf("%w: %d minutes is out of range", ErrValidation, m)
	}
	return time.Duration(m) * time.Minute, nil
}
