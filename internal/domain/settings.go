package domain

import (
	"fmt"
	"strings"
)

// OptionalTripField names a trip field the user may hide from entry forms.
type OptionalTripField string

const (
	FieldAdditionalCosts OptionalTripField = "additional_costs"
	FieldDuration        OptionalTripField = "duration"
	FieldDelay           OptionalTripField = "delay"
	FieldDistance        OptionalTripField = "distance"
	FieldTypes           OptionalTripField = "types"
	FieldNotes           OptionalTripField = "notes"
)

// AllOptionalTripFields lists every optional field in display order.
var AllOptionalTripFields = []OptionalTripField{
	FieldAdditionalCosts,
	FieldDuration,
	FieldDelay,
	FieldDistance,
	FieldTypes,
	FieldNotes,
}

// ParseOptionalTripField maps a wire name to an OptionalTripField.
func ParseOptionalTripField(s string) (OptionalTripField, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, f := range AllOptionalTripFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown optional trip field %q", ErrValidation, s)
}

// Settings is the user preference snapshot consumed by the core.
type Settings struct {
	EnabledOptionalTripFields  []OptionalTripField
	IncludeDeductionInProgress bool
	HighlightedTicketID        *int64
}

// DefaultSettings is what a fresh installation starts with: every optional
// field enabled, deductions excluded from progress, nothing highlighted.
func DefaultSettings() Settings {
	fields := make([]OptionalTripField, len(AllOptionalTripFields))
	copy(fields, AllOptionalTripFields)
	return Settings{EnabledOptionalTripFields: fields}
}

// NormalizeOptionalTripFields removes duplicates and sorts into display order.
func NormalizeOptionalTripFields(fields []OptionalTripField) []OptionalTripField {
	seen := make(map[OptionalTripField]bool, len(fields))
	for _, f := range fields {
		seen[f] = true
	}
	out := []OptionalTripField{}
	for _, f := range AllOptionalTripFields {
		if seen[f] {
			out = append(out, f)
		}
	}
	return out
}
