package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/fare-ledger/internal/domain"
)

// CurrentSchemaVersion is the envelope version written by Encode.
const CurrentSchemaVersion = 1

// EnvelopeV1 is the top-level JSON document of schema version 1.
type EnvelopeV1 struct {
	SchemaVersion int              `json:"schemaVersion"`
	Settings      SettingsRecordV1 `json:"settings"`
	Trips         []TripRecordV1   `json:"trips"`
	Tickets       []TicketRecordV1 `json:"tickets"`
}

// SettingsRecordV1 is the subset of settings carried by the envelope.
type SettingsRecordV1 struct {
	EnabledOptionalTripFields   []string `json:"enabledOptionalTripFields"`
	IncludeDeductionsInProgress bool     `json:"includeDeductionsInProgress"`
}

// TripRecordV1 mirrors domain.Trip with money as int64 minor units and
// durations as whole minutes.
type TripRecordV1 struct {
	StartCity        string             `json:"startCity"`
	EndCity          string             `json:"endCity"`
	Fare             int64              `json:"fare"`
	AdditionalCosts  *int64             `json:"additionalCosts,omitempty"`
	Date             openapi_types.Date `json:"date"`
	Duration         *int               `json:"duration,omitempty"`
	Delay            *int               `json:"delay,omitempty"`
	Distance         *float64           `json:"distance,omitempty"`
	Type             []string           `json:"type"`
	Notes            *string            `json:"notes,omitempty"`
	CreatedTimestamp int64              `json:"createdTimestamp"`
}

// TicketRecordV1 mirrors domain.Ticket.
type TicketRecordV1 struct {
	Name             string             `json:"name"`
	Price            int64              `json:"price"`
	Deduction        *int64             `json:"deduction,omitempty"`
	StartDate        openapi_types.Date `json:"startDate"`
	EndDate          openapi_types.Date `json:"endDate"`
	CreatedTimestamp int64              `json:"createdTimestamp"`
}

// Encode writes ds as a current-version envelope.
func Encode(w io.Writer, ds domain.Dataset) error {
	env := EnvelopeV1{
		SchemaVersion: CurrentSchemaVersion,
		Settings:      settingsToRecord(ds.Settings),
		Trips:         make([]TripRecordV1, len(ds.Trips)),
		Tickets:       make([]TicketRecordV1, len(ds.Tickets)),
	}
	for i, t := range ds.Trips {
		env.Trips[i] = tripToRecord(t)
	}
	for i, t := range ds.Tickets {
		env.Tickets[i] = ticketToRecord(t)
	}
	if err := json.NewEncoder(w).Encode(env); err != nil {
		return fmt.Errorf("transfer.Encode: %w: %w", domain.ErrIO, err)
	}
	return nil
}

func settingsToRecord(s domain.Settings) SettingsRecordV1 {
	fields := make([]string, 0, len(s.EnabledOptionalTripFields))
	for _, f := range domain.NormalizeOptionalTripFields(s.EnabledOptionalTripFields) {
		fields = append(fields, string(f))
	}
	return SettingsRecordV1{
		EnabledOptionalTripFields:   fields,
		IncludeDeductionsInProgress: s.IncludeDeductionInProgress,
	}
}

func tripToRecord(t domain.Trip) TripRecordV1 {
	return TripRecordV1{
		StartCity:        t.StartCity,
		EndCity:          t.EndCity,
		Fare:             t.Fare,
		AdditionalCosts:  t.AdditionalCosts,
		Date:             openapi_types.Date{Time: t.Date},
		Duration:         wholeMinutes(t.Duration),
		Delay:            wholeMinutes(t.Delay),
		Distance:         t.Distance,
		Type:             t.Types.Strings(),
		Notes:            t.Notes,
		CreatedTimestamp: t.CreatedTimestamp,
	}
}

func ticketToRecord(t domain.Ticket) TicketRecordV1 {
	return TicketRecordV1{
		Name:             t.Name,
		Price:            t.Price,
		Deduction:        t.Deduction,
		StartDate:        openapi_types.Date{Time: t.StartDate},
		EndDate:          openapi_types.Date{Time: t.EndDate},
		CreatedTimestamp: t.CreatedTimestamp,
	}
}

func wholeMinutes(d *time.Duration) *int {
	if d == nil {
		return nil
	}
	m := int(d.Minutes())
	return &m
}
