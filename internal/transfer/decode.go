package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/fare-ledger/internal/domain"
)

// decoders maps a schema version to the adapter that reads it.
// Older versions stay registered so old backups keep importing.
var decoders = map[int]func(json.RawMessage) (domain.Dataset, error){
	1: decodeV1,
}

// Decode reads a whole envelope and converts it to a dataset.
// It fails with domain.ErrParse when the document is not valid JSON, names an
// unknown schema version, or lacks a required field; and with domain.ErrIO
// when r cannot be read. There is no partial result.
func Decode(r io.Reader) (domain.Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("transfer.Decode: %w: %w", domain.ErrIO, err)
	}

	var head struct {
		SchemaVersion *int `json:"schemaVersion"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return domain.Dataset{}, parseError(err)
	}
	if head.SchemaVersion == nil {
		return domain.Dataset{}, parseError(errors.New("schemaVersion is required"))
	}
	decode, ok := decoders[*head.SchemaVersion]
	if !ok {
		return domain.Dataset{}, parseError(fmt.Errorf("unsupported schemaVersion %d", *head.SchemaVersion))
	}
	ds, err := decode(raw)
	if err != nil {
		return domain.Dataset{}, parseError(err)
	}
	return ds, nil
}

func parseError(err error) error {
	return fmt.Errorf("transfer.Decode: %w: %w", domain.ErrParse, err)
}

// The *In types mirror the V1 records with pointers on required fields so a
// missing field can be told apart from a zero value.
type (
	envelopeV1In struct {
		Settings *settingsV1In `json:"settings"`
		Trips    *[]tripV1In   `json:"trips"`
		Tickets  *[]ticketV1In `json:"tickets"`
	}

	settingsV1In struct {
		EnabledOptionalTripFields   *[]string `json:"enabledOptionalTripFields"`
		IncludeDeductionsInProgress *bool     `json:"includeDeductionsInProgress"`
	}

	tripV1In struct {
		StartCity        *string             `json:"startCity"`
		EndCity          *string             `json:"endCity"`
		Fare             *int64              `json:"fare"`
		AdditionalCosts  *int64              `json:"additionalCosts"`
		Date             *openapi_types.Date `json:"date"`
		Duration         *int64              `json:"duration"`
		Delay            *int64              `json:"delay"`
		Distance         *float64            `json:"distance"`
		Type             []string            `json:"type"`
		Notes            *string             `json:"notes"`
		CreatedTimestamp *int64              `json:"createdTimestamp"`
	}

	ticketV1In struct {
		Name             *string             `json:"name"`
		Price            *int64              `json:"price"`
		Deduction        *int64              `json:"deduction"`
		StartDate        *openapi_types.Date `json:"startDate"`
		EndDate          *openapi_types.Date `json:"endDate"`
		CreatedTimestamp *int64              `json:"createdTimestamp"`
	}
)

func decodeV1(raw json.RawMessage) (domain.Dataset, error) {
	var env envelopeV1In
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.Dataset{}, err
	}
	if env.Settings == nil || env.Trips == nil || env.Tickets == nil {
		return domain.Dataset{}, errors.New("settings, trips and tickets are required")
	}

	settings, err := env.Settings.toDomain()
	if err != nil {
		return domain.Dataset{}, err
	}
	ds := domain.Dataset{
		Settings: settings,
		Trips:    make([]domain.Trip, len(*env.Trips)),
		Tickets:  make([]domain.Ticket, len(*env.Tickets)),
	}
	for i, rec := range *env.Trips {
		t, err := rec.toDomain()
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("trips[%d]: %w", i, err)
		}
		ds.Trips[i] = t
	}
	for i, rec := range *env.Tickets {
		t, err := rec.toDomain()
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("tickets[%d]: %w", i, err)
		}
		ds.Tickets[i] = t
	}
	return ds, nil
}

func (s settingsV1In) toDomain() (domain.Settings, error) {
	if s.EnabledOptionalTripFields == nil || s.IncludeDeductionsInProgress == nil {
		return domain.Settings{}, errors.New("settings: enabledOptionalTripFields and includeDeductionsInProgress are required")
	}
	fields := make([]domain.OptionalTripField, 0, len(*s.EnabledOptionalTripFields))
	for _, name := range *s.EnabledOptionalTripFields {
		f, err := domain.ParseOptionalTripField(name)
		if err != nil {
			return domain.Settings{}, fmt.Errorf("settings: %w", err)
		}
		fields = append(fields, f)
	}
	return domain.Settings{
		EnabledOptionalTripFields:  domain.NormalizeOptionalTripFields(fields),
		IncludeDeductionInProgress: *s.IncludeDeductionsInProgress,
	}, nil
}

func (r tripV1In) toDomain() (domain.Trip, error) {
	if r.StartCity == nil || r.EndCity == nil || r.Fare == nil || r.Date == nil || r.CreatedTimestamp == nil {
		return domain.Trip{}, errors.New("startCity, endCity, fare, date and createdTimestamp are required")
	}
	types, err := domain.ParseTransportTypes(r.Type)
	if err != nil {
		return domain.Trip{}, err
	}
	duration, err := fromWholeMinutes(r.Duration)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("duration: %w", err)
	}
	delay, err := fromWholeMinutes(r.Delay)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("delay: %w", err)
	}
	return domain.Trip{
		StartCity:        *r.StartCity,
		EndCity:          *r.EndCity,
		Fare:             *r.Fare,
		AdditionalCosts:  r.AdditionalCosts,
		Date:             r.Date.Time,
		Duration:         duration,
		Delay:            delay,
		Distance:         r.Distance,
		Types:            types,
		Notes:            r.Notes,
		CreatedTimestamp: *r.CreatedTimestamp,
	}, nil
}

func (r ticketV1In) toDomain() (domain.Ticket, error) {
	if r.Name == nil || r.Price == nil || r.StartDate == nil || r.EndDate == nil || r.CreatedTimestamp == nil {
		return domain.Ticket{}, errors.New("name, price, startDate, endDate and createdTimestamp are required")
	}
	return domain.Ticket{
		Name:             *r.Name,
		Price:            *r.Price,
		Deduction:        r.Deduction,
		StartDate:        r.StartDate.Time,
		EndDate:          r.EndDate.Time,
		CreatedTimestamp: *r.CreatedTimestamp,
	}, nil
}

func fromWholeMinutes(m *int64) (*time.Duration, error) {
	if m == nil {
		return nil, nil
	}
	d, err := domain.DurationFromMinutes(*m)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
