package handler

import (
	"fmt"
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/fare-ledger/internal/domain"
)

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body TripRequest
	if err := decodeBody(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	trip, err := s.requestToTrip(0, body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
		return
	}

	created, err := s.trips.Create(r.Context(), trip)
	if err != nil {
		writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusCreated, s.tripToResponse(created))
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	trips, total, err := s.trips.List(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err, "trips not found")
		return
	}

	data := make([]Trip, len(trips))
	for i, t := range trips {
		data[i] = s.tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripList{
		Data: data,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badID(w, err)
		return
	}
	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, s.tripToResponse(trip))
}

// UpdateTrip handles PUT /trips/{id}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badID(w, err)
		return
	}
	var body TripRequest
	if err := decodeBody(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	trip, err := s.requestToTrip(id, body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
		return
	}

	updated, err := s.trips.Update(r.Context(), trip)
	if err != nil {
		writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, s.tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badID(w, err)
		return
	}
	if err := s.trips.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "trip not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

// requestToTrip converts a request body into a domain.Trip, parsing money
// fields with the amount codec.
func (s *Server) requestToTrip(id int64, body TripRequest) (domain.Trip, error) {
	fare, err := s.codec.Parse(body.Fare)
	if err != nil {
		return domain.Trip{}, err
	}
	if fare == nil {
		return domain.Trip{}, fmt.Errorf("%w: fare is required", domain.ErrValidation)
	}
	extra, err := s.optionalAmount(body.AdditionalCosts)
	if err != nil {
		return domain.Trip{}, err
	}
	types, err := domain.ParseTransportTypes(body.Types)
	if err != nil {
		return domain.Trip{}, err
	}
	duration, err := minutesToDuration(body.DurationMinutes)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("durationMinutes: %w", err)
	}
	delay, err := minutesToDuration(body.DelayMinutes)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("delayMinutes: %w", err)
	}
	return domain.Trip{
		ID:              id,
		StartCity:       body.StartCity,
		EndCity:         body.EndCity,
		Fare:            *fare,
		AdditionalCosts: extra,
		Date:            body.Date.Time,
		Duration:        duration,
		Delay:           delay,
		Distance:        body.DistanceKm,
		Types:           types,
		Notes:           body.Notes,
	}, nil
}

// tripToResponse converts a domain.Trip into its wire form.
func (s *Server) tripToResponse(t domain.Trip) Trip {
	resp := Trip{
		Id:               t.ID,
		StartCity:        t.StartCity,
		EndCity:          t.EndCity,
		Fare:             t.Fare,
		FareText:         s.codec.FormatPrice(t.Fare),
		AdditionalCosts:  t.AdditionalCosts,
		Date:             openapi_types.Date{Time: t.Date},
		DurationMinutes:  durationToMinutes(t.Duration),
		DelayMinutes:     durationToMinutes(t.Delay),
		DistanceKm:       t.Distance,
		Types:            t.Types.Strings(),
		Notes:            t.Notes,
		CreatedTimestamp: t.CreatedTimestamp,
	}
	if t.AdditionalCosts != nil {
		text := s.codec.FormatPrice(*t.AdditionalCosts)
		resp.AdditionalCostsText = &text
	}
	return resp
}

func minutesToDuration(m *int) (*time.Duration, error) {
	if m == nil {
		return nil, nil
	}
	d, err := domain.DurationFromMinutes(int64(*m))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func durationToMinutes(d *time.Duration) *int {
	if d == nil {
		return nil
	}
	m := int(d.Minutes())
	return &m
}

// optionalAmount parses an optional money field; absent and blank both mean unset.
func (s *Server) optionalAmount(input *string) (*int64, error) {
	if input == nil {
		return nil, nil
	}
	return s.codec.Parse(*input)
}
