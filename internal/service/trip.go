// Package service contains the business logic for the fare ledger API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkordes/fare-ledger/internal/domain"
	"github.com/pkordes/fare-ledger/internal/repo"
)

// TripService implements business logic for Trip operations.
type TripService struct {
	repo repo.TripRepo
	gen  *Generation
	now  func() time.Time
}

// NewTripService constructs a TripService backed by the provided TripRepo.
// Successful writes bump gen.
func NewTripService(r repo.TripRepo, gen *Generation) *TripService {
	return &TripService{repo: r, gen: gen, now: time.Now}
}

// Create validates and persists a new trip, stamping its creation time.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	trip = normalizeTrip(trip)
	if err := trip.Validate(); err != nil {
		return domain.Trip{}, err
	}
	trip.CreatedTimestamp = s.now().UnixMilli()

	created, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	s.gen.Bump()
	return created, nil
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// List returns one page of trips, newest first, plus the total count.
func (s *TripService) List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	trips, err := s.repo.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	return trips, total, nil
}

// Update validates and updates an existing trip. The creation timestamp is
// kept as stored.
func (s *TripService) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	trip = normalizeTrip(trip)
	if err := trip.Validate(); err != nil {
		return domain.Trip{}, err
	}
	updated, err := s.repo.Update(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	s.gen.Bump()
	return updated, nil
}

// Delete removes a trip by ID.
func (s *TripService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	s.gen.Bump()
	return nil
}

// normalizeTrip trims text fields, drops the time of day from the date and
// truncates durations to whole minutes.
func normalizeTrip(t domain.Trip) domain.Trip {
	t.StartCity = strings.TrimSpace(t.StartCity)
	t.EndCity = strings.TrimSpace(t.EndCity)
	if !t.Date.IsZero() {
		t.Date = domain.CalendarDate(t.Date)
	}
	t.Duration = domain.TruncateMinutes(t.Duration)
	t.Delay = domain.TruncateMinutes(t.Delay)
	return t
}
