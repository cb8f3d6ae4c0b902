package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pkordes/fare-ledger/internal/domain"
	"github.com/pkordes/fare-ledger/internal/repo"
)

// ValidityChecker detects tickets whose validity periods intersect.
// Overlap is advisory: callers surface it as a warning and still save.
type ValidityChecker struct{}

// FindOverlapping returns the first ticket in existing whose closed interval
// [StartDate, EndDate] intersects [start, end], or nil.
func (ValidityChecker) FindOverlapping(start, end time.Time, existing []domain.Ticket) *domain.Ticket {
	for i := range existing {
		if existing[i].Overlaps(start, end) {
			t := existing[i]
			return &t
		}
	}
	return nil
}

// Check asks the store for the first ticket overlapping [start, end],
// skipping excludeID when the caller is editing that ticket.
func (ValidityChecker) Check(ctx context.Context, tickets repo.TicketRepo, start, end time.Time, excludeID *int64) (*domain.OverlapWarning, error) {
	conflict, err := tickets.FirstOverlapping(ctx, start, end, excludeID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service.ValidityChecker.Check: %w", err)
	}
	return &domain.OverlapWarning{Conflicting: conflict}, nil
}

// OverlappingPair is two tickets of one batch whose periods intersect.
type OverlappingPair struct {
	First, Second domain.Ticket
}

// FindOverlappingPairs reports every intersecting pair within tickets, in
// input order. Imported datasets bypass the per-write check, so the import
// path uses this to log what it brought in.
func (ValidityChecker) FindOverlappingPairs(tickets []domain.Ticket) []OverlappingPair {
	var pairs []OverlappingPair
	for i := range tickets {
		for j := i + 1; j < len(tickets); j++ {
			if tickets[j].Overlaps(tickets[i].StartDate, tickets[i].EndDate) {
				pairs = append(pairs, OverlappingPair{First: tickets[i], Second: tickets[j]})
			}
		}
	}
	return pairs
}
