package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fare-ledger/internal/domain"
	"github.com/pkordes/fare-ledger/internal/service"
)

func ticketBetween(name string, start, end time.Time) domain.Ticket {
	return domain.Ticket{Name: name, Price: 4900, StartDate: start, EndDate: end}
}

func TestValidityChecker_FindOverlapping_BoundaryTouching(t *testing.T) {
	a := ticketBetween("A", day(2021, 1, 1), day(2021, 1, 31))
	var c service.ValidityChecker

	got := c.FindOverlapping(day(2021, 1, 31), day(2021, 2, 15), []domain.Ticket{a})

	require.NotNil(t, got)
	assert.Equal(t, "A", got.Name)
}

func TestValidityChecker_FindOverlapping_Disjoint(t *testing.T) {
	a := ticketBetween("A", day(2021, 1, 1), day(2021, 1, 31))
	var c service.ValidityChecker

	got := c.FindOverlapping(day(2021, 2, 1), day(2021, 2, 28), []domain.Ticket{a})

	assert.Nil(t, got)
}

func TestValidityChecker_FindOverlapping_ReturnsFirstMatch(t *testing.T) {
	existing := []domain.Ticket{
		ticketBetween("Jan", day(2021, 1, 1), day(2021, 1, 31)),
		ticketBetween("Feb", day(2021, 2, 1), day(2021, 2, 28)),
		ticketBetween("Feb2", day(2021, 2, 10), day(2021, 2, 20)),
	}
	var c service.ValidityChecker

	got := c.FindOverlapping(day(2021, 2, 15), day(2021, 3, 15), existing)

	require.NotNil(t, got)
	assert.Equal(t, "Feb", got.Name)
}

func TestValidityChecker_FindOverlappingPairs(t *testing.T) {
	tickets := []domain.Ticket{
		ticketBetween("A", day(2021, 1, 1), day(2021, 1, 31)),
		ticketBetween("B", day(2021, 1, 31), day(2021, 2, 15)),
		ticketBetween("C", day(2021, 3, 1), day(2021, 3, 31)),
	}
	var c service.ValidityChecker

	pairs := c.FindOverlappingPairs(tickets)

	require.Len(t, pairs, 1)
	assert.Equal(t, "A", pairs[0].First.Name)
	assert.Equal(t, "B", pairs[0].Second.Name)
}

func TestValidityChecker_Check(t *testing.T) {
	conflict := ticketBetween("A", day(2021, 1, 1), day(2021, 1, 31))
	var c service.ValidityChecker

	t.Run("overlap", func(t *testing.T) {
		r := &mockTicketRepo{firstOverlapping: func(context.Context, time.Time, time.Time, *int64) (domain.Ticket, error) {
			return conflict, nil
		}}
		w, err := c.Check(context.Background(), r, day(2021, 1, 15), day(2021, 2, 15), nil)
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, conflict, w.Conflicting)
		assert.Contains(t, w.Message(), `"A"`)
	})

	t.Run("none", func(t *testing.T) {
		r := &mockTicketRepo{firstOverlapping: noOverlap}
		w, err := c.Check(context.Background(), r, day(2021, 1, 15), day(2021, 2, 15), nil)
		require.NoError(t, err)
		assert.Nil(t, w)
	})

	t.Run("store error", func(t *testing.T) {
		boom := errors.New("boom")
		r := &mockTicketRepo{firstOverlapping: func(context.Context, time.Time, time.Time, *int64) (domain.Ticket, error) {
			return domain.Ticket{}, boom
		}}
		_, err := c.Check(context.Background(), r, day(2021, 1, 15), day(2021, 2, 15), nil)
		assert.ErrorIs(t, err, boom)
	})
}
