package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fare-ledger/internal/domain"
	"github.com/pkordes/fare-ledger/internal/repo"
	"github.com/pkordes/fare-ledger/testutil"
)

// newTestTripRepo returns a TripRepo on an emptied transaction that is
// rolled back when the test finishes.
func newTestTripRepo(t *testing.T) repo.TripRepo {
	t.Helper()
	return repo.NewTripRepo(testutil.NewEmptyTx(t))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

// tripFixture returns a fully populated domain.Trip for use in tests.
// Callers can override individual fields after calling this function.
func tripFixture() domain.Trip {
	return domain.Trip{
		StartCity:        "Berlin Hbf",
		EndCity:          "Potsdam",
		Fare:             380,
		AdditionalCosts:  ptr(int64(150)),
		Date:             day(2021, 3, 5),
		Duration:         ptr(35 * time.Minute),
		Delay:            ptr(5 * time.Minute),
		Distance:         ptr(26.4),
		Types:            domain.TransportTypes{domain.TransportSuburban, domain.TransportRegionalTrain},
		Notes:            ptr(`said "hi" to the conductor`),
		CreatedTimestamp: 1614938400000,
	}
}

func TestTripRepo_Create(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	input := tripFixture()
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.NotZero(t, got.ID, "ID should be DB-generated")
	input.ID = got.ID
	assert.Equal(t, input, got)
}

func TestTripRepo_Create_OptionalFieldsNil(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	input := domain.Trip{StartCity: "A", EndCity: "B", Fare: 0, Date: day(2021, 1, 1), CreatedTimestamp: 1}
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.Nil(t, got.AdditionalCosts)
	assert.Nil(t, got.Duration)
	assert.Nil(t, got.Delay)
	assert.Nil(t, got.Distance)
	assert.Nil(t, got.Types)
	assert.Nil(t, got.Notes)
}

func TestTripRepo_Create_EmptyTypesStayEmpty(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	input := tripFixture()
	input.Types = domain.TransportTypes{}
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.NotNil(t, got.Types)
	assert.Empty(t, got.Types)
}

func TestTripRepo_Create_NegativeFareViolatesConstraint(t *testing.T) {
	r := newTestTripRepo(t)

	input := tripFixture()
	input.Fare = -1
	_, err := r.Create(context.Background(), input)

	assert.ErrorIs(t, err, domain.ErrConstraint)
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	r := newTestTripRepo(t)

	_, err := r.GetByID(context.Background(), -42)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_Update(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	created.EndCity = "Brandenburg"
	created.Notes = nil
	created.Types = nil

	updated, err := r.Update(ctx, created)

	require.NoError(t, err)
	assert.Equal(t, created, updated)
}

func TestTripRepo_Update_NotFound(t *testing.T) {
	r := newTestTripRepo(t)

	ghost := tripFixture()
	ghost.ID = -1
	_, err := r.Update(context.Background(), ghost)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_Delete(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, created.ID))

	_, err = r.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "trip should be gone after delete")
	assert.ErrorIs(t, r.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestTripRepo_ListPaged_OrderedByDateDescending(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	for i, d := range []time.Time{day(2021, 3, 20), day(2021, 2, 10), day(2021, 3, 5)} {
		trip := tripFixture()
		trip.Date = d
		trip.CreatedTimestamp = int64(i)
		_, err := r.Create(ctx, trip)
		require.NoError(t, err)
	}

	first, err := r.ListPaged(ctx, domain.PaginationParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	second, err := r.ListPaged(ctx, domain.PaginationParams{Page: 2, Limit: 2})
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Len(t, second, 1)
	assert.Equal(t, day(2021, 3, 20), first[0].Date)
	assert.Equal(t, day(2021, 3, 5), first[1].Date)
	assert.Equal(t, day(2021, 2, 10), second[0].Date)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestTripRepo_SearchPaged(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	match := tripFixture()
	match.EndCity = "Leipzig"
	other := tripFixture()
	other.Notes = ptr("100% on time")

	_, err := r.Create(ctx, match)
	require.NoError(t, err)
	_, err = r.Create(ctx, other)
	require.NoError(t, err)

	got, err := r.SearchPaged(ctx, "leip", domain.NewPaginationParams(nil, nil))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Leipzig", got[0].EndCity)

	// "%" must match literally, not as a wildcard.
	got, err = r.SearchPaged(ctx, "100%", domain.NewPaginationParams(nil, nil))
	require.NoError(t, err)
	require.Len(t, got, 1)

	n, err := r.SearchCount(ctx, "potsdam")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only the unchanged fixture still ends in Potsdam")
}

func TestTripRepo_SumFaresBetween_ClosedInterval(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	for _, tc := range []struct {
		date time.Time
		fare int64
	}{
		{day(2021, 2, 28), 100},
		{day(2021, 3, 1), 200},
		{day(2021, 3, 31), 300},
		{day(2021, 4, 1), 400},
	} {
		trip := tripFixture()
		trip.Date, trip.Fare = tc.date, tc.fare
		_, err := r.Create(ctx, trip)
		require.NoError(t, err)
	}

	sum, err := r.SumFaresBetween(ctx, day(2021, 3, 1), day(2021, 3, 31))
	require.NoError(t, err)
	assert.Equal(t, int64(500), sum)

	sum, err = r.SumFaresBetween(ctx, day(2020, 1, 1), day(2020, 1, 31))
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestTripRepo_DeleteAllThenInsertAll(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	_, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	_, err = r.DeleteAll(ctx)
	require.NoError(t, err)

	bare := domain.Trip{StartCity: "X", EndCity: "Y", Fare: 1, Date: day(2020, 5, 5), CreatedTimestamp: 9}
	n, err := r.InsertAll(ctx, []domain.Trip{tripFixture(), bare})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	want := tripFixture()
	want.ID = all[0].ID
	assert.Equal(t, want, all[0])
	bare.ID = all[1].ID
	assert.Equal(t, bare, all[1])
}
