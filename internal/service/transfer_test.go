package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fare-ledger/internal/domain"
	"github.com/pkordes/fare-ledger/internal/repo"
	"github.com/pkordes/fare-ledger/internal/service"
)

// memDataset is a transactional in-memory store: WithinTx works on a copy
// and only commits it when fn succeeds.
type memDataset struct {
	trips   []domain.Trip
	tickets []domain.Ticket

	failTripInsert bool
	// ops, when set, records the ticket store calls made inside WithinTx.
	ops *[]string
}

func (d *memDataset) record(op string) {
	if d.ops != nil {
		*d.ops = append(*d.ops, op)
	}
}

func (d *memDataset) WithinTx(ctx context.Context, fn func(repo.Stores) error) error {
	work := &memDataset{
		trips:          append([]domain.Trip(nil), d.trips...),
		tickets:        append([]domain.Ticket(nil), d.tickets...),
		failTripInsert: d.failTripInsert,
		ops:            d.ops,
	}
	if err := fn(work.stores()); err != nil {
		return err
	}
	d.trips, d.tickets = work.trips, work.tickets
	return nil
}

func (d *memDataset) stores() repo.Stores {
	return repo.Stores{Trips: d.tripRepo(), Tickets: d.ticketRepo()}
}

func (d *memDataset) tripRepo() *mockTripRepo {
	return &mockTripRepo{
		list: func(context.Context) ([]domain.Trip, error) { return d.trips, nil },
		deleteAll: func(context.Context) (int64, error) {
			n := int64(len(d.trips))
			d.trips = nil
			return n, nil
		},
		insertAll: func(_ context.Context, trips []domain.Trip) (int64, error) {
			if d.failTripInsert {
				return 0, domain.ErrConstraint
			}
			for _, t := range trips {
				t.ID = int64(len(d.trips) + 1)
				d.trips = append(d.trips, t)
			}
			return int64(len(trips)), nil
		},
	}
}

func (d *memDataset) ticketRepo() *mockTicketRepo {
	return &mockTicketRepo{
		list: func(context.Context) ([]domain.Ticket, error) { return d.tickets, nil },
		lockWrites: func(context.Context) error {
			d.record("lock")
			return nil
		},
		deleteAll: func(context.Context) (int64, error) {
			d.record("delete")
			n := int64(len(d.tickets))
			d.tickets = nil
			return n, nil
		},
		insertAll: func(_ context.Context, tickets []domain.Ticket) (int64, error) {
			for _, t := range tickets {
				t.ID = int64(len(d.tickets) + 1)
				d.tickets = append(d.tickets, t)
			}
			return int64(len(tickets)), nil
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTransferService(d *memDataset, gen *service.Generation) *service.TransferService {
	settings := &fakeSettings{value: domain.DefaultSettings()}
	return service.NewTransferService(d.tripRepo(), d.ticketRepo(), d, settings, gen, time.UTC, discardLogger())
}

func seededDataset() *memDataset {
	return &memDataset{
		trips: []domain.Trip{
			{ID: 1, StartCity: "Berlin", EndCity: "Potsdam", Fare: 380, Date: day(2024, 3, 5), Notes: ptr("window seat"), CreatedTimestamp: 1},
			{ID: 2, StartCity: "Potsdam", EndCity: "Berlin", Fare: 380, Date: day(2024, 3, 6), Duration: ptr(35 * time.Minute), CreatedTimestamp: 2},
		},
		tickets: []domain.Ticket{
			{ID: 1, Name: "March", Price: 4900, Deduction: ptr(int64(900)), StartDate: day(2024, 3, 1), EndDate: day(2024, 3, 31), CreatedTimestamp: 3},
		},
	}
}

func withoutIDs(d *memDataset) ([]domain.Trip, []domain.Ticket) {
	trips := make([]domain.Trip, len(d.trips))
	for i, t := range d.trips {
		t.ID = 0
		trips[i] = t
	}
	tickets := make([]domain.Ticket, len(d.tickets))
	for i, t := range d.tickets {
		t.ID = 0
		tickets[i] = t
	}
	return trips, tickets
}

// ---- export ----------------------------------------------------------------

func TestTransferService_ExportCSV(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, newTransferService(seededDataset(), nil).ExportCSV(context.Background(), &buf))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], `"Berlin","Potsdam","3.80"`)
	assert.Contains(t, lines[2], `"35"`)
}

func TestTransferService_ExportJSON_StoreFailure(t *testing.T) {
	d := seededDataset()
	boom := errors.New("connection reset")
	trips := &mockTripRepo{list: func(context.Context) ([]domain.Trip, error) { return nil, boom }}
	svc := service.NewTransferService(trips, d.ticketRepo(), d, &fakeSettings{}, nil, time.UTC, discardLogger())

	err := svc.ExportJSON(context.Background(), io.Discard)

	assert.ErrorIs(t, err, domain.ErrIO)
	assert.ErrorIs(t, err, boom)
}

// ---- import ----------------------------------------------------------------

func TestTransferService_RoundTripIntoEmptyStore(t *testing.T) {
	src := seededDataset()
	var backup bytes.Buffer
	require.NoError(t, newTransferService(src, nil).ExportJSON(context.Background(), &backup))

	dst := &memDataset{}
	gen := service.NewGeneration()
	res, err := newTransferService(dst, gen).ImportJSON(context.Background(), &backup)

	require.NoError(t, err)
	assert.Equal(t, service.ImportResult{Trips: 2, Tickets: 1}, res)
	assert.Equal(t, uint64(1), gen.Current())

	wantTrips, wantTickets := withoutIDs(src)
	gotTrips, gotTickets := withoutIDs(dst)
	assert.Equal(t, wantTrips, gotTrips)
	assert.Equal(t, wantTickets, gotTickets)
}

func TestTransferService_Import_ReplacesExistingData(t *testing.T) {
	var backup bytes.Buffer
	require.NoError(t, newTransferService(seededDataset(), nil).ExportJSON(context.Background(), &backup))

	dst := &memDataset{
		trips: []domain.Trip{{ID: 1, StartCity: "Old", EndCity: "Trip", Date: day(2020, 1, 1)}},
	}
	_, err := newTransferService(dst, nil).ImportJSON(context.Background(), &backup)

	require.NoError(t, err)
	require.Len(t, dst.trips, 2)
	assert.Equal(t, "Berlin", dst.trips[0].StartCity)
}

func TestTransferService_Import_LocksTicketWritesBeforeDeleting(t *testing.T) {
	var backup bytes.Buffer
	require.NoError(t, newTransferService(seededDataset(), nil).ExportJSON(context.Background(), &backup))

	var ops []string
	dst := &memDataset{ops: &ops}
	_, err := newTransferService(dst, nil).ImportJSON(context.Background(), &backup)

	require.NoError(t, err)
	assert.Equal(t, []string{"lock", "delete"}, ops)
}

func TestTransferService_Import_FailedTripInsertKeepsPriorDataset(t *testing.T) {
	var backup bytes.Buffer
	require.NoError(t, newTransferService(seededDataset(), nil).ExportJSON(context.Background(), &backup))

	prior := &memDataset{
		trips:   []domain.Trip{{ID: 1, StartCity: "Old", EndCity: "Trip", Fare: 100, Date: day(2020, 1, 1)}},
		tickets: []domain.Ticket{{ID: 1, Name: "Old ticket", Price: 100, StartDate: day(2020, 1, 1), EndDate: day(2020, 1, 31)}},
	}
	prior.failTripInsert = true
	wantTrips := append([]domain.Trip(nil), prior.trips...)
	wantTickets := append([]domain.Ticket(nil), prior.tickets...)
	gen := service.NewGeneration()

	_, err := newTransferService(prior, gen).ImportJSON(context.Background(), &backup)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConstraint)
	assert.Equal(t, wantTrips, prior.trips)
	assert.Equal(t, wantTickets, prior.tickets)
	assert.Zero(t, gen.Current())
}

func TestTransferService_Import_MalformedEnvelopeTouchesNothing(t *testing.T) {
	d := seededDataset()
	wantTrips, wantTickets := d.trips, d.tickets

	_, err := newTransferService(d, nil).ImportJSON(context.Background(), strings.NewReader(`{"schemaVersion":1,"trips":[]}`))

	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Equal(t, wantTrips, d.trips)
	assert.Equal(t, wantTickets, d.tickets)
}
