package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/fare-ledger/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record with its
	// DB-generated id.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.Trip, error)

	// Update replaces every field of an existing trip except its id and
	// creation timestamp. Returns domain.ErrNotFound if it does not exist.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of stored trips.
	Count(ctx context.Context) (int64, error)

	// ListPaged returns one page of trips ordered by date descending, newest
	// entry first within a day.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, error)

	// SearchPaged returns one page of trips whose start city, end city or notes
	// contain query (case-insensitive), in the same order as ListPaged.
	SearchPaged(ctx context.Context, query string, p domain.PaginationParams) ([]domain.Trip, error)

	// SearchCount returns the number of trips SearchPaged would page through.
	SearchCount(ctx context.Context, query string) (int64, error)

	// SumFaresBetween returns the sum of fares of trips dated within the closed
	// interval [from, to]. An empty range sums to zero.
	SumFaresBetween(ctx context.Context, from, to time.Time) (int64, error)

	// List returns every trip in store (insertion) order.
	List(ctx context.Context) ([]domain.Trip, error)

	// DeleteAll removes every trip and returns how many were deleted.
	DeleteAll(ctx context.Context) (int64, error)

	// InsertAll bulk-inserts trips, letting the store assign new ids.
	InsertAll(ctx context.Context, trips []domain.Trip) (int64, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, start_city, end_city, fare, additional_costs, trip_date,
		duration_minutes, delay_minutes, distance_km, types, notes, created_timestamp`

// tripInsertColumns is the column list used by InsertAll's COPY.
var tripInsertColumns = []string{
	"start_city", "end_city", "fare", "additional_costs", "trip_date",
	"duration_minutes", "delay_minutes", "distance_km", "types", "notes", "created_timestamp",
}

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (start_city, end_city, fare, additional_costs, trip_date,
		                   duration_minutes, delay_minutes, distance_km, types, notes, created_timestamp)
		VALUES (@start_city, @end_city, @fare, @additional_costs, @trip_date,
		        @duration_minutes, @delay_minutes, @distance_km, @types, @notes, @created_timestamp)
		RETURNING ` + tripColumns

	row := r.db.QueryRow(ctx, q, tripArgs(trip))
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", mapError(err))
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", mapError(err))
	}
	return result, nil
}

// Update overwrites the mutable fields of a trip and returns the updated record.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET start_city       = @start_city,
		    end_city         = @end_city,
		    fare             = @fare,
		    additional_costs = @additional_costs,
		    trip_date        = @trip_date,
		    duration_minutes = @duration_minutes,
		    delay_minutes    = @delay_minutes,
		    distance_km      = @distance_km,
		    types            = @types,
		    notes            = @notes
		WHERE id = @id
		RETURNING ` + tripColumns

	args := tripArgs(trip)
	args["id"] = trip.ID

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", mapError(err))
	}
	return result, nil
}

// Delete removes a trip by primary key.
func (r *pgTripRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// Count returns the total number of trips.
func (r *pgTripRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM trips`).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.TripRepo.Count: %w", err)
	}
	return n, nil
}

// ListPaged returns one page of trips, most recent date first.
func (r *pgTripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, error) {
	q := `
		SELECT ` + tripColumns + `
		FROM trips
		ORDER BY trip_date DESC, created_timestamp DESC, id DESC
		LIMIT @limit OFFSET @offset`

	trips, err := r.queryTrips(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListPaged: %w", err)
	}
	return trips, nil
}

// searchPredicate matches query as a substring of the free-text columns.
// LIKE wildcards typed by the user are escaped so they match literally.
const searchPredicate = `
		start_city ILIKE '%' || @pattern || '%'
		OR end_city ILIKE '%' || @pattern || '%'
		OR notes ILIKE '%' || @pattern || '%'`

// SearchPaged returns one page of trips matching query.
func (r *pgTripRepo) SearchPaged(ctx context.Context, query string, p domain.PaginationParams) ([]domain.Trip, error) {
	q := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE ` + searchPredicate + `
		ORDER BY trip_date DESC, created_timestamp DESC, id DESC
		LIMIT @limit OFFSET @offset`

	args := pgx.NamedArgs{"pattern": escapeLike(query), "limit": p.Limit, "offset": p.Offset()}
	trips, err := r.queryTrips(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.SearchPaged: %w", err)
	}
	return trips, nil
}

// SearchCount counts trips matching query.
func (r *pgTripRepo) SearchCount(ctx context.Context, query string) (int64, error) {
	q := `SELECT count(*) FROM trips WHERE ` + searchPredicate

	var n int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"pattern": escapeLike(query)}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.TripRepo.SearchCount: %w", err)
	}
	return n, nil
}

// SumFaresBetween sums fares over the closed date interval [from, to].
func (r *pgTripRepo) SumFaresBetween(ctx context.Context, from, to time.Time) (int64, error) {
	const q = `
		SELECT COALESCE(SUM(fare), 0)::BIGINT
		FROM trips
		WHERE trip_date BETWEEN @from AND @to`

	var sum int64
	args := pgx.NamedArgs{"from": pgDate(from), "to": pgDate(to)}
	if err := r.db.QueryRow(ctx, q, args).Scan(&sum); err != nil {
		return 0, fmt.Errorf("repo.TripRepo.SumFaresBetween: %w", err)
	}
	return sum, nil
}

// List returns all trips in insertion order.
func (r *pgTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips ORDER BY id`

	trips, err := r.queryTrips(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	return trips, nil
}

// DeleteAll removes every trip.
func (r *pgTripRepo) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM trips`)
	if err != nil {
		return 0, fmt.Errorf("repo.TripRepo.DeleteAll: %w", mapError(err))
	}
	return tag.RowsAffected(), nil
}

// InsertAll streams trips into the table with COPY.
func (r *pgTripRepo) InsertAll(ctx context.Context, trips []domain.Trip) (int64, error) {
	if len(trips) == 0 {
		return 0, nil
	}
	src := pgx.CopyFromSlice(len(trips), func(i int) ([]any, error) {
		t := trips[i]
		return []any{
			t.StartCity, t.EndCity, t.Fare, t.AdditionalCosts, pgDate(t.Date),
			minutes(t.Duration), minutes(t.Delay), t.Distance, encodeTypes(t.Types), t.Notes,
			t.CreatedTimestamp,
		}, nil
	})
	n, err := r.db.CopyFrom(ctx, pgx.Identifier{"trips"}, tripInsertColumns, src)
	if err != nil {
		return 0, fmt.Errorf("repo.TripRepo.InsertAll: %w", mapError(err))
	}
	return n, nil
}

func (r *pgTripRepo) queryTrips(ctx context.Context, q string, args ...any) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return trips, nil
}

// tripArgs builds the named arguments shared by Create and Update.
// Nil pointers become NULL.
func tripArgs(t domain.Trip) pgx.NamedArgs {
	return pgx.NamedArgs{
		"start_city":        t.StartCity,
		"end_city":          t.EndCity,
		"fare":              t.Fare,
		"additional_costs":  t.AdditionalCosts,
		"trip_date":         pgDate(t.Date),
		"duration_minutes":  minutes(t.Duration),
		"delay_minutes":     minutes(t.Delay),
		"distance_km":       t.Distance,
		"types":             encodeTypes(t.Types),
		"notes":             t.Notes,
		"created_timestamp": t.CreatedTimestamp,
	}
}

// scanTrip maps a single database row into a domain.Trip.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t        domain.Trip
		tripDate pgtype.Date
		duration *int32
		delay    *int32
		types    *string
	)

	err := s.Scan(&t.ID, &t.StartCity, &t.EndCity, &t.Fare, &t.AdditionalCosts, &tripDate,
		&duration, &delay, &t.Distance, &types, &t.Notes, &t.CreatedTimestamp)
	if err != nil {
		return domain.Trip{}, err
	}

	t.Date = tripDate.Time
	t.Duration = fromMinutes(duration)
	t.Delay = fromMinutes(delay)
	if types != nil {
		decoded, err := domain.DecodeTransportTypes(*types)
		if err != nil {
			return domain.Trip{}, err
		}
		t.Types = decoded
	}
	return t, nil
}

// pgDate converts a calendar date into a pgtype.Date so the time of day and
// zone never leak into the DATE column.
func pgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: domain.CalendarDate(t), Valid: true}
}

func minutes(d *time.Duration) *int32 {
	if d == nil {
		return nil
	}
	m := int32(d.Minutes())
	return &m
}

func fromMinutes(m *int32) *time.Duration {
	if m == nil {
		return nil
	}
	d := time.Duration(*m) * time.Minute
	return &d
}

func encodeTypes(ts domain.TransportTypes) *string {
	if ts == nil {
		return nil
	}
	s := domain.EncodeTransportTypes(ts)
	return &s
}
