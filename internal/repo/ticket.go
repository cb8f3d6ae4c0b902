package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/fare-ledger/internal/domain"
)

// ticketWriteLockKey is the pg_advisory_xact_lock key that serializes ticket
// writes so the overlap check and the write observe the same ticket set.
const ticketWriteLockKey int64 = 0x7469636b6574 // "ticket"

// TicketRepo defines the persistence operations for Tickets.
type TicketRepo interface {
	// Create inserts a new ticket and returns the persisted record.
	Create(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error)

	// GetByID retrieves a single ticket by primary key.
	// Returns domain.ErrNotFound if no ticket with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.Ticket, error)

	// Update replaces every field of a ticket except its id and creation
	// timestamp. Returns domain.ErrNotFound if it does not exist.
	Update(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error)

	// Delete removes a ticket by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of stored tickets.
	Count(ctx context.Context) (int64, error)

	// ListPaged returns one page of tickets, latest validity period first.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Ticket, error)

	// List returns every ticket in store (insertion) order.
	List(ctx context.Context) ([]domain.Ticket, error)

	// Latest returns the ticket with the most recent start date.
	// Returns domain.ErrNotFound when there are no tickets.
	Latest(ctx context.Context) (domain.Ticket, error)

	// FirstOverlapping returns the earliest ticket whose validity period
	// intersects the closed interval [start, end], ignoring excludeID when set.
	// Returns domain.ErrNotFound when there is none.
	FirstOverlapping(ctx context.Context, start, end time.Time, excludeID *int64) (domain.Ticket, error)

	// LockWrites takes a transaction-scoped advisory lock that serializes
	// ticket writers. It only has an effect inside a transaction.
	LockWrites(ctx context.Context) error

	// DeleteAll removes every ticket and returns how many were deleted.
	DeleteAll(ctx context.Context) (int64, error)

	// InsertAll bulk-inserts tickets, letting the store assign new ids.
	InsertAll(ctx context.Context, tickets []domain.Ticket) (int64, error)
}

// pgTicketRepo is the Postgres implementation of TicketRepo.
type pgTicketRepo struct {
	db db
}

// NewTicketRepo constructs a TicketRepo backed by the provided db connection.
func NewTicketRepo(db db) TicketRepo {
	return &pgTicketRepo{db: db}
}

const ticketColumns = `id, name, price, deduction, start_date, end_date, created_timestamp`

var ticketInsertColumns = []string{"name", "price", "deduction", "start_date", "end_date", "created_timestamp"}

func (r *pgTicketRepo) Create(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	const q = `
		INSERT INTO tickets (name, price, deduction, start_date, end_date, created_timestamp)
		VALUES (@name, @price, @deduction, @start_date, @end_date, @created_timestamp)
		RETURNING ` + ticketColumns

	result, err := scanTicket(r.db.QueryRow(ctx, q, ticketArgs(ticket)))
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("repo.TicketRepo.Create: %w", mapError(err))
	}
	return result, nil
}

func (r *pgTicketRepo) GetByID(ctx context.Context, id int64) (domain.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = @id`

	result, err := scanTicket(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("repo.TicketRepo.GetByID: %w", mapError(err))
	}
	return result, nil
}

func (r *pgTicketRepo) Update(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	const q = `
		UPDATE tickets
		SET name       = @name,
		    price      = @price,
		    deduction  = @deduction,
		    start_date = @start_date,
		    end_date   = @end_date
		WHERE id = @id
		RETURNING ` + ticketColumns

	args := ticketArgs(ticket)
	args["id"] = ticket.ID

	result, err := scanTicket(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("repo.TicketRepo.Update: %w", mapError(err))
	}
	return result, nil
}

func (r *pgTicketRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TicketRepo.Delete: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TicketRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgTicketRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM tickets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.TicketRepo.Count: %w", err)
	}
	return n, nil
}

func (r *pgTicketRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Ticket, error) {
	q := `
		SELECT ` + ticketColumns + `
		FROM tickets
		ORDER BY start_date DESC, id DESC
		LIMIT @limit OFFSET @offset`

	tickets, err := r.queryTickets(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, fmt.Errorf("repo.TicketRepo.ListPaged: %w", err)
	}
	return tickets, nil
}

func (r *pgTicketRepo) List(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := r.queryTickets(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("repo.TicketRepo.List: %w", err)
	}
	return tickets, nil
}

func (r *pgTicketRepo) Latest(ctx context.Context) (domain.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY start_date DESC, id DESC LIMIT 1`

	result, err := scanTicket(r.db.QueryRow(ctx, q))
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("repo.TicketRepo.Latest: %w", mapError(err))
	}
	return result, nil
}

// FirstOverlapping uses the closed-interval test start <= other.end AND other.start <= end.
func (r *pgTicketRepo) FirstOverlapping(ctx context.Context, start, end time.Time, excludeID *int64) (domain.Ticket, error) {
	q := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE start_date <= @end
		  AND @start <= end_date
		  AND (@exclude_id::BIGINT IS NULL OR id <> @exclude_id)
		ORDER BY start_date, id
		LIMIT 1`

	args := pgx.NamedArgs{"start": pgDate(start), "end": pgDate(end), "exclude_id": excludeID}
	result, err := scanTicket(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("repo.TicketRepo.FirstOverlapping: %w", mapError(err))
	}
	return result, nil
}

func (r *pgTicketRepo) LockWrites(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(@key)`, pgx.NamedArgs{"key": ticketWriteLockKey})
	if err != nil {
		return fmt.Errorf("repo.TicketRepo.LockWrites: %w", err)
	}
	return nil
}

func (r *pgTicketRepo) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM tickets`)
	if err != nil {
		return 0, fmt.Errorf("repo.TicketRepo.DeleteAll: %w", mapError(err))
	}
	return tag.RowsAffected(), nil
}

func (r *pgTicketRepo) InsertAll(ctx context.Context, tickets []domain.Ticket) (int64, error) {
	if len(tickets) == 0 {
		return 0, nil
	}
	src := pgx.CopyFromSlice(len(tickets), func(i int) ([]any, error) {
		t := tickets[i]
		return []any{t.Name, t.Price, t.Deduction, pgDate(t.StartDate), pgDate(t.EndDate), t.CreatedTimestamp}, nil
	})
	n, err := r.db.CopyFrom(ctx, pgx.Identifier{"tickets"}, ticketInsertColumns, src)
	if err != nil {
		return 0, fmt.Errorf("repo.TicketRepo.InsertAll: %w", mapError(err))
	}
	return n, nil
}

func (r *pgTicketRepo) queryTickets(ctx context.Context, q string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return tickets, nil
}

func ticketArgs(t domain.Ticket) pgx.NamedArgs {
	return pgx.NamedArgs{
		"name":              t.Name,
		"price":             t.Price,
		"deduction":         t.Deduction,
		"start_date":        pgDate(t.StartDate),
		"end_date":          pgDate(t.EndDate),
		"created_timestamp": t.CreatedTimestamp,
	}
}

func scanTicket(s scanner) (domain.Ticket, error) {
	var (
		t          domain.Ticket
		start, end pgtype.Date
	)
	err := s.Scan(&t.ID, &t.Name, &t.Price, &t.Deduction, &start, &end, &t.CreatedTimestamp)
	if err != nil {
		return domain.Ticket{}, err
	}
	t.StartDate = start.Time
	t.EndDate = end.Time
	return t, nil
}
