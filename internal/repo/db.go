// Package repo contains all database access logic for the fare ledger.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/fare-ledger/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// mapError translates driver errors into domain sentinels.
// Integrity violations (SQLSTATE class 23) become domain.ErrConstraint;
// pgx.ErrNoRows becomes domain.ErrNotFound.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23" {
		return fmt.Errorf("%w: %s (%s)", domain.ErrConstraint, pgErr.Message, pgErr.ConstraintName)
	}
	return err
}

// Stores groups the repos bound to one connection or transaction.
type Stores struct {
	Trips    TripRepo
	Tickets  TicketRepo
	Settings SettingsRepo
}

// NewStores builds every repo on top of the same db handle.
func NewStores(db db) Stores {
	return Stores{
		Trips:    NewTripRepo(db),
		Tickets:  NewTicketRepo(db),
		Settings: NewSettingsRepo(db),
	}
}

// Transactor runs a function against repos that share one database
// transaction. The transaction commits when fn returns nil and rolls back
// otherwise, so callers never observe a partially applied fn.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(Stores) error) error
}

// beginner is satisfied by *pgxpool.Pool and pgx.Tx (nested transactions
// become savepoints).
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgTransactor struct {
	db beginner
}

// NewTransactor returns a Transactor that opens transactions on db.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx so the outer
// test transaction still rolls everything back.
func NewTransactor(db beginner) Transactor {
	return &pgTransactor{db: db}
}

// WithinTx implements Transactor using pgx.BeginFunc.
func (t *pgTransactor) WithinTx(ctx context.Context, fn func(Stores) error) error {
	err := pgx.BeginFunc(ctx, t.db, func(tx pgx.Tx) error {
		return fn(NewStores(tx))
	})
	if err != nil {
		return fmt.Errorf("repo.Transactor.WithinTx: %w", err)
	}
	return nil
}
