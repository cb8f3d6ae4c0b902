// Package testutil holds the Postgres helpers shared by integration tests.
// Every helper that needs a database skips the calling test when
// TEST_DATABASE_URL is unset, so the unit suite runs without one.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/fare-ledger/migrations"
)

// DSNEnv names the variable holding the test database connection string.
const DSNEnv = "TEST_DATABASE_URL"

// datasetTables lists the tables NewEmptyTx clears, children first.
var datasetTables = []string{"tickets", "trips", "settings"}

// NewPool opens a pool on the test database and closes it when the test
// and its subtests finish.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewTx begins a transaction that is rolled back when the test finishes.
// Nothing a test writes through it survives the test.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()
	ctx := context.Background()

	tx, err := NewPool(t).Begin(ctx)
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})
	return tx
}

// NewEmptyTx is NewTx with every trip, ticket and setting deleted inside the
// transaction, so counts, sums and "latest" queries start from nothing.
func NewEmptyTx(t *testing.T) pgx.Tx {
	t.Helper()
	tx := NewTx(t)
	for _, table := range datasetTables {
		if _, err := tx.Exec(context.Background(), "DELETE FROM "+table); err != nil {
			t.Fatalf("testutil.NewEmptyTx: clear %s: %v", table, err)
		}
	}
	return tx
}

// NewSQLDB returns a *sql.DB backed by a test pool, for code that speaks
// database/sql such as goose.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()
	db := stdlib.OpenDBFromPool(NewPool(t))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// MustMigrate applies every pending migration to the database at dsn and
// panics on failure. It is meant for TestMain, where no *testing.T exists.
func MustMigrate(dsn string) {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		panic("testutil.MustMigrate: open pool: " + err.Error())
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if _, err := migrations.Up(ctx, db); err != nil {
		panic("testutil.MustMigrate: " + err.Error())
	}
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skip(DSNEnv + " not set; skipping integration test")
	}
	return dsn
}
