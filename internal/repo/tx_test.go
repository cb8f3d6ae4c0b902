package repo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fare-ledger/internal/repo"
	"github.com/pkordes/fare-ledger/testutil"
)

func TestTransactor_RollsBackOnError(t *testing.T) {
	outer := testutil.NewEmptyTx(t)
	ctx := context.Background()
	stores := repo.NewStores(outer)

	_, err := stores.Trips.Create(ctx, tripFixture())
	require.NoError(t, err)

	boom := errors.New("boom")
	err = repo.NewTransactor(outer).WithinTx(ctx, func(s repo.Stores) error {
		if _, err := s.Trips.DeleteAll(ctx); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	n, err := stores.Trips.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "delete inside the failed transaction must be rolled back")
}

func TestTransactor_CommitsOnSuccess(t *testing.T) {
	outer := testutil.NewEmptyTx(t)
	ctx := context.Background()

	err := repo.NewTransactor(outer).WithinTx(ctx, func(s repo.Stores) error {
		_, err := s.Tickets.Create(ctx, ticketFixture())
		return err
	})
	require.NoError(t, err)

	latest, err := repo.NewTicketRepo(outer).Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, ticketFixture().Name, latest.Name)
}
