package repository_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/database/dbtest"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx) error) error {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func TestCreateCart_OnePerUser(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "fan@example.com")
	repo := repository.NewOrderRepo(db, database.SQLite)

	var first *model.Order
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		var err error
		first, err = repo.CreateCartTx(ctx, tx, user)
		return err
	}))
	assert.Equal(t, model.OrderCart, first.Status)

	err := inTx(t, db, func(tx *sql.Tx) error {
		_, err := repo.CreateCartTx(ctx, tx, user)
		return err
	})
	assert.ErrorIs(t, err, repository.ErrCartRace)
	assert.ErrorIs(t, err, repository.ErrConflictState)

	carts, err := repo.ListOpenCarts(ctx, user)
	require.NoError(t, err)
	require.Len(t, carts, 1)
	assert.Equal(t, first.ID, carts[0].ID)
}

func TestCloseCart_ReleasesSlotAndIsOneShot(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "fan@example.com")
	repo := repository.NewOrderRepo(db, database.SQLite)

	var cart *model.Order
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		var err error
		if cart, err = repo.CreateCartTx(ctx, tx, user); err != nil {
			return err
		}
		return repo.AddToTotalTx(ctx, tx, cart.ID, 2500)
	}))

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error { return repo.CloseCartTx(ctx, tx, cart.ID) }))
	err := inTx(t, db, func(tx *sql.Tx) error { return repo.CloseCartTx(ctx, tx, cart.ID) })
	assert.ErrorIs(t, err, repository.ErrCartClosed)

	err = inTx(t, db, func(tx *sql.Tx) error { return repo.AddToTotalTx(ctx, tx, cart.ID, 100) })
	assert.ErrorIs(t, err, repository.ErrCartClosed)

	// the slot is free again
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		_, err := repo.CreateCartTx(ctx, tx, user)
		return err
	}))

	orders, err := repo.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	var closed model.Order
	for _, o := range orders {
		if o.ID == cart.ID {
			closed = o
		}
	}
	assert.Equal(t, model.OrderClosed, closed.Status)
	assert.Equal(t, int64(2500), closed.FinalPrice)
}

func TestSoftDelete_ScopedToOwner(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	owner := dbtest.User(t, db, "owner@example.com")
	other := dbtest.User(t, db, "other@example.com")
	repo := repository.NewOrderRepo(db, database.SQLite)

	var cart *model.Order
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		var err error
		cart, err = repo.CreateCartTx(ctx, tx, owner)
		return err
	}))

	assert.ErrorIs(t, repo.SoftDelete(ctx, other, cart.ID), repository.ErrNotFound)

	got, err := repo.OwnerOf(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	require.NoError(t, repo.SoftDelete(ctx, owner, cart.ID))
	assert.ErrorIs(t, repo.SoftDelete(ctx, owner, cart.ID), repository.ErrNotFound)

	_, err = repo.OwnerOf(ctx, cart.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	carts, err := repo.ListOpenCarts(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, carts)
}
