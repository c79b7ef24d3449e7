package repository_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/database/dbtest"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

func TestTicketLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "fan@example.com")
	event := dbtest.Event(t, db, dbtest.User(t, db, "mgr@example.com"))
	tier := dbtest.Tier(t, db, event, 10)
	orders := repository.NewOrderRepo(db, database.SQLite)
	tickets := repository.NewTicketRepo(db)

	var cart *model.Order
	a := &model.Ticket{TierID: tier, EventID: event, FinalPrice: 1000, TicketsToBuy: 2, Currency: "USD",
		Discounts: json.RawMessage(`{"code":"EARLY"}`)}
	b := &model.Ticket{TierID: tier, EventID: event, FinalPrice: 500, TicketsToBuy: 1, Currency: "USD"}
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		var err error
		if cart, err = orders.CreateCartTx(ctx, tx, user); err != nil {
			return err
		}
		a.OrderID, b.OrderID = cart.ID, cart.ID
		if err := tickets.CreateTx(ctx, tx, a); err != nil {
			return err
		}
		return tickets.CreateTx(ctx, tx, b)
	}))

	got, err := tickets.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketReserved, got.Status)
	assert.JSONEq(t, `{"code":"EARLY"}`, string(got.Discounts))

	owner, err := tickets.OwnerOf(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, user, owner)

	b.FinalPrice = 700
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error { return tickets.UpdateTx(ctx, tx, b) }))
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error { return tickets.SoftDeleteTx(ctx, tx, a.ID) }))

	_, err = tickets.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	var paid int64
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		live, err := tickets.ListLiveByOrderTx(ctx, tx, cart.ID)
		if err != nil {
			return err
		}
		require.Len(t, live, 1)
		assert.Equal(t, int64(700), live[0].FinalPrice)
		paid, err = tickets.MarkPaidTx(ctx, tx, cart.ID)
		return err
	}))
	assert.Equal(t, int64(1), paid)

	// paid tickets are frozen
	err = inTx(t, db, func(tx *sql.Tx) error { return tickets.UpdateTx(ctx, tx, b) })
	assert.ErrorIs(t, err, repository.ErrConflictState)
	err = inTx(t, db, func(tx *sql.Tx) error { return tickets.SoftDeleteTx(ctx, tx, b.ID) })
	assert.ErrorIs(t, err, repository.ErrConflictState)

	byOrder, err := tickets.ListByOrders(ctx, []string{cart.ID})
	require.NoError(t, err)
	require.Len(t, byOrder[cart.ID], 1)
	assert.Equal(t, model.TicketPaid, byOrder[cart.ID][0].Status)
}

func TestLikerEmails(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	mgr := dbtest.User(t, db, "mgr@example.com")
	e1 := dbtest.Event(t, db, mgr)
	e2 := dbtest.Event(t, db, mgr)
	dbtest.Like(t, db, e1, dbtest.User(t, db, "b@example.com"))
	dbtest.Like(t, db, e1, dbtest.User(t, db, "a@example.com"))
	events := repository.NewEventRepo(db)

	var got map[string][]string
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		var err error
		got, err = events.LikerEmailsTx(ctx, tx, []string{e1, e2})
		return err
	}))
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, got[e1])
	assert.NotContains(t, got, e2)
}
