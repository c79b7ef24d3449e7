package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/database/dbtest"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

func TestTryDecrement_ExactStock(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	mgr := dbtest.User(t, db, "mgr@example.com")
	tier := dbtest.Tier(t, db, dbtest.Event(t, db, mgr), 5)
	repo := repository.NewTierRepo(db)

	left, err := repo.TryDecrement(ctx, tier, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, left)
	assert.Equal(t, 0, dbtest.Available(t, db, tier))
}

func TestTryDecrement_Short(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	mgr := dbtest.User(t, db, "mgr@example.com")
	tier := dbtest.Tier(t, db, dbtest.Event(t, db, mgr), 2)
	repo := repository.NewTierRepo(db)

	_, err := repo.TryDecrement(ctx, tier, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrInventoryExhausted))
	var ie *repository.InventoryExhaustedError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, tier, ie.TierID)
	assert.Equal(t, 2, dbtest.Available(t, db, tier))
}

func TestTryDecrement_Validation(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewTierRepo(db)

	_, err := repo.TryDecrement(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.TryDecrement(context.Background(), "missing", 0)
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestTryDecrement_ConcurrentNeverNegative(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	mgr := dbtest.User(t, db, "mgr@example.com")
	tier := dbtest.Tier(t, db, dbtest.Event(t, db, mgr), 10)
	repo := repository.NewTierRepo(db)

	const workers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		exhausted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.TryDecrement(ctx, tier, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, repository.ErrInventoryExhausted):
				exhausted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, workers-10, exhausted)
	assert.Equal(t, 0, dbtest.Available(t, db, tier))
}

func TestTierCreateAndList(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	mgr := dbtest.User(t, db, "mgr@example.com")
	event := dbtest.Event(t, db, mgr)
	repo := repository.NewTierRepo(db)

	vip := &model.PricingTier{EventID: event, NominalPrice: 9000, TicketsAvailable: 4, TicketsPerPerson: 2, Currency: "EUR", Zone: "VIP"}
	require.NoError(t, repo.Create(ctx, vip))
	general := &model.PricingTier{EventID: event, NominalPrice: 3000, TicketsAvailable: 100, TicketsPerPerson: 6, Currency: "EUR", Zone: "GENERAL"}
	require.NoError(t, repo.Create(ctx, general))

	err := repo.Create(ctx, &model.PricingTier{EventID: event, TicketsAvailable: -1})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	tiers, err := repo.ListByEvent(ctx, event)
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, general.ID, tiers[0].ID)
	assert.Equal(t, vip.ID, tiers[1].ID)

	n, err := repo.Availability(ctx, vip.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := repo.GetByID(ctx, vip.ID)
	require.NoError(t, err)
	assert.Equal(t, "VIP", got.Zone)
	assert.Nil(t, got.DeletedAt)
}
