package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/database/dbtest"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

func TestUserCreate(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	users := repository.NewUserRepo(db)

	u, err := users.Create(ctx, "  Fan@Example.com ", model.RoleClient)
	require.NoError(t, err)
	assert.Equal(t, "fan@example.com", u.Email)

	_, err = users.Create(ctx, "fan@example.com", model.RoleManager)
	assert.ErrorIs(t, err, repository.ErrEmailExists)

	got, err := users.GetByEmail(ctx, "FAN@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, model.RoleClient, got.Role)

	_, err = users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEventCreateAndLike(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	mgr := dbtest.User(t, db, "mgr@example.com")
	fan := dbtest.User(t, db, "fan@example.com")
	events := repository.NewEventRepo(db)

	e := &model.Event{ManagerID: mgr, Title: "Opening"}
	require.NoError(t, events.Create(ctx, e))
	assert.Equal(t, model.EventScheduled, e.Status)
	require.NoError(t, events.Like(ctx, e.ID, fan))
	require.NoError(t, events.Like(ctx, e.ID, fan))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM event_likes WHERE event_id = ?`, e.ID).Scan(&n))
	assert.Equal(t, 1, n)
}
