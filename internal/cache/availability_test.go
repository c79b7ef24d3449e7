package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	mu    sync.Mutex
	calls int
	n     int
	err   error
}

func (l *countingLoader) Availability(context.Context, string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.n, l.err
}

func TestAvailability_HitAndMiss(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	loader := &countingLoader{n: 5}
	c := NewAvailability(rdb, loader, time.Minute, "test")

	rmock.ExpectGet("test:tier:t1").SetVal("7")
	n, err := c.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, 0, loader.calls)

	rmock.ExpectGet("test:tier:t2").RedisNil()
	rmock.ExpectSet("test:tier:t2", 5, time.Minute).SetVal("OK")
	n, err = c.Get(context.Background(), "t2")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 1, loader.calls)

	rmock.ExpectDel("test:tier:t1", "test:tier:t2").SetVal(2)
	c.Invalidate(context.Background(), "t1", "t2")

	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestAvailability_LoaderErrorNotCached(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	loader := &countingLoader{err: errors.New("not found")}
	c := NewAvailability(rdb, loader, time.Minute, "")

	rmock.ExpectGet("avail:tier:x").RedisNil()
	_, err := c.Get(context.Background(), "x")
	assert.Error(t, err)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestAvailability_NoRedis(t *testing.T) {
	loader := &countingLoader{n: 3}
	c := NewAvailability(nil, loader, time.Minute, "")

	for i := 0; i < 3; i++ {
		n, err := c.Get(context.Background(), "t")
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	}
	assert.Equal(t, 3, loader.calls)
	c.Invalidate(context.Background(), "t")
}
