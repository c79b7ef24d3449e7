// Package cache keeps a short lived Redis copy of tier availability for
// public reporting reads.  Checkout never consults it.
package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Loader reads the authoritative availability of a tier.
type Loader interface {
	Availability(ctx context.Context, tierID string) (int, error)
}

// Availability is a cache-aside reader in front of a Loader.  Concurrent
// misses for the same tier share one load.  With a nil Redis client every
// read goes to the Loader.
type Availability struct {
	rdb    *redis.Client
	load   Loader
	ttl    time.Duration
	prefix string
	group  singleflight.Group
}

// NewAvailability returns a cache in front of load.  An empty prefix
// defaults to "avail".
func NewAvailability(rdb *redis.Client, load Loader, ttl time.Duration, prefix string) *Availability {
	if prefix == "" {
		prefix = "avail"
	}
	return &Availability{rdb: rdb, load: load, ttl: ttl, prefix: prefix}
}

func (a *Availability) key(tierID string) string { return a.prefix + ":tier:" + tierID }

// Get returns the remaining stock of a tier.  The value may be up to ttl
// old unless Invalidate was called for it.
func (a *Availability) Get(ctx context.Context, tierID string) (int, error) {
	key := a.key(tierID)
	if a.rdb != nil {
		n, err := a.rdb.Get(ctx, key).Int()
		if err == nil {
			return n, nil
		}
		if !errors.Is(err, redis.Nil) {
			log.Printf("availability-cache: get %s: %v", key, err)
		}
	}
	v, err, _ := a.group.Do(key, func() (interface{}, error) {
		n, err := a.load.Availability(ctx, tierID)
		if err != nil {
			return 0, err
		}
		if a.rdb != nil {
			if err := a.rdb.Set(ctx, key, n, a.ttl).Err(); err != nil {
				log.Printf("availability-cache: set %s: %v", key, err)
			}
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Invalidate drops the cached values of the given tiers.  Errors are only
// logged; the entries expire on their own.
func (a *Availability) Invalidate(ctx context.Context, tierIDs ...string) {
	if a.rdb == nil || len(tierIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(tierIDs))
	for _, id := range tierIDs {
		keys = append(keys, a.key(id))
	}
	if err := a.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("availability-cache: invalidate %d keys: %v", len(keys), err)
	}
}

