package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoad_SQLiteNeedsNoCredentials(t *testing.T) {
    t.Setenv("APP_ENV", "test")
    t.Setenv("APP_PORT", "8080")
    t.Setenv("JWT_SECRET", "s3cret")
    t.Setenv("DB_DRIVER", "sqlite3")
    t.Setenv("DB_PATH", "/tmp/x.db")
    t.Setenv("RABBITMQ_URL", "")
    t.Setenv("AMQP_URL", "amqp://other/")
    t.Setenv("LOW_STOCK_THRESHOLD", "")

    cfg := Load()
    assert.Equal(t, "sqlite3", cfg.DBDriver)
    assert.Equal(t, "/tmp/x.db", cfg.DBPath)
    assert.Equal(t, 3, cfg.LowStockThreshold)
    assert.Equal(t, "amqp://other/", cfg.AMQPURL)
    assert.Equal(t, 24*time.Hour, cfg.NotifyDedupTTL)
    assert.Empty(t, cfg.DBUser)
}

func TestLoadRateLimitConfig(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    t.Setenv("RATE_LIMIT_KEY_STRATEGY", "by_moon_phase")

    rl := LoadRateLimitConfig()
    assert.Equal(t, 1, rl.Capacity)
    assert.Equal(t, 1, rl.RefillTokens)
    assert.Equal(t, 2*time.Second, rl.RefillInterval)
    assert.Equal(t, 10*time.Second, rl.TTL)
    assert.Equal(t, KeyByUser, rl.KeyStrategy)
}

func TestLoadRedisConfig(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6380")
    t.Setenv("REDIS_HOST", "")
    t.Setenv("REDIS_DB", "2")
    t.Setenv("REDIS_URL", "")
    cfg := LoadRedisConfig()
    assert.Equal(t, "cache:6380", cfg.Addr)
    assert.Equal(t, 2, cfg.DB)

    opt, err := RedisConfig{URL: "redis://:pw@example.com:6390/4"}.options()
    require.NoError(t, err)
    assert.Equal(t, "example.com:6390", opt.Addr)
    assert.Equal(t, "pw", opt.Password)
    assert.Equal(t, 4, opt.DB)

    _, err = RedisConfig{URL: "http://nope"}.options()
    assert.Error(t, err)
}

func TestEnvHelpers(t *testing.T) {
    t.Setenv("X_BOOL", "off")
    t.Setenv("X_INT", "nope")
    t.Setenv("X_DUR", "90s")
    assert.False(t, envBool("X_BOOL", true))
    assert.Equal(t, 7, envInt("X_INT", 7))
    assert.Equal(t, 90*time.Second, envDur("X_DUR", time.Second))

    t.Setenv("AVAILABILITY_CACHE_TTL", "-1s")
    assert.Equal(t, 30*time.Second, LoadAvailabilityCacheConfig().TTL)
}
