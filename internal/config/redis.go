package config

import (
    "context"
    "crypto/tls"
    "log"
    "os"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig locates the optional Redis server behind the rate limiter,
// the availability cache and notification dedup.
type RedisConfig struct {
    URL      string // REDIS_URL, wins over the fields below
    Addr     string
    Password string
    DB       int
    TLS      bool
}

func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    return RedisConfig{
        URL:      os.Getenv("REDIS_URL"),
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
        TLS:      envBool("REDIS_TLS", false),
    }
}

func (c RedisConfig) options() (*redis.Options, error) {
    if c.URL != "" {
        return redis.ParseURL(c.URL)
    }
    opt := &redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}
    if c.TLS {
        opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    return opt, nil
}

// NewRedisClient connects and pings.  It returns nil when Redis is
// misconfigured or unreachable; every caller treats a nil client as the
// feature being off.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    opt, err := cfg.options()
    if err != nil {
        log.Printf("redis: bad REDIS_URL, running without it: %v", err)
        return nil
    }
    client := redis.NewClient(opt)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Printf("redis: %s unreachable, running without it: %v", opt.Addr, err)
        _ = client.Close()
        return nil
    }
    return client
}
