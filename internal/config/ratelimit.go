package config

import (
    "log"
    "time"
)

// Key strategies for the cart rate limiter.
const (
    KeyByUser        = "user"
    KeyByUserRoute   = "user_route"
    KeyByIPUserRoute = "ip_user_route"
)

// RateLimitConfig configures the Redis token bucket in front of the cart
// endpoints.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration // idle buckets expire after this
    KeyStrategy    string
    Prefix         string
    Debug          bool // adds X-RateLimit-* headers
}

// LoadRateLimitConfig reads the RATE_LIMIT_* variables and clamps them to
// values the limiter script can work with.
func LoadRateLimitConfig() RateLimitConfig {
    rl := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 30),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", KeyByUser),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    rl.Capacity = max(rl.Capacity, 1)
    rl.RefillTokens = max(rl.RefillTokens, 1)
    if rl.RefillInterval <= 0 {
        rl.RefillInterval = time.Second
    }
    // a bucket must outlive a few refills or it resets to full
    rl.TTL = max(rl.TTL, 5*rl.RefillInterval)

    switch rl.KeyStrategy {
    case KeyByUser, KeyByUserRoute, KeyByIPUserRoute:
    default:
        log.Printf("config: unknown RATE_LIMIT_KEY_STRATEGY %q, using %q", rl.KeyStrategy, KeyByUser)
        rl.KeyStrategy = KeyByUser
    }
    return rl
}
