package middleware

import (
    "context"
    "fmt"
    "log"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-ticketing/internal/config"
)

// limiterScript refills a per-key token bucket and takes one token in a
// single round trip.  It returns {allowed, tokens_left, retry_after_ms}.
var limiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

type bucketResult struct {
    allowed    bool
    remaining  int64
    retryAfter time.Duration
}

// take spends one token from the bucket at key.
func take(ctx context.Context, rdb redis.Scripter, cfg config.RateLimitConfig, key string, now time.Time) (bucketResult, error) {
    vals, err := limiterScript.Run(ctx, rdb, []string{key},
        now.UnixMilli(),
        int64(cfg.Capacity),
        int64(cfg.RefillTokens),
        cfg.RefillInterval.Milliseconds(),
        int64(cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return bucketResult{}, err
    }
    if len(vals) != 3 {
        return bucketResult{}, fmt.Errorf("ratelimit: unexpected script result %v", vals)
    }
    return bucketResult{
        allowed:    vals[0] == 1,
        remaining:  vals[1],
        retryAfter: time.Duration(max(vals[2], 0)) * time.Millisecond,
    }, nil
}

// NewTokenBucket rate limits the authenticated cart endpoints per caller.
// Without Redis, or when disabled, it lets everything through, and Redis
// errors fail open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            res, err := take(c.Request().Context(), rdb, cfg, key, time.Now())
            if err != nil {
                log.Printf("ratelimit: key=%s, letting request through: %v", key, err)
                return next(c)
            }

            h := c.Response().Header()
            if cfg.Debug {
                h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
                h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
            }
            if res.allowed {
                return next(c)
            }
            secs := int((res.retryAfter + time.Second - 1) / time.Second)
            h.Set("Retry-After", strconv.Itoa(secs))
            return c.JSON(http.StatusTooManyRequests, map[string]any{
                "error":       "rate limit exceeded",
                "retry_after": secs,
            })
        }
    }
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    uid := UserID(c)
    if uid == "" {
        uid = "anon"
    }
    parts := []string{cfg.Prefix, "user", uid}
    route := c.Request().Method + " " + c.Path()
    switch cfg.KeyStrategy {
    case config.KeyByUserRoute:
        parts = append(parts, "route", route)
    case config.KeyByIPUserRoute:
        parts = append(parts, "ip", c.RealIP(), "route", route)
    }
    return strings.Join(parts, ":")
}
