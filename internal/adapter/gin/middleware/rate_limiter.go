package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/pkg/logger"
)

// RateLimitConfig configures the token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstCapacity     int
}

// tokenBucket refills at ARGV[1] tokens per second up to ARGV[2] and takes
// one token per call. Returns {allowed, remaining}. State lives in a hash
// {last_refill, tokens} that expires after a minute of inactivity.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
local last_refill = tonumber(bucket[1]) or now
local tokens = tonumber(bucket[2]) or capacity

local elapsed = math.max(0, now - last_refill)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HMSET', key, 'last_refill', now, 'tokens', tokens)
redis.call('EXPIRE', key, 60)
return {allowed, math.floor(tokens)}
`)

// RateLimiter returns a Gin middleware that limits each client per method and
// path using a Redis token bucket. Redis failures let the request through.
func RateLimiter(client *redis.Client, cfg RateLimitConfig, log *zap.Logger) gin.HandlerFunc {
	limit := strconv.Itoa(cfg.BurstCapacity)

	return func(c *gin.Context) {
		if client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:tb:%s:%s:%s", c.Request.Method, c.Request.URL.Path, c.ClientIP())

		now, err := client.Time(ctx).Result()
		if err != nil {
			logger.WithContext(ctx, log).Warn("rate limiter redis error, allowing request", zap.Error(err))
			c.Next()
			return
		}

		res, err := tokenBucket.Run(ctx, client, []string{key},
			cfg.RequestsPerSecond,
			cfg.BurstCapacity,
			float64(now.UnixMicro())/1e6,
		).Int64Slice()
		if err != nil || len(res) != 2 {
			logger.WithContext(ctx, log).Warn("rate limiter script failed, allowing request", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))

		if res[0] == 0 {
			logger.WithContext(ctx, log).Info("rate limit exceeded",
				zap.String("client_ip", c.ClientIP()), zap.String("path", c.Request.URL.Path))
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, handler.Envelope{
				Success: false,
				Message: handler.MsgTooManyRequests,
			})
			return
		}

		c.Next()
	}
}
