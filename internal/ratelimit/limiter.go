package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"protoapp/internal/api"
	"protoapp/pkg/logger"
	"protoapp/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter is a fixed-window counter shared by all API processes.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedis(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "rl:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, ttl, err := utils.IncrWindow(ctx, l.client, l.prefix+key, l.window)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(l.limit),
		Count:     int(count),
		Limit:     l.limit,
		Remaining: remaining,
		ResetIn:   ttl,
	}, nil
}

// Middleware limits requests to the given paths per client IP. Other paths
// pass through untouched. Limiter failures are logged and fail open.
func Middleware(l Limiter, paths ...string) gin.HandlerFunc {
	guarded := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		guarded[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := guarded[path]; !ok {
			c.Next()
			return
		}

		d, err := l.Allow(c.Request.Context(), path+":"+c.ClientIP())
		if err != nil {
			logger.FromGin(c).Warn("rate limiter unavailable", "err", err)
			c.Next()
			return
		}
		if !d.Allowed {
			secs := int(math.Ceil(d.ResetIn.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			api.WriteError(c, fmt.Errorf("%w: %s %d/%d", api.ErrTooManyRequests, path, d.Count, d.Limit))
			return
		}
		c.Next()
	}
}
