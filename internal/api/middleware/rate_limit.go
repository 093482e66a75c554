package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/aiverse-api/pkg/logger"
	"github.com/d60-Lab/aiverse-api/pkg/response"
)

// defaultMaxLocal 进程内最多跟踪的客户端数
const defaultMaxLocal = 10000

// RateLimiter 固定窗口限流；未配置 redis 时退化为进程内令牌桶
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration

	mu       sync.Mutex
	local    map[string]*localEntry
	maxLocal int
	now      func() time.Time
}

type localEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		rdb:      rdb,
		limit:    limit,
		window:   window,
		local:    make(map[string]*localEntry),
		maxLocal: defaultMaxLocal,
		now:      time.Now,
	}
}

// Middleware 按 用户/IP + 路由 计数
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		if id, ok := UserID(c); ok {
			client = "u" + strconv.FormatUint(uint64(id), 10)
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := fmt.Sprintf("rate_limit:%s:%s", route, client)

		var allowed bool
		if l.rdb != nil {
			allowed = l.allowRedis(c, key)
		} else {
			allowed = l.allowLocal(key)
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		if !allowed {
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allowRedis(c *gin.Context, key string) bool {
	ctx := c.Request.Context()
	// SET NX EX 与 INCR 同一事务提交，计数键必然带过期时间
	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		// redis 不可用时放行，避免限流组件拖垮主流程
		logger.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
		return true
	}
	count := incr.Val()
	remaining := int64(l.limit) - count
	if remaining < 0 {
		remaining = 0
	}
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	return count <= int64(l.limit)
}

func (l *RateLimiter) allowLocal(key string) bool {
	l.mu.Lock()
	now := l.now()
	e, ok := l.local[key]
	if !ok {
		if len(l.local) >= l.maxLocal {
			l.evictLocked(now)
		}
		e = &localEntry{lim: rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)}
		l.local[key] = e
	}
	e.seen = now
	l.mu.Unlock()
	return e.lim.Allow()
}

// evictLocked 闲置超过一个窗口的桶已回满，可直接丢弃；仍满则整体清空
func (l *RateLimiter) evictLocked(now time.Time) {
	for k, e := range l.local {
		if now.Sub(e.seen) > l.window {
			delete(l.local, k)
		}
	}
	if len(l.local) >= l.maxLocal {
		logger.Warn("rate limit table full, resetting", zap.Int("entries", len(l.local)))
		clear(l.local)
	}
}
