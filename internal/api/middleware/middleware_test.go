package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/aiverse-api/pkg/jwt"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func do(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key", time.Hour)
	token, err := jwtService.GenerateToken(42, "a@example.com")
	require.NoError(t, err)

	router := setupTestRouter()
	router.Use(RequireAuth(jwtService))
	router.GET("/test", func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})

	w := do(router, http.MethodGet, "/test", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42}`, w.Body.String())

	for _, h := range []string{"", "InvalidFormat token", "Bearer invalid-token", "Bearer "} {
		w := do(router, http.MethodGet, "/test", map[string]string{"Authorization": h})
		assert.Equal(t, http.StatusUnauthorized, w.Code, h)
	}
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	other := jwt.NewService("other-secret", time.Hour)
	token, _ := other.GenerateToken(1, "x@example.com")

	router := setupTestRouter()
	router.Use(RequireAuth(jwt.NewService("test-secret-key", time.Hour)))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(router, http.MethodGet, "/test", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key", time.Hour)
	token, _ := jwtService.GenerateToken(7, "v@example.com")

	router := setupTestRouter()
	router.Use(OptionalAuth(jwtService))
	router.GET("/test", func(c *gin.Context) {
		if v := ViewerID(c); v != nil {
			c.JSON(http.StatusOK, gin.H{"viewer": *v})
			return
		}
		c.JSON(http.StatusOK, gin.H{"viewer": nil})
	})

	w := do(router, http.MethodGet, "/test", map[string]string{"Authorization": "Bearer " + token})
	assert.JSONEq(t, `{"viewer":7}`, w.Body.String())

	w = do(router, http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"viewer":null}`, w.Body.String())

	// 无效令牌按匿名处理
	w = do(router, http.MethodGet, "/test", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"viewer":null}`, w.Body.String())
}

func TestRateLimit_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	router := setupTestRouter()
	router.Use(NewRateLimiter(rdb, 2, time.Minute).Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/ping", nil).Code)
	w := do(router, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, do(router, http.MethodGet, "/ping", nil).Code)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))
	assert.Equal(t, "3", mustGet(t, mr, keys[0]))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/ping", nil).Code)
}

func TestRateLimit_RedisKeyAlwaysExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	router := setupTestRouter()
	router.Use(NewRateLimiter(rdb, 5, 30*time.Second).Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/ping", nil).Code)
		keys := mr.Keys()
		require.Len(t, keys, 1)
		ttl := mr.TTL(keys[0])
		assert.True(t, ttl > 0 && ttl <= 30*time.Second, "ttl %s", ttl)
		mr.FastForward(5 * time.Second)
	}

	// 后续请求不会续期
	keys := mr.Keys()
	assert.Equal(t, 15*time.Second, mr.TTL(keys[0]))
}

func TestRateLimit_RedisDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	router := setupTestRouter()
	router.Use(NewRateLimiter(rdb, 1, time.Minute).Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/ping", nil).Code)
	}
}

func TestRateLimit_LocalFallback(t *testing.T) {
	router := setupTestRouter()
	router.Use(NewRateLimiter(nil, 2, time.Hour).Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/ping", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(router, http.MethodGet, "/ping", nil).Code)

	// 不同客户端独立计数
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_LocalTableBounded(t *testing.T) {
	limiter := NewRateLimiter(nil, 2, time.Minute)
	limiter.maxLocal = 4
	clock := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return clock }

	router := setupTestRouter()
	router.Use(limiter.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	from := func(addr string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = addr
		router.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, from(fmt.Sprintf("10.0.1.%d:1000", i)))
		assert.LessOrEqual(t, len(limiter.local), 4)
	}

	// 闲置超过窗口的客户端先被清理，活跃客户端保留计数
	limiter.local = make(map[string]*localEntry)
	for i := 0; i < 3; i++ {
		from(fmt.Sprintf("10.0.2.%d:1000", i))
	}
	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, http.StatusOK, from("10.0.3.1:1000"))
	assert.Equal(t, http.StatusOK, from("10.0.3.1:1000"))
	assert.Equal(t, http.StatusOK, from("10.0.3.2:1000"))
	assert.Len(t, limiter.local, 2)
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.3.1:1000"))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

func TestRequestID(t *testing.T) {
	router := setupTestRouter()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	w := do(router, http.MethodGet, "/test", nil)
	generated := w.Header().Get(HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	w = do(router, http.MethodGet, "/test", map[string]string{HeaderRequestID: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestRecovery(t *testing.T) {
	router := setupTestRouter()
	router.Use(Logger(), Recovery())
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(router, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "boom")
}
