package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "10.0.0.9")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "limits are per client")
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) {
		l, ok := c.Get("logger")
		assert.True(t, ok)
		assert.IsType(t, &zap.Logger{}, l)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}

func TestRateLimiterStoreEvictsIdleClients(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store := newRateLimiterStore(1)
	store.now = func() time.Time { return now }

	first := store.getLimiter("10.0.0.1")
	assert.True(t, first.Allow())
	store.getLimiter("10.0.0.2")
	assert.Len(t, store.limiters, 2)

	now = now.Add(2 * time.Minute)
	store.getLimiter("10.0.0.2")
	assert.Len(t, store.limiters, 2, "entries survive until they have been idle long enough")

	now = now.Add(2 * time.Minute)
	store.getLimiter("10.0.0.3")
	assert.Len(t, store.limiters, 2)
	assert.NotContains(t, store.limiters, "10.0.0.1")
	assert.Contains(t, store.limiters, "10.0.0.2")

	again := store.getLimiter("10.0.0.1")
	assert.NotSame(t, first, again, "an evicted client starts with a fresh limiter")
	assert.True(t, again.Allow())
}
