package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("blocks after limit", func(t *testing.T) {
		l := NewMemoryLimiter(3, time.Minute)
		for i := range 3 {
			ok, remaining, err := l.Allow(ctx, "a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, 2-i, remaining)
		}
		ok, _, _ := l.Allow(ctx, "a")
		assert.False(t, ok)

		ok, _, _ = l.Allow(ctx, "b")
		assert.True(t, ok, "limits are per key")
	})

	t.Run("resets after window", func(t *testing.T) {
		l := NewMemoryLimiter(1, time.Minute)
		now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return now }

		ok, _, _ := l.Allow(ctx, "a")
		assert.True(t, ok)
		ok, _, _ = l.Allow(ctx, "a")
		assert.False(t, ok)

		now = now.Add(time.Minute + time.Second)
		ok, _, _ = l.Allow(ctx, "a")
		assert.True(t, ok)
	})

	t.Run("period comes from the constructor", func(t *testing.T) {
		l := NewMemoryLimiter(1, 30*time.Second)
		now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return now }

		ok, _, _ := l.Allow(ctx, "a")
		assert.True(t, ok)

		now = now.Add(20 * time.Second)
		ok, _, _ = l.Allow(ctx, "a")
		assert.False(t, ok, "still inside the 30s window")

		now = now.Add(11 * time.Second)
		ok, _, _ = l.Allow(ctx, "a")
		assert.True(t, ok)
	})
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, int, error) {
	return false, 0, assert.AnError
}
func (failingLimiter) Limit() int { return 1 }

func TestRateLimit(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(NewMemoryLimiter(2, time.Minute), nil))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusOK {
			assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(failingLimiter{}, nil))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
