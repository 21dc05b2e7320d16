package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// newTestLimiter returns a limiter driven by the returned clock setter
func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, func(time.Time)) {
	t.Helper()
	limiter := NewRateLimiter(limit, window)
	t.Cleanup(limiter.Stop)

	now := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	set := func(at time.Time) {
		limiter.mu.Lock()
		defer limiter.mu.Unlock()
		now = at
		limiter.now = func() time.Time { return now }
	}
	set(now)
	return limiter, set
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 5, time.Minute)

		for i := 0; i < 5; i++ {
			assert.True(t, limiter.Allow("client1"), "request %d should be allowed", i+1)
		}
		assert.Equal(t, 0, limiter.Remaining("client1"))
	})

	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("client2"))
		}
		assert.False(t, limiter.Allow("client2"))
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 2, time.Minute)

		assert.True(t, limiter.Allow("clientA"))
		assert.True(t, limiter.Allow("clientA"))
		assert.False(t, limiter.Allow("clientA"))

		assert.True(t, limiter.Allow("clientB"))
		assert.Equal(t, 1, limiter.Remaining("clientB"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter, setNow := newTestLimiter(t, 2, time.Minute)
		start := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

		assert.True(t, limiter.Allow("client3"))
		assert.True(t, limiter.Allow("client3"))
		assert.False(t, limiter.Allow("client3"))

		setNow(start.Add(time.Minute))
		assert.Equal(t, 2, limiter.Remaining("client3"))
		assert.True(t, limiter.Allow("client3"))
	})

	t.Run("unknown client has full quota", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 4, time.Minute)
		assert.Equal(t, 4, limiter.Remaining("nobody"))
	})

	t.Run("concurrent access never over-admits", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 50, time.Minute)

		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("shared") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, allowed)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		limiter.Stop()
		assert.NotPanics(t, limiter.Stop)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("returns 429 with a normalized error when limit exceeded", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 2, time.Minute)
		router := gin.New()
		router.Use(RequestID(), RateLimit(limiter))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
	})
}

func TestRateLimitByKey_PerEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter, _ := newTestLimiter(t, 1, time.Minute)
	router := gin.New()
	router.POST("/events/:event_id/recalculate", RateLimitByKey(limiter, EventRateLimitKey), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	post := func(eventID string) int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events/"+eventID+"/recalculate", nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post("event-a"))
	assert.Equal(t, http.StatusTooManyRequests, post("event-a"))
	assert.Equal(t, http.StatusOK, post("event-b"))
}
