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

// limitedRouter mounts the report listing endpoint behind the given
// rate limiting middleware.
func limitedRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.GET("/api/v1/reports", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func listReports(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/v1/reports", nil)
	req.RemoteAddr = "10.20.1.5:52100"
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)
		for i := 0; i < 5; i++ {
			assert.True(t, limiter.Allow("rs-harapan:10.20.1.5"), "request %d should be allowed", i+1)
		}
	})

	t.Run("blocks requests past the limit", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)
		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("rs-harapan:10.20.1.5"))
		}
		assert.False(t, limiter.Allow("rs-harapan:10.20.1.5"))
	})

	t.Run("tracks each key independently", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)

		assert.True(t, limiter.Allow("rs-harapan:10.20.1.5"))
		assert.True(t, limiter.Allow("rs-harapan:10.20.1.5"))
		assert.False(t, limiter.Allow("rs-harapan:10.20.1.5"))

		assert.True(t, limiter.Allow("rs-medika:10.20.1.5"))
		assert.True(t, limiter.Allow("rs-medika:10.20.1.5"))
	})

	t.Run("refills after the window passes", func(t *testing.T) {
		limiter := NewRateLimiter(2, 50*time.Millisecond)

		assert.True(t, limiter.Allow("rs-harapan:10.20.1.5"))
		assert.True(t, limiter.Allow("rs-harapan:10.20.1.5"))
		assert.False(t, limiter.Allow("rs-harapan:10.20.1.5"))

		time.Sleep(60 * time.Millisecond)

		assert.True(t, limiter.Allow("rs-harapan:10.20.1.5"))
	})

	t.Run("remaining reflects consumed tokens", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)
		assert.Equal(t, 5, limiter.Remaining("rs-medika:10.20.3.9"))

		limiter.Allow("rs-medika:10.20.3.9")
		limiter.Allow("rs-medika:10.20.3.9")

		assert.Equal(t, 3, limiter.Remaining("rs-medika:10.20.3.9"))
	})

	t.Run("concurrent access admits exactly the limit", func(t *testing.T) {
		limiter := NewRateLimiter(100, time.Minute)
		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0

		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("rs-harapan:burst") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}

		wg.Wait()
		assert.Equal(t, 100, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("serves requests within the limit", func(t *testing.T) {
		router := limitedRouter(RateLimit(NewRateLimiter(3, time.Minute)))

		for i := 0; i < 3; i++ {
			w := listReports(router, nil)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("returns 429 past the limit", func(t *testing.T) {
		router := limitedRouter(RateLimit(NewRateLimiter(2, time.Minute)))

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, listReports(router, nil).Code)
		}

		w := listReports(router, nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
	})

	t.Run("sets limit headers on admitted requests", func(t *testing.T) {
		router := limitedRouter(RateLimit(NewRateLimiter(5, time.Minute)))

		w := listReports(router, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("scopes the quota per hospital", func(t *testing.T) {
		router := limitedRouter(RateLimit(NewRateLimiter(1, time.Minute)))

		w := listReports(router, map[string]string{"X-Hospital-ID": "rs-harapan"})
		assert.Equal(t, http.StatusOK, w.Code)

		w = listReports(router, map[string]string{"X-Hospital-ID": "rs-harapan"})
		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		// Another hospital on the same client IP keeps its own quota.
		w = listReports(router, map[string]string{"X-Hospital-ID": "rs-medika"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitByKey(t *testing.T) {
	t.Run("limits by the extracted key", func(t *testing.T) {
		byUser := func(c *gin.Context) string {
			return c.GetHeader("X-User-ID")
		}
		router := limitedRouter(RateLimitByKey(NewRateLimiter(1, time.Minute), byUser))

		w := listReports(router, map[string]string{"X-User-ID": "user-bendahara-3"})
		assert.Equal(t, http.StatusOK, w.Code)

		w = listReports(router, map[string]string{"X-User-ID": "user-bendahara-3"})
		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		w = listReports(router, map[string]string{"X-User-ID": "user-direktur-1"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
