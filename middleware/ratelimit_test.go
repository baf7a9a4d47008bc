package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func hit(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = ip + ":50000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newRateLimitRouter(r rate.Limit, b int) *gin.Engine {
	eng := gin.New()
	eng.Use(RateLimit(r, b))
	eng.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	return eng
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	r := newRateLimitRouter(0.01, 3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.1.1").Code, "request %d", i+1)
	}
	w := hit(r, "10.0.1.1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	secs, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, secs, 1)
	assert.LessOrEqual(t, secs, 100)
}

func TestRateLimit_PerClient(t *testing.T) {
	r := newRateLimitRouter(0.01, 1)
	assert.Equal(t, http.StatusOK, hit(r, "10.1.1.1").Code)
	assert.Equal(t, http.StatusOK, hit(r, "10.1.1.2").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.1.1.1").Code)
}

func TestLimiterStore_Sweep(t *testing.T) {
	s := newLimiterStore(1, 1)
	base := time.Now()
	s.reserve("10.0.0.1", base)
	s.reserve("10.0.0.2", base.Add(time.Minute))
	require.Equal(t, 2, s.size())

	s.sweep(base.Add(30 * time.Second))
	assert.Equal(t, 1, s.size())

	// A swept client starts again with a full bucket.
	ok, _ := s.reserve("10.0.0.1", base.Add(31*time.Second))
	assert.True(t, ok)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, "1", retryAfter(0))
	assert.Equal(t, "1", retryAfter(200*time.Millisecond))
	assert.Equal(t, "3", retryAfter(2100*time.Millisecond))
	assert.Equal(t, "3600", retryAfter(48*time.Hour))
}
