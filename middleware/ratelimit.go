package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterSweepEvery = 5 * time.Minute
	limiterIdleTTL    = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one token bucket per client IP.
type limiterStore struct {
	mu      sync.Mutex
	r       rate.Limit
	b       int
	clients map[string]*clientLimiter
}

func newLimiterStore(r rate.Limit, b int) *limiterStore {
	return &limiterStore{r: r, b: b, clients: make(map[string]*clientLimiter)}
}

// reserve takes a token for ip. When none is available it returns false and
// how long until one will be.
func (s *limiterStore) reserve(ip string, now time.Time) (bool, time.Duration) {
	s.mu.Lock()
	cl, ok := s.clients[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(s.r, s.b)}
		s.clients[ip] = cl
	}
	cl.lastSeen = now
	s.mu.Unlock()

	if cl.limiter.AllowN(now, 1) {
		return true, 0
	}
	res := cl.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Duration(math.MaxInt64)
	}
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return false, wait
}

// sweep forgets clients idle since before cutoff.
func (s *limiterStore) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ip, cl := range s.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(s.clients, ip)
		}
	}
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// RateLimit provides per-IP token-bucket rate limiting.
// r = requests per second, b = burst size. Rejected requests get 429 with a
// Retry-After header in whole seconds.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	store := newLimiterStore(r, b)

	go func() {
		ticker := time.NewTicker(limiterSweepEvery)
		defer ticker.Stop()
		for now := range ticker.C {
			store.sweep(now.Add(-limiterIdleTTL))
		}
	}()

	return func(c *gin.Context) {
		ok, wait := store.reserve(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", retryAfter(wait))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func retryAfter(wait time.Duration) string {
	const maxWait = time.Hour
	if wait > maxWait {
		wait = maxWait
	}
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
