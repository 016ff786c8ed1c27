package middleware

import (
	"net/http"
	"sync"
	"time"

	"diaglab/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiters idle this long have refilled their burst and are dropped.
const limiterIdleTTL = 3 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds a map of IP addresses to their rate limiters.
type rateLimiterStore struct {
	limiters  map[string]*clientLimiter
	perMin    int
	now       func() time.Time
	lastSweep time.Time
	mu        sync.Mutex
}

func newRateLimiterStore(perMin int) *rateLimiterStore {
	if perMin <= 0 {
		perMin = 100
	}
	return &rateLimiterStore{limiters: make(map[string]*clientLimiter), perMin: perMin, now: time.Now}
}

// getLimiter returns the rate limiter for a given IP, creating one if it doesn't exist.
func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	cl, exists := s.limiters[ip]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin)}
		s.limiters[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// sweep drops idle limiters at most once per idle period. Callers hold s.mu.
func (s *rateLimiterStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < limiterIdleTTL {
		return
	}
	s.lastSweep = now
	for ip, cl := range s.limiters {
		if now.Sub(cl.lastSeen) >= limiterIdleTTL {
			delete(s.limiters, ip)
		}
	}
}

// RateLimitMiddleware allows perMin requests per minute per client IP.
func RateLimitMiddleware(perMin int) gin.HandlerFunc {
	store := newRateLimiterStore(perMin)
	return func(c *gin.Context) {
		ip := getClientIP(c)
		if !store.getLimiter(ip).Allow() {
			utils.GetLogger().Warn("Rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.ErrorResponse{Message: "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
