package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter is a per-client-IP token bucket. Three tiers are used across
// the services: general traffic, auth endpoints (login/register) and OTP
// endpoints, each with its own requests-per-minute budget.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientBucket
	perMin   int
	lastSeen time.Duration
}

type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter allows perMinute requests per client IP. Idle client state
// is dropped after ten minutes without traffic.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		clients:  make(map[string]*clientBucket),
		perMin:   perMinute,
		lastSeen: 10 * time.Minute,
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	bucket, ok := rl.clients[ip]
	if !ok {
		bucket = &clientBucket{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.perMin)/60.0), rl.perMin),
		}
		rl.clients[ip] = bucket
	}
	bucket.seen = now

	// Opportunistic sweep of idle clients; the map stays small under
	// normal traffic so a full scan is fine.
	if len(rl.clients) > 1024 {
		for ip, b := range rl.clients {
			if now.Sub(b.seen) > rl.lastSeen {
				delete(rl.clients, ip)
			}
		}
	}

	return bucket.limiter.Allow()
}

// Middleware rejects over-budget clients with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again later"})
			c.Abort()
			return
		}
		c.Next()
	}
}
