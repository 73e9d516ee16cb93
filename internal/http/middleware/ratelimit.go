// README: Per-client token-bucket rate limiting for mutating requests.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	clientIdle    = 3 * time.Minute
	sweepInterval = time.Minute
)

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	r         rate.Limit
	burst     int
	lastSweep time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*client),
		r:         rate.Limit(rps),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	if now.Sub(rl.lastSweep) > sweepInterval {
		for k, c := range rl.clients {
			if now.Sub(c.seen) > clientIdle {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}
	if c, ok := rl.clients[key]; ok {
		c.seen = now
		return c.lim
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.clients[key] = &client{lim: l, seen: now}
	return l
}

// limited methods; reads stay unthrottled
var limited = map[string]bool{
	http.MethodPost:   true,
	http.MethodPatch:  true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// RateLimit keys clients by caller uid when authenticated, client IP otherwise.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limited[c.Request.Method] {
			c.Next()
			return
		}
		key := CallerUID(c)
		if key == "" || key == "anonymous" {
			key = c.ClientIP()
		}
		if !rl.get(key).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests", "kind": "RateLimited"})
			return
		}
		c.Next()
	}
}
