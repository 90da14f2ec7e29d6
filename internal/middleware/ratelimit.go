package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/m1moraru/Taskify/internal/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit applies a per-client-IP token bucket. Idle limiters are swept
// opportunistically while handling requests, so constructing the middleware
// starts no background goroutine.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	var (
		mu          sync.Mutex
		limiters    = make(map[string]*clientLimiter)
		lastCleanup = time.Now()
	)

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}

	perSecond := rate.Limit(float64(cfg.RequestsPerMin) / 60.0)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		if time.Since(lastCleanup) > cleanupInterval {
			for addr, client := range limiters {
				if time.Since(client.lastSeen) > cleanupInterval {
					delete(limiters, addr)
				}
			}
			lastCleanup = time.Now()
		}

		client, ok := limiters[ip]
		if !ok {
			client = &clientLimiter{limiter: rate.NewLimiter(perSecond, cfg.BurstSize)}
			limiters[ip] = client
		}
		client.lastSeen = time.Now()
		mu.Unlock()

		if !client.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "Too many requests, slow down",
			})
			return
		}

		c.Next()
	}
}
