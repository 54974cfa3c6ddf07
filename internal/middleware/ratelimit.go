package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"autoflow/internal/config"
	"autoflow/internal/metrics"

	"github.com/gin-gonic/gin"
)

// tokenBucket is a simple token bucket implementation for rate limiting.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	ratePerSec float64 // tokens per second
	burst      float64
}

func newBucket(rpm, burst int) *tokenBucket {
	if rpm <= 0 {
		rpm = 60
	}
	if burst <= 0 {
		burst = rpm // default burst equals a minute worth
	}
	return &tokenBucket{
		tokens:     float64(burst),
		lastRefill: time.Now(),
		ratePerSec: float64(rpm) / 60.0,
		burst:      float64(burst),
	}
}

func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.ratePerSec
		if b.tokens > b.burst {
			b.tokens = b.burst
		}
		b.lastRefill = now
	}
	if b.tokens >= 1 {
		b.tokens -= 1
		return true
	}
	return false
}

// RateLimitMiddleware enables simple per-IP rate limiting using a token bucket.
// It is controlled by cfg.Security.RateLimiting. If disabled, it no-ops.
func RateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	rl := cfg.Security.RateLimiting
	if !rl.Enabled || rl.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	var (
		mu      sync.Mutex
		buckets = make(map[string]*tokenBucket)
	)
	getBucket := func(key string) *tokenBucket {
		mu.Lock()
		defer mu.Unlock()
		if b, ok := buckets[key]; ok {
			return b
		}
		b := newBucket(rl.RequestsPerMinute, rl.Burst)
		buckets[key] = b
		return b
	}
	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}
		if !getBucket(key).allow() {
			metrics.IncRateLimitDrop("global")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too Many Requests",
				"message": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// CORSMiddleware applies the configured CORS headers and answers preflight
// requests. With CORS disabled in config it falls back to permissive defaults.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowedOrigins := "*"
	allowedMethods := "GET, POST, PUT, DELETE, OPTIONS"
	allowedHeaders := "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization"
	if cfg != nil && cfg.Security.CORS.Enabled {
		if len(cfg.Security.CORS.AllowedOrigins) > 0 {
			allowedOrigins = strings.Join(cfg.Security.CORS.AllowedOrigins, ", ")
		}
		if len(cfg.Security.CORS.AllowedMethods) > 0 {
			allowedMethods = strings.Join(cfg.Security.CORS.AllowedMethods, ", ")
		}
		if len(cfg.Security.CORS.AllowedHeaders) > 0 {
			allowedHeaders = strings.Join(cfg.Security.CORS.AllowedHeaders, ", ")
		}
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigins)
		c.Header("Access-Control-Allow-Methods", allowedMethods)
		c.Header("Access-Control-Allow-Headers", allowedHeaders)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
