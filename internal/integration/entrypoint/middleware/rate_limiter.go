// Package middleware provides HTTP middleware for the API endpoints.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	domainerror "github.com/dgi-compliance/backend/internal/domain/error"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/dto"
)

const (
	defaultRequestLimit  = 30
	defaultLimitWindow   = 1 * time.Minute
	limiterSweepInterval = 5 * time.Minute
)

// clientWindow counts requests for one client inside the current window.
type clientWindow struct {
	count   int
	expires time.Time
}

// RateLimiter throttles mutating requests with a fixed window per client.
// Authenticated requests are counted per user, everything else per IP.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientWindow
	limit     int
	window    time.Duration
	lastSweep time.Time
}

// NewRateLimiter creates a rate limiter with the default request budget.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(defaultRequestLimit, defaultLimitWindow)
}

// NewRateLimiterWithConfig creates a rate limiter with an explicit budget.
// Test environments pass a high limit here instead of toggling behavior
// through the environment.
func NewRateLimiterWithConfig(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*clientWindow),
		limit:     limit,
		window:    window,
		lastSweep: time.Now(),
	}
}

// Middleware returns a Gin handler enforcing the request budget.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(clientKey(c)) {
			c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: "Too many requests. Please try again later.",
				Code:  string(domainerror.ErrCodeRateLimited),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// clientKey prefers the authenticated user id so clients behind one NAT do
// not share a budget; unauthenticated requests fall back to the IP.
func clientKey(c *gin.Context) string {
	if userID, ok := GetUserIDFromContext(c); ok {
		return "user:" + userID.String()
	}
	if ip := c.ClientIP(); ip != "" {
		return "ip:" + ip
	}
	return "ip:" + c.Request.RemoteAddr
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweepLocked(now)

	window, ok := rl.clients[key]
	if !ok || now.After(window.expires) {
		rl.clients[key] = &clientWindow{count: 1, expires: now.Add(rl.window)}
		return true
	}
	if window.count < rl.limit {
		window.count++
		return true
	}
	return false
}

// sweepLocked drops expired windows so the client map does not grow without
// bound. Called with the mutex held.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < limiterSweepInterval {
		return
	}
	rl.lastSweep = now
	for key, window := range rl.clients {
		if now.After(window.expires) {
			delete(rl.clients, key)
		}
	}
}

// Reset clears all counted windows.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.clients = make(map[string]*clientWindow)
}
