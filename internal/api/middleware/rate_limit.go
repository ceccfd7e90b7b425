package middleware

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"bauflow/internal/pkg/errors"
	"bauflow/internal/platform/config"
)

// RateLimiter is a per-key token bucket. Keys are client IPs; limits are per
// minute. Registration, login and invitation issuing run behind it to slow
// down credential stuffing and invite spam.
type RateLimiter struct {
	store  sync.Map // map[string]*bucket
	limits map[string]int
}

type bucket struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
	mu         sync.Mutex
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	limits := map[string]int{
		"auth":      cfg.AuthPerMinute,
		"api_write": cfg.APIWritePerMinute,
	}
	for k, v := range limits {
		if v <= 0 {
			limits[k] = 60
		}
	}

	rl := &RateLimiter{limits: limits}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rl.store.Range(func(key, value interface{}) bool {
			b := value.(*bucket)
			b.mu.Lock()
			if now.Sub(b.lastAccess) > 10*time.Minute {
				rl.store.Delete(key)
			}
			b.mu.Unlock()
			return true
		})
	}
}

func (rl *RateLimiter) Allow(key string, limit int) bool {
	now := time.Now()

	val, _ := rl.store.LoadOrStore(key, &bucket{
		tokens:     limit,
		lastRefill: now,
		lastAccess: now,
	})

	b := val.(*bucket)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastAccess = now

	refillRate := float64(limit) / 60.0
	refillTokens := int(now.Sub(b.lastRefill).Seconds() * refillRate)
	if refillTokens > 0 {
		b.tokens += refillTokens
		if b.tokens > limit {
			b.tokens = limit
		}
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

func (rl *RateLimiter) Limit(limitType string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := fmt.Sprintf("%s:%s", ip, limitType)

			limit, ok := rl.limits[limitType]
			if !ok {
				limit = 60
			}

			if !rl.Allow(key, limit) {
				w.Header().Set("Retry-After", "60")
				errors.WriteError(w, http.StatusTooManyRequests, "Zu viele Anfragen – bitte versuchen Sie es später erneut")
				return
			}

			next(w, r)
		}
	}
}
