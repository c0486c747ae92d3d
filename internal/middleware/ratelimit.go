package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-detection-go/pkg/response"
)

// RateLimiter is a sliding-window limiter keyed by client
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int           // Maximum requests per window
	window   time.Duration // Time window
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// cleanup drops idle keys once per window
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, times := range rl.requests {
				if valid := rl.prune(times, now); len(valid) == 0 {
					delete(rl.requests, key)
				} else {
					rl.requests[key] = valid
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) prune(times []time.Time, now time.Time) []time.Time {
	valid := times[:0]
	for _, t := range times {
		if now.Sub(t) < rl.window {
			valid = append(valid, t)
		}
	}
	return valid
}

// Allow records a request for key and reports whether it is within the limit.
// When refused, retryAfter is the time until the oldest request expires.
func (rl *RateLimiter) Allow(key string) (ok bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := rl.prune(rl.requests[key], now)
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false, rl.window - now.Sub(valid[0])
	}

	rl.requests[key] = append(valid, now)
	return true, 0
}

// RateLimit limits requests per device, falling back to client IP for
// routes without a device ID. Mounted after DeviceAuth it keys by the
// authenticated device, so rejected requests never spend a device's budget.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id := c.GetString(DeviceIDKey); id != "" {
			key = "device:" + id
		} else if id := c.Param("deviceId"); id != "" {
			key = "device:" + id
		}

		if ok, retryAfter := rl.Allow(key); !ok {
			secs := int(retryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			return
		}

		c.Next()
	}
}
