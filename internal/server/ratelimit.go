package server

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleClientTTL is how long an unused client limiter is kept.
const idleClientTTL = 10 * time.Minute

// RateLimiter applies a token bucket per client address.
type RateLimiter struct {
	mu sync.Mutex

	limit       rate.Limit
	burst       int
	perMinute   int
	clients     map[string]*clientLimiter
	lastCleanup time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter returns nil when cfg disables rate limiting.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerMinute
	}
	return &RateLimiter{
		limit:     rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute)),
		burst:     burst,
		perMinute: cfg.RequestsPerMinute,
		clients:   make(map[string]*clientLimiter),
	}
}

// Allow consumes one request for clientID at now, or reports how long the
// client has to wait.
func (rl *RateLimiter) Allow(clientID string, now time.Time) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanup(now)

	c, ok := rl.clients[clientID]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[clientID] = c
	}
	c.lastSeen = now

	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return &RateLimitError{Limit: rl.perMinute, RetryAfter: time.Minute}
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return &RateLimitError{Limit: rl.perMinute, RetryAfter: delay}
	}
	return nil
}

// Clients returns the number of tracked client addresses.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) cleanup(now time.Time) {
	if now.Sub(rl.lastCleanup) < time.Minute {
		return
	}
	rl.lastCleanup = now
	for id, c := range rl.clients {
		if now.Sub(c.lastSeen) > idleClientTTL {
			delete(rl.clients, id)
		}
	}
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (limit: %d/min, retry after: %v)", e.Limit, e.RetryAfter.Round(time.Second))
}
