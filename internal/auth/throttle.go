package auth

import (
	"sync"

	"golang.org/x/time/rate"
)

// LoginThrottle rate-limits login attempts per client address so
// credential guessing cannot run unchecked. Limiters are created lazily
// per address and kept for the process lifetime.
type LoginThrottle struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLoginThrottle allows ratePerSecond sustained attempts with the given
// burst per client address.
func NewLoginThrottle(ratePerSecond float64, burst int) *LoginThrottle {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 5
	}
	return &LoginThrottle{
		limit:    rate.Limit(ratePerSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether the client at addr may attempt a login now.
func (t *LoginThrottle) Allow(addr string) bool {
	t.mu.Lock()
	lim, ok := t.limiters[addr]
	if !ok {
		lim = rate.NewLimiter(t.limit, t.burst)
		t.limiters[addr] = lim
	}
	t.mu.Unlock()
	return lim.Allow()
}
