// engine/internal/ratelimit/ratelimit.go
package ratelimit

import (
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

// ErrRateLimited rejects a conversion request that exceeds the
// per-caller budget. The caller maps this to HTTP 429.
var ErrRateLimited = errors.New("rate limited")

// PerCaller enforces a conversions-per-minute budget independently
// for each caller key (client IP or API key).
type PerCaller struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perMin   float64
	burst    int
}

func New(perMinute float64, burst int) *PerCaller {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &PerCaller{
		limiters: make(map[string]*rate.Limiter),
		perMin:   perMinute,
		burst:    burst,
	}
}

func (p *PerCaller) limiterFor(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(p.perMin/60.0), p.burst)
		p.limiters[key] = l
	}
	return l
}

// Allow consumes one token for the caller, or returns ErrRateLimited.
// Non-blocking: acceptance checks reject rather than queue.
func (p *PerCaller) Allow(key string) error {
	if !p.limiterFor(key).Allow() {
		return ErrRateLimited
	}
	return nil
}
