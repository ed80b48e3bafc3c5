// Package ratelimit throttles outbound requests per host.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter hands out request permits. Each host gets its own token bucket so
// the port-scan dialer and the HTTP client share the same budget per host.
type Limiter struct {
	mu      sync.Mutex
	perHost map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewLimiter creates a limiter. requestsPerSecond <= 0 disables throttling.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		perHost: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.perHost[host]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.perHost[host] = lim
	}
	return lim
}

// Wait blocks until a request to host is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	if l == nil {
		return ctx.Err()
	}
	return l.forHost(host).Wait(ctx)
}

// Allow reports whether a request to host may go out now, consuming a token.
func (l *Limiter) Allow(host string) bool {
	if l == nil {
		return true
	}
	return l.forHost(host).Allow()
}

// Unlimited reports whether throttling is disabled.
func (l *Limiter) Unlimited() bool {
	return l == nil || l.limit == rate.Inf
}

// Stats describes the limiter state.
type Stats struct {
	Hosts             int
	RequestsPerSecond float64
	Burst             int
}

// Stats returns the number of tracked hosts and the configured rate.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Hosts:             len(l.perHost),
		RequestsPerSecond: float64(l.limit),
		Burst:             l.burst,
	}
}
