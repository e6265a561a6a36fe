// ABOUTME: Keyed token-bucket rate gate applied before dispatch
// ABOUTME: One limiter per key, created lazily and kept for the process lifetime

package mcp

import (
	"sync"

	"golang.org/x/time/rate"
)

// KeyedGate implements RateGate with an independent token bucket per
// key. Limiters are never evicted; key cardinality is bounded by the
// user population plus active remote addresses.
type KeyedGate struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewKeyedGate creates a gate allowing rps sustained requests per key
// with the given burst.
func NewKeyedGate(rps float64, burst int) *KeyedGate {
	return &KeyedGate{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether one request under the given key may proceed.
func (g *KeyedGate) Allow(key string) bool {
	g.mu.Lock()
	l, ok := g.limiters[key]
	if !ok {
		l = rate.NewLimiter(g.rps, g.burst)
		g.limiters[key] = l
	}
	g.mu.Unlock()
	return l.Allow()
}
