package ratelimit

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxVisitors bounds the tracked clients before the oldest half is evicted.
const maxVisitors = 10000

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a per-client token bucket kept in process. It is used
// when no Redis is configured.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	idle     time.Duration
}

func NewMemoryLimiter(rps float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     3 * time.Minute,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) bool {
	if m.rps <= 0 {
		return true
	}

	m.mu.Lock()
	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.rps, m.burst)}
		m.visitors[key] = v
	}
	v.lastSeen = time.Now()
	m.mu.Unlock()

	return v.limiter.Allow()
}

// Run evicts idle clients every interval until ctx is cancelled.
func (m *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evict(time.Now())
		}
	}
}

func (m *MemoryLimiter) evict(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > m.idle {
			delete(m.visitors, key)
		}
	}

	if len(m.visitors) <= maxVisitors {
		return
	}

	// Still over the cap: drop the oldest half.
	seen := make([]time.Time, 0, len(m.visitors))
	for _, v := range m.visitors {
		seen = append(seen, v.lastSeen)
	}
	slices.SortFunc(seen, func(a, b time.Time) int { return a.Compare(b) })
	cutoff := seen[len(seen)/2]
	for key, v := range m.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(m.visitors, key)
		}
	}
}

// size returns the number of tracked clients.
func (m *MemoryLimiter) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visitors)
}
