// Package ratelimit provides a per-client request rate limiter.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/bnema/sitehost/internal/boundaries/out"
	"github.com/bnema/sitehost/internal/logging"
)

// Ensure MemoryStore implements out.RateLimiter.
var _ out.RateLimiter = (*MemoryStore)(nil)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryStore gives every key (usually a client IP) its own token bucket.
// Buckets idle for longer than the idle window are dropped by Sweep.
type MemoryStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      float64
	burst    int
	idle     time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewMemoryStore creates a limiter allowing rps requests per second per key
// with the given burst.
func NewMemoryStore(rps float64, burst int, idle time.Duration, log zerolog.Logger) *MemoryStore {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &MemoryStore{
		visitors: make(map[string]*visitor),
		rps:      rps,
		burst:    burst,
		idle:     idle,
		log: log.With().
			Str(logging.FieldLayer, "adapter").
			Str(logging.FieldAdapter, "ratelimit").
			Logger(),
		now: time.Now,
	}
}

// Allow reports whether one more request from key fits in its bucket.
func (s *MemoryStore) Allow(_ context.Context, key string) bool {
	now := s.now()

	s.mu.Lock()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	s.mu.Unlock()

	allowed := v.limiter.AllowN(now, 1)
	if !allowed {
		s.log.Debug().Str("key", key).Msg("request rate limited")
	}
	return allowed
}

// Sweep drops buckets that have been idle longer than the idle window and
// returns how many were removed.
func (s *MemoryStore) Sweep() int {
	cutoff := s.now().Add(-s.idle)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, v := range s.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(s.visitors, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle buckets every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Debug().Int("removed", n).Msg("idle rate limit buckets dropped")
			}
		}
	}
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}
