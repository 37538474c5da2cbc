// Package ratelimiter provides the per-peer token bucket that guards
// the one-time key pool against exhaustion by a single claimer.
package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PeerLimiter keeps one token bucket per peer and evicts buckets that
// have gone idle so the map stays bounded.
type PeerLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu     sync.Mutex
	byPeer map[string]*bucket
	hits   uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a per-peer limiter; returns nil when disabled, and a nil
// limiter admits everything.
func New(rps float64, burst int, idleTTL time.Duration) *PeerLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &PeerLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		byPeer:  make(map[string]*bucket),
	}
}

// Allow reports whether peer may consume one claim at now. An empty
// peer label is not throttled; the caller decides whether to demand one.
func (l *PeerLimiter) Allow(peer string, now time.Time) bool {
	if l == nil || peer == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byPeer[peer]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byPeer[peer] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%256 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byPeer {
			if v.lastSeen.Before(cutoff) {
				delete(l.byPeer, k)
			}
		}
	}

	return allowed
}
