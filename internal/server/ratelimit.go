package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// callerIdleTTL is how long a caller bucket may stay unused before it is
	// dropped. Buckets refill completely within a minute, so an idle one
	// carries no state.
	callerIdleTTL = time.Minute
	// maxCallers caps the number of tracked caller buckets.
	maxCallers = 10000
)

type callerEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces per-caller and global request rate limits.
// Uses token bucket algorithm via golang.org/x/time/rate.
type RateLimiter struct {
	mu         sync.Mutex
	global     *rate.Limiter
	callers    map[string]*callerEntry
	perCaller  rate.Limit
	burst      int
	maxCallers int
	lastSweep  time.Time
	now        func() time.Time
}

// NewRateLimiter creates a rate limiter. globalRPM caps requests per minute
// across all callers; perCallerRPM caps each caller. A non-positive rate
// returns nil, which disables limiting.
func NewRateLimiter(globalRPM, perCallerRPM int) *RateLimiter {
	if globalRPM <= 0 || perCallerRPM <= 0 {
		return nil
	}
	return &RateLimiter{
		global:     rate.NewLimiter(rate.Limit(float64(globalRPM)/60.0), globalRPM),
		callers:    make(map[string]*callerEntry),
		perCaller:  rate.Limit(float64(perCallerRPM) / 60.0),
		burst:      perCallerRPM,
		maxCallers: maxCallers,
		now:        time.Now,
	}
}

// Allow checks whether a request from the given caller is allowed.
// The caller bucket is checked first so one noisy caller cannot drain the
// global bucket for everyone else.
func (rl *RateLimiter) Allow(caller string) bool {
	now := rl.now()
	rl.mu.Lock()
	if now.Sub(rl.lastSweep) >= callerIdleTTL {
		rl.sweep(now)
	}
	entry, ok := rl.callers[caller]
	if !ok {
		if len(rl.callers) >= rl.maxCallers {
			rl.sweep(now)
			if len(rl.callers) >= rl.maxCallers {
				rl.evictOldest()
			}
		}
		entry = &callerEntry{limiter: rate.NewLimiter(rl.perCaller, rl.burst)}
		rl.callers[caller] = entry
	}
	entry.lastSeen = now
	limiter := entry.limiter
	rl.mu.Unlock()
	if !limiter.AllowN(now, 1) {
		return false
	}
	return rl.global.AllowN(now, 1)
}

// Len returns the number of tracked callers.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.callers)
}

// sweep drops callers idle for callerIdleTTL. Caller must hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, e := range rl.callers {
		if now.Sub(e.lastSeen) >= callerIdleTTL {
			delete(rl.callers, k)
		}
	}
	rl.lastSweep = now
}

// evictOldest drops the least recently seen caller. Caller must hold mu.
func (rl *RateLimiter) evictOldest() {
	var oldest string
	var at time.Time
	for k, e := range rl.callers {
		if oldest == "" || e.lastSeen.Before(at) {
			oldest, at = k, e.lastSeen
		}
	}
	delete(rl.callers, oldest)
}
