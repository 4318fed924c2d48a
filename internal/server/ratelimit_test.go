package server

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_GlobalLimit(t *testing.T) {
	rl := NewRateLimiter(5, 100)

	allowed := 0
	for i := 0; i < 20; i++ {
		if rl.Allow("caller-a") {
			allowed++
		}
	}
	// Token bucket burst=5, so first 5 should be allowed, then rate-limited
	assert.LessOrEqual(t, allowed, 6, "global limit should cap requests")
	assert.GreaterOrEqual(t, allowed, 4, "burst should allow at least 4")
}

func TestRateLimiter_PerCallerLimit(t *testing.T) {
	rl := NewRateLimiter(1000, 3)

	allowed := 0
	for i := 0; i < 20; i++ {
		if rl.Allow("caller-a") {
			allowed++
		}
	}
	assert.LessOrEqual(t, allowed, 4, "per-caller limit should cap requests")

	// A different caller gets its own bucket
	assert.True(t, rl.Allow("caller-b"), "different caller should have separate bucket")
}

func TestRateLimiter_Disabled(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0, 10))
	assert.Nil(t, NewRateLimiter(10, 0))
}

func TestRateLimiter_DropsIdleCallers(t *testing.T) {
	rl := NewRateLimiter(100000, 60)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow(fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.Equal(t, 100, rl.Len())

	now = now.Add(callerIdleTTL)
	assert.True(t, rl.Allow("10.0.1.1"))
	assert.Equal(t, 1, rl.Len(), "idle callers are swept")
}

func TestRateLimiter_CapsCallers(t *testing.T) {
	rl := NewRateLimiter(100000, 60)
	rl.maxCallers = 3
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for _, c := range []string{"a", "b", "c", "d", "e"} {
		now = now.Add(time.Second)
		rl.Allow(c)
		assert.LessOrEqual(t, rl.Len(), 3)
	}
	rl.mu.Lock()
	_, hasA := rl.callers["a"]
	_, hasE := rl.callers["e"]
	rl.mu.Unlock()
	assert.False(t, hasA, "least recently seen caller is evicted")
	assert.True(t, hasE)
}

func TestRateLimiter_SweepKeepsActiveCallers(t *testing.T) {
	rl := NewRateLimiter(100000, 60)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("idle")
	now = now.Add(50 * time.Second)
	rl.Allow("active")
	now = now.Add(10 * time.Second)
	rl.Allow("new")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.callers, "idle")
	assert.Contains(t, rl.callers, "active")
	assert.Contains(t, rl.callers, "new")
}
