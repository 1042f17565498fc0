package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := rl.Check(ctx, "team-a")
		assert.True(t, result.Allowed, "attempt %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rl.Check(ctx, "team-a")
	}
	result := rl.Check(ctx, "team-a")
	assert.False(t, result.Allowed)
	assert.Equal(t, "rate_limiter", result.Guard)
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	assert.True(t, rl.Check(ctx, "team-a").Allowed)
	assert.False(t, rl.Check(ctx, "team-a").Allowed)
	assert.True(t, rl.Check(ctx, "team-b").Allowed)
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	ctx := context.Background()

	assert.True(t, rl.Check(ctx, "team-a").Allowed)
	assert.False(t, rl.Check(ctx, "team-a").Allowed)

	time.Sleep(15 * time.Millisecond)
	assert.True(t, rl.Check(ctx, "team-a").Allowed)
}
