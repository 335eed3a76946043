package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:/v1/find_best_match:10.0.0.1", BuildRateLimitKey("10.0.0.1", "/v1/find_best_match"))
}

func TestRateLimiter_NonPositiveLimitRejects(t *testing.T) {
	ok, err := NewRateLimiter(unreachableClient()).Allow(context.Background(), "k", 0, time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRateLimiter_SurfacesRedisError(t *testing.T) {
	_, err := NewRateLimiter(unreachableClient()).Allow(context.Background(), "k", 5, time.Second)
	assert.Error(t, err)
}
