package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-rag-api/internal/domain/entity"
)

// unreachableClient 指向一个不可连接的地址，用于验证降级路径
func unreachableClient() *Client {
	return WrapClient(goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}))
}

func TestAnswerCache_DegradesWhenRedisDown(t *testing.T) {
	c := NewAnswerCache(NewCache(unreachableClient()))

	var calls atomic.Int32
	ans, err := c.GetOrLoad(context.Background(), "answer:v1:abc", time.Minute, func(ctx context.Context) (*entity.Answer, error) {
		calls.Add(1)
		return &entity.Answer{VideoID: "abc", Timestamp: "00:00:50", URLWithTimestamp: "https://www.youtube.com/watch?v=abc&t=0m50s"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", ans.VideoID)
	assert.Equal(t, "00:00:50", ans.Timestamp)
	assert.EqualValues(t, 1, calls.Load())
}

func TestAnswerCache_PropagatesLoaderError(t *testing.T) {
	c := NewAnswerCache(NewCache(unreachableClient()))
	boom := errors.New("boom")
	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(ctx context.Context) (*entity.Answer, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestBuildRateLimitKey_BareEndpoint(t *testing.T) {
	assert.Equal(t, "ratelimit:find_best_match:10.0.0.1", BuildRateLimitKey("10.0.0.1", "find_best_match"))
}
