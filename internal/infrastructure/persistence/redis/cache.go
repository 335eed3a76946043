package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/pkg/logger"
	"video-rag-api/pkg/metrics"
)

var cacheTracer = otel.Tracer("redis.cache")

// Cache Read-Through 缓存。Redis 故障时降级为直接调用 loader。
type Cache struct {
	client *Client
	group  singleflight.Group
}

// NewCache 创建缓存服务
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// GetOrLoadSafe 使用 singleflight 合并同 key 的并发加载
func (c *Cache) GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (any, error)) ([]byte, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoadSafe",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
		return val, nil
	case IsNil(err):
		span.SetAttributes(attribute.Bool("cache.hit", false))
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
	default:
		span.RecordError(err)
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		logger.Warn(ctx, "cache read failed, loading directly", "key", key, "error", err.Error())
	}

	result, err, shared := c.group.Do(key, func() (any, error) {
		data, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}

		if err := c.client.rdb.Set(ctx, key, bytes, ttl).Err(); err != nil {
			// 写缓存失败不影响返回
			logger.Warn(ctx, "cache write failed", "key", key, "error", err.Error())
		}
		return bytes, nil
	})

	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.([]byte), nil
}

// AnswerCache 查询结果缓存
type AnswerCache struct {
	cache *Cache
}

// NewAnswerCache 创建查询结果缓存
func NewAnswerCache(cache *Cache) *AnswerCache {
	return &AnswerCache{cache: cache}
}

// GetOrLoad 命中时反序列化缓存的答案，否则执行 loader 并回填
func (a *AnswerCache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (*entity.Answer, error)) (*entity.Answer, error) {
	raw, err := a.cache.GetOrLoadSafe(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		return nil, err
	}

	var ans entity.Answer
	if err := json.Unmarshal(raw, &ans); err != nil {
		logger.Warn(ctx, "cached answer is corrupt, reloading", "key", key, "error", err.Error())
		return loader(ctx)
	}
	return &ans, nil
}
