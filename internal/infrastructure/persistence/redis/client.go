// Package redis 提供答案缓存、限流与 Stream 消息所需的 Redis 客户端
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"video-rag-api/internal/config"
)

var tracer = otel.Tracer("redis")

// clientName 在 CLIENT LIST 中标识本服务的连接
const clientName = "video-rag-api"

// Client Redis 客户端
type Client struct {
	rdb *redis.Client
}

// NewClient 创建客户端并 ping 一次，未配置的池参数沿用 go-redis 默认值
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	opts := &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		ClientName:   clientName,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// WrapClient 包装已有的 go-redis 客户端，不做连通性检查
func WrapClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Redis 底层 go-redis 客户端，供 Stream 生产者与消费者使用
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck 健康检查
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "redis.HealthCheck")
	defer span.End()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis health check: %w", err)
	}
	return nil
}

// IsNil 是否为 key 不存在
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
