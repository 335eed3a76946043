// Package milvus 提供基于 Milvus 的索引条目存储
package milvus

import (
	"cmp"
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"go.opentelemetry.io/otel"

	"video-rag-api/internal/config"
)

var tracer = otel.Tracer("milvus")

// Client Milvus 客户端，绑定一个集合
type Client struct {
	milvus     client.Client
	collection string
	index      indexParams
}

// indexParams 建集合时使用的 HNSW 参数
type indexParams struct {
	m              int
	efConstruction int
}

// NewClient 连接 Milvus，集合名为空时使用 DefaultCollection
func NewClient(ctx context.Context, cfg *config.MilvusConfig) (*Client, error) {
	ccfg := client.Config{Address: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))}
	if cfg.User != "" {
		ccfg.Username = cfg.User
		ccfg.Password = cfg.Password
	}

	mc, err := client.NewClient(ctx, ccfg)
	if err != nil {
		return nil, fmt.Errorf("connect milvus %s: %w", ccfg.Address, err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	return &Client{
		milvus:     mc,
		collection: collection,
		index:      indexParams{m: cmp.Or(cfg.HNSWM, 16), efConstruction: cmp.Or(cfg.HNSWEfConstruction, 200)},
	}, nil
}

// Collection 绑定的集合名
func (c *Client) Collection() string { return c.collection }

// Close 关闭连接
func (c *Client) Close() error {
	return c.milvus.Close()
}

// HealthCheck 要求服务可达且集合已存在（由 bootstrap 创建）
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.HealthCheck")
	defer span.End()

	has, err := c.milvus.HasCollection(ctx, c.collection)
	if err == nil && !has {
		err = fmt.Errorf("collection %q not found", c.collection)
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("milvus health check: %w", err)
	}
	return nil
}
