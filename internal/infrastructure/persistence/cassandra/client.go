// Package cassandra 提供基于 Cassandra 的索引记录存储
package cassandra

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/gocql/gocql"
	"go.opentelemetry.io/otel"

	"video-rag-api/internal/config"
)

var tracer = otel.Tracer("cassandra")

var identPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,47}$`)

// Client Cassandra 会话封装
type Client struct {
	session *gocql.Session
	config  *config.CassandraConfig
}

// NewClient 连接 Cassandra 集群
func NewClient(cfg *config.CassandraConfig) (*Client, error) {
	if len(cfg.Hosts) == 0 {
		return nil, fmt.Errorf("cassandra hosts are required")
	}
	if !identPattern.MatchString(cfg.Keyspace) {
		return nil, fmt.Errorf("invalid cassandra keyspace %q", cfg.Keyspace)
	}
	if !identPattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid cassandra table %q", cfg.Table)
	}

	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = orDefault(cfg.Timeout, 10*time.Second)
	cluster.ConnectTimeout = orDefault(cfg.ConnectTimeout, 10*time.Second)

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Cassandra: %w", err)
	}

	return &Client{session: session, config: cfg}, nil
}

// Close 关闭会话
func (c *Client) Close() {
	c.session.Close()
}

// HealthCheck 健康检查
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "cassandra.HealthCheck")
	defer span.End()

	var version string
	if err := c.session.Query(`SELECT release_version FROM system.local`).WithContext(ctx).Scan(&version); err != nil {
		span.RecordError(err)
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
