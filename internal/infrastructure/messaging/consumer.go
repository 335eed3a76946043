package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"video-rag-api/pkg/logger"
	"video-rag-api/pkg/metrics"
)

const (
	readBatchSize    = 10
	pendingBatchSize = 20
	readErrorPause   = time.Second
	minReclaimIdle   = 5 * time.Minute
)

// MessageHandler 消息处理函数，返回错误时消息留在 pending 中按退避重试
type MessageHandler func(ctx context.Context, msg *Message) error

// ConsumerConfig 消费者配置，零值字段取默认
type ConsumerConfig struct {
	Stream        Stream
	Group         ConsumerGroup
	ConsumerName  string
	BlockTimeout  time.Duration // 默认 5s
	ClaimInterval time.Duration // 接管其他消费者遗留消息的周期，默认 30s
	RetryLimit    int           // 默认 3
	Backoff       BackoffConfig
}

// Consumer Redis Stream 消费者组成员。
// 失败的消息不立即确认，按退避时间从 pending 中重新认领；投递次数达到 RetryLimit 后转入死信流。
type Consumer struct {
	client      *redis.Client
	cfg         ConsumerConfig
	reclaimIdle time.Duration

	mu       sync.RWMutex
	handlers map[string]MessageHandler
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewConsumer 创建消费者
func NewConsumer(client *redis.Client, cfg ConsumerConfig) *Consumer {
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = 30 * time.Second
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = 3
	}
	if cfg.Backoff.Initial <= 0 {
		cfg.Backoff = DefaultBackoffConfig()
	}
	return &Consumer{
		client:      client,
		cfg:         cfg,
		reclaimIdle: max(minReclaimIdle, 2*cfg.Backoff.Max),
		handlers:    map[string]MessageHandler{},
	}
}

// RegisterHandler 注册消息类型的处理器
func (c *Consumer) RegisterHandler(msgType string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = handler
}

func (c *Consumer) handler(msgType string) (MessageHandler, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.handlers[msgType]
	return h, ok
}

// Start 确保消费者组存在并在后台开始消费，直到 ctx 取消或调用 Stop
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return errors.New("consumer already running")
	}

	err := c.client.XGroupCreateMkStream(ctx, string(c.cfg.Stream), string(c.cfg.Group), "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", c.cfg.Group, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.loop(runCtx)
	}()
	return nil
}

// Stop 停止消费并等待正在处理的消息完成
func (c *Consumer) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		c.wg.Wait()
	}
}

func (c *Consumer) loop(ctx context.Context) {
	logger.Info(ctx, "consumer started",
		"stream", c.cfg.Stream,
		"group", c.cfg.Group,
		"consumer", c.cfg.ConsumerName,
	)
	defer logger.Info(context.Background(), "consumer stopped", "stream", c.cfg.Stream)

	nextHousekeeping := time.Now()
	for ctx.Err() == nil {
		c.retryDuePending(ctx)
		if now := time.Now(); !now.Before(nextHousekeeping) {
			c.reclaimStale(ctx)
			c.reportLag(ctx)
			nextHousekeeping = now.Add(c.cfg.ClaimInterval)
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    string(c.cfg.Group),
			Consumer: c.cfg.ConsumerName,
			Streams:  []string{string(c.cfg.Stream), ">"},
			Count:    readBatchSize,
			Block:    c.cfg.BlockTimeout,
		}).Result()
		switch {
		case err == nil:
		case errors.Is(err, redis.Nil), ctx.Err() != nil:
			continue
		default:
			logger.Error(ctx, "failed to read from stream", err)
			sleepCtx(ctx, readErrorPause)
			continue
		}

		for _, s := range streams {
			for _, xmsg := range s.Messages {
				c.process(ctx, xmsg)
			}
		}
	}
}

// process 处理单条消息并根据结果确认或留待重试
func (c *Consumer) process(ctx context.Context, xmsg redis.XMessage) {
	stream := string(c.cfg.Stream)
	ctx, span := tracer.Start(ctx, "consumer.process", trace.WithAttributes(
		attribute.String("messaging.source", stream),
		attribute.String("messaging.entry_id", xmsg.ID),
	))
	defer span.End()

	msg, err := decodeMessage(xmsg)
	if err != nil {
		// 信封无法解析，重试也不会成功
		logger.Error(ctx, "undecodable stream entry", err, "entry_id", xmsg.ID)
		c.deadLetter(ctx, xmsg, err)
		c.ack(ctx, xmsg.ID)
		return
	}

	ctx = messageContext(ctx, msg)
	span.SetAttributes(
		attribute.String("messaging.message_id", msg.ID),
		attribute.String("messaging.message_type", msg.Type),
	)

	h, ok := c.handler(msg.Type)
	if !ok {
		logger.Warn(ctx, "no handler for message type", "type", msg.Type)
		metrics.RedisStreamProcessed.WithLabelValues(stream, "unhandled").Inc()
		c.ack(ctx, xmsg.ID)
		return
	}

	if err := h(ctx, msg); err != nil {
		span.RecordError(err)
		logger.Error(ctx, "message handler failed", err, "message_id", msg.ID)
		metrics.RedisStreamProcessed.WithLabelValues(stream, "failed").Inc()
		c.onFailure(ctx, xmsg, err)
		return
	}

	metrics.RedisStreamProcessed.WithLabelValues(stream, "success").Inc()
	c.ack(ctx, xmsg.ID)
}

func decodeMessage(xmsg redis.XMessage) (*Message, error) {
	raw, ok := xmsg.Values["data"].(string)
	if !ok {
		return nil, errors.New("missing data field")
	}
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, fmt.Errorf("decode message envelope: %w", err)
	}
	return &msg, nil
}

// messageContext 按消息元数据恢复日志上下文
func messageContext(ctx context.Context, msg *Message) context.Context {
	for meta, key := range map[string]logger.ContextKey{
		MetaJobID:     logger.JobIDKey,
		MetaVideoID:   logger.VideoIDKey,
		MetaRequestID: logger.RequestIDKey,
		MetaTraceID:   logger.TraceIDKey,
	} {
		if v := msg.GetMetadata(meta); v != "" {
			ctx = logger.WithContext(ctx, key, v)
		}
	}
	return ctx
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, string(c.cfg.Stream), string(c.cfg.Group), id).Err(); err != nil {
		logger.Error(ctx, "failed to ack message", err, "entry_id", id)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
