package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"video-rag-api/pkg/logger"
	"video-rag-api/pkg/metrics"
)

// errRetriesExhausted 认领时发现投递次数已达上限
var errRetriesExhausted = errors.New("message exceeded retry limit")

// dlqEntry 死信流条目
type dlqEntry struct {
	OriginalStream string          `json:"original_stream"`
	EntryID        string          `json:"entry_id"`
	Data           json.RawMessage `json:"data,omitempty"`
	Raw            string          `json:"raw,omitempty"`
	Error          string          `json:"error"`
	FailedAt       time.Time       `json:"failed_at"`
}

// onFailure 投递次数达到上限时转入死信流，否则留在 pending 中等待退避后重试
func (c *Consumer) onFailure(ctx context.Context, xmsg redis.XMessage, err error) {
	deliveries := c.deliveryCount(ctx, xmsg.ID)
	if deliveries < c.cfg.RetryLimit {
		logger.Info(ctx, "message left pending for retry", "entry_id", xmsg.ID, "deliveries", deliveries)
		return
	}
	logger.Warn(ctx, "retry limit reached, moving message to DLQ", "entry_id", xmsg.ID, "deliveries", deliveries)
	c.deadLetter(ctx, xmsg, err)
	c.ack(ctx, xmsg.ID)
}

// deliveryCount XPENDING 记录的投递次数
func (c *Consumer) deliveryCount(ctx context.Context, id string) int {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: string(c.cfg.Stream),
		Group:  string(c.cfg.Group),
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil || len(pending) == 0 {
		return 0
	}
	return int(pending[0].RetryCount)
}

func newDLQEntry(stream Stream, xmsg redis.XMessage, cause error) dlqEntry {
	e := dlqEntry{
		OriginalStream: string(stream),
		EntryID:        xmsg.ID,
		Error:          cause.Error(),
		FailedAt:       time.Now().UTC(),
	}
	raw, _ := xmsg.Values["data"].(string)
	if json.Valid([]byte(raw)) {
		e.Data = json.RawMessage(raw)
	} else {
		e.Raw = raw
	}
	return e
}

func (c *Consumer) deadLetter(ctx context.Context, xmsg redis.XMessage, cause error) {
	data, _ := json.Marshal(newDLQEntry(c.cfg.Stream, xmsg, cause))
	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.Stream.DLQStream(),
		Values: []any{"data", data},
	}).Err(); err != nil {
		logger.Error(ctx, "failed to write DLQ", err, "entry_id", xmsg.ID)
		return
	}
	metrics.RedisStreamProcessed.WithLabelValues(string(c.cfg.Stream), "dlq").Inc()
}

// claim 认领空闲超过 minIdle 的消息；exhausted 为 true 时直接转入死信流
func (c *Consumer) claim(ctx context.Context, id string, minIdle time.Duration, exhausted bool) {
	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   string(c.cfg.Stream),
		Group:    string(c.cfg.Group),
		Consumer: c.cfg.ConsumerName,
		MinIdle:  minIdle,
		Messages: []string{id},
	}).Result()
	if err != nil {
		logger.Error(ctx, "failed to claim pending message", err, "entry_id", id)
		return
	}

	for _, xmsg := range claimed {
		if exhausted {
			c.deadLetter(ctx, xmsg, errRetriesExhausted)
			c.ack(ctx, xmsg.ID)
			continue
		}
		c.process(ctx, xmsg)
	}
}

func (c *Consumer) pending(ctx context.Context, consumer string) []redis.XPendingExt {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   string(c.cfg.Stream),
		Group:    string(c.cfg.Group),
		Start:    "-",
		End:      "+",
		Count:    pendingBatchSize,
		Consumer: consumer,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) && ctx.Err() == nil {
		logger.Error(ctx, "failed to query pending messages", err)
	}
	return pending
}

// retryDuePending 重新处理本消费者名下已过退避时间的消息
func (c *Consumer) retryDuePending(ctx context.Context) {
	for _, p := range c.pending(ctx, c.cfg.ConsumerName) {
		deliveries := int(p.RetryCount)
		if deliveries >= c.cfg.RetryLimit {
			c.claim(ctx, p.ID, 0, true)
			continue
		}
		if wait := c.cfg.Backoff.CalculateBackoff(deliveries); p.Idle >= wait {
			c.claim(ctx, p.ID, wait, false)
		}
	}
}

// reclaimStale 接管其他消费者（通常已下线）长时间未确认的消息
func (c *Consumer) reclaimStale(ctx context.Context) {
	for _, p := range c.pending(ctx, "") {
		if p.Consumer == c.cfg.ConsumerName || p.Idle < c.reclaimIdle {
			continue
		}
		c.claim(ctx, p.ID, c.reclaimIdle, int(p.RetryCount) >= c.cfg.RetryLimit)
	}
}

func (c *Consumer) reportLag(ctx context.Context) {
	groups, err := c.client.XInfoGroups(ctx, string(c.cfg.Stream)).Result()
	if err != nil {
		return
	}
	for _, g := range groups {
		if g.Name == string(c.cfg.Group) {
			metrics.RedisStreamLag.WithLabelValues(string(c.cfg.Stream), g.Name).Set(float64(g.Lag))
		}
	}
}

// MonitorDLQ 每分钟采样死信流长度，超过阈值时告警，直到 ctx 取消
func (c *Consumer) MonitorDLQ(ctx context.Context, alertThreshold int64) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	dlq := c.cfg.Stream.DLQStream()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := c.client.XLen(ctx, dlq).Result()
		if err != nil {
			continue
		}
		metrics.RedisStreamDLQLength.WithLabelValues(string(c.cfg.Stream)).Set(float64(n))
		if n > alertThreshold {
			logger.Warn(ctx, "DLQ backlog above threshold", "stream", dlq, "count", n, "threshold", alertThreshold)
		}
	}
}
