// Package messaging 提供基于 Redis Stream 的入库任务队列
package messaging

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"video-rag-api/internal/domain/entity"
)

// 消息元数据键，worker 侧据此恢复日志上下文
const (
	MetaJobID     = "job_id"
	MetaVideoID   = "video_id"
	MetaRequestID = "request_id"
	MetaTraceID   = "trace_id"
)

// Message Stream 中 data 字段承载的消息信封
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage 序列化 payload 并封装为消息
func NewMessage(id, msgType string, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return &Message{ID: id, Type: msgType, Payload: raw, CreatedAt: time.Now().UTC()}, nil
}

// SetMetadata 写入元数据，空值忽略
func (m *Message) SetMetadata(key, value string) {
	if value == "" {
		return
	}
	if m.Metadata == nil {
		m.Metadata = map[string]string{}
	}
	m.Metadata[key] = value
}

// GetMetadata 读取元数据
func (m *Message) GetMetadata(key string) string {
	return m.Metadata[key]
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// Stream 流名称
type Stream string

// StreamVideoIngest 视频入库任务流
const StreamVideoIngest Stream = "stream:video:ingest"

// DLQStream 对应的死信流
func (s Stream) DLQStream() string {
	return "dlq:" + string(s)
}

// ConsumerGroup 消费者组名称
type ConsumerGroup string

// ConsumerGroupIngestWorker 入库 worker 消费者组
const ConsumerGroupIngestWorker ConsumerGroup = "cg-ingest-worker"

// MessageTypeVideoIngest 视频入库任务
const MessageTypeVideoIngest = "video_ingest"

// IngestJobMessage 入库任务消息，携带完整的转写片段
type IngestJobMessage struct {
	JobID string       `json:"job_id"`
	Video entity.Video `json:"video"`
}

// BackoffConfig 失败消息的指数退避
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultBackoffConfig 1s 起步、翻倍、封顶 1 分钟
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{Initial: time.Second, Max: time.Minute, Multiplier: 2}
}

// CalculateBackoff 第 retryCount 次重试前的等待：Initial * Multiplier^retryCount，不超过 Max
func (c BackoffConfig) CalculateBackoff(retryCount int) time.Duration {
	if retryCount <= 0 || c.Multiplier <= 1 {
		return min(c.Initial, c.Max)
	}
	d := float64(c.Initial) * math.Pow(c.Multiplier, float64(retryCount))
	if d >= float64(c.Max) {
		return c.Max
	}
	return time.Duration(d)
}
