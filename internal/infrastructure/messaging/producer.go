package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/pkg/logger"
)

var tracer = otel.Tracer("messaging")

// defaultMaxLen 流的近似长度上限，超出后 Redis 裁剪最旧的条目
const defaultMaxLen int64 = 100_000

// Producer 向 Redis Stream 追加消息
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建生产者，maxLen <= 0 时使用 defaultMaxLen
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	return &Producer{client: client, maxLen: maxLen}
}

// Publish 以 data 字段写入整条消息，返回 Stream 条目 ID
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish", trace.WithAttributes(
		attribute.String("messaging.destination", string(stream)),
		attribute.String("messaging.message_type", msg.Type),
		attribute.String("messaging.message_id", msg.ID),
	))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("marshal message %s: %w", msg.ID, err)
	}

	entryID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: []any{"data", data},
	}).Result()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("xadd %s: %w", stream, err)
	}
	span.SetAttributes(attribute.String("messaging.entry_id", entryID))
	return entryID, nil
}

// PublishIngest 投递入库任务，请求 ID 与 trace ID 随元数据传给 worker
func (p *Producer) PublishIngest(ctx context.Context, jobID string, video entity.Video) error {
	msg, err := NewMessage(jobID, MessageTypeVideoIngest, &IngestJobMessage{JobID: jobID, Video: video})
	if err != nil {
		return err
	}

	msg.SetMetadata(MetaJobID, jobID)
	msg.SetMetadata(MetaVideoID, video.ID)
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		msg.SetMetadata(MetaRequestID, reqID)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		msg.SetMetadata(MetaTraceID, sc.TraceID().String())
	}

	_, err = p.Publish(ctx, StreamVideoIngest, msg)
	return err
}
