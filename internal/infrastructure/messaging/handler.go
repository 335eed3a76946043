package messaging

import (
	"context"
	"fmt"

	"video-rag-api/internal/domain/entity"
)

// IngestRunner 执行入库任务
type IngestRunner interface {
	Run(ctx context.Context, jobID string, video entity.Video) error
}

// NewIngestHandler 将 video_ingest 消息交给 runner；返回错误时消息保留在 pending 中等待重试
func NewIngestHandler(runner IngestRunner) MessageHandler {
	return func(ctx context.Context, msg *Message) error {
		var m IngestJobMessage
		if err := msg.UnmarshalPayload(&m); err != nil {
			return fmt.Errorf("decode ingest payload: %w", err)
		}
		if m.JobID == "" {
			m.JobID = msg.ID
		}
		return runner.Run(ctx, m.JobID, m.Video)
	}
}
