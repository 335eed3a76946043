package postgres

import (
	"context"
	"fmt"

	"video-rag-api/internal/domain/entity"
)

// AutoMigrate 创建或更新 video_chunks 与 ingest_jobs 表
func (c *Client) AutoMigrate(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(&indexEntryModel{}, &entity.IngestJob{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
