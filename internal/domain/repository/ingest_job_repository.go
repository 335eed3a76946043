package repository

import (
	"context"

	"video-rag-api/internal/domain/entity"
)

// IngestJobFilter 任务过滤条件
type IngestJobFilter struct {
	VideoID string
	Status  entity.JobStatus
}

// IngestJobRepository 入库任务仓储接口
type IngestJobRepository interface {
	// Create 创建任务
	Create(ctx context.Context, job *entity.IngestJob) error

	// GetByID 根据 ID 获取任务，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.IngestJob, error)

	// Update 更新任务
	Update(ctx context.Context, job *entity.IngestJob) error

	// UpdateProgress 更新任务进度（0-100）
	UpdateProgress(ctx context.Context, id string, progress int) error

	// List 按条件分页列出任务
	List(ctx context.Context, filter *IngestJobFilter, pagination Pagination) (*PagedResult[*entity.IngestJob], error)
}
