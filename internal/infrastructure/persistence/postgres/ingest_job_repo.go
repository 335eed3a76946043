package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/domain/repository"
)

// IngestJobRepository 入库任务仓储实现
type IngestJobRepository struct {
	client *Client
}

var _ repository.IngestJobRepository = (*IngestJobRepository)(nil)

// NewIngestJobRepository 创建入库任务仓储
func NewIngestJobRepository(client *Client) *IngestJobRepository {
	return &IngestJobRepository{client: client}
}

// Create 创建任务
func (r *IngestJobRepository) Create(ctx context.Context, job *entity.IngestJob) error {
	ctx, span := tracer.Start(ctx, "postgres.IngestJobRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(job).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create ingest job: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取任务
func (r *IngestJobRepository) GetByID(ctx context.Context, id string) (*entity.IngestJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.IngestJobRepository.GetByID")
	defer span.End()

	var job entity.IngestJob
	if err := getDB(ctx, r.client.db).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get ingest job: %w", err)
	}
	return &job, nil
}

// Update 更新任务
func (r *IngestJobRepository) Update(ctx context.Context, job *entity.IngestJob) error {
	ctx, span := tracer.Start(ctx, "postgres.IngestJobRepository.Update")
	defer span.End()

	if err := getDB(ctx, r.client.db).Save(job).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update ingest job: %w", err)
	}
	return nil
}

// UpdateProgress 更新任务进度
func (r *IngestJobRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	ctx, span := tracer.Start(ctx, "postgres.IngestJobRepository.UpdateProgress")
	defer span.End()

	err := getDB(ctx, r.client.db).Model(&entity.IngestJob{}).Where("id = ?", id).Update("progress", progress).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update ingest job progress: %w", err)
	}
	return nil
}

// List 分页列出任务，按创建时间倒序
func (r *IngestJobRepository) List(ctx context.Context, filter *repository.IngestJobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.IngestJob], error) {
	ctx, span := tracer.Start(ctx, "postgres.IngestJobRepository.List")
	defer span.End()

	query := getDB(ctx, r.client.db).Model(&entity.IngestJob{})
	if filter != nil {
		if filter.VideoID != "" {
			query = query.Where("video_id = ?", filter.VideoID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count ingest jobs: %w", err)
	}

	var jobs []*entity.IngestJob
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&jobs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list ingest jobs: %w", err)
	}

	return repository.NewPagedResult(jobs, total, pagination), nil
}
