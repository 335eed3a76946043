package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/domain/repository"
	"video-rag-api/pkg/logger"
	"video-rag-api/pkg/metrics"
)

// ErrJobNotFound 任务不存在
var ErrJobNotFound = errors.New("ingest job not found")

// JobPublisher 将入库任务投递给异步 worker
type JobPublisher interface {
	PublishIngest(ctx context.Context, jobID string, video entity.Video) error
}

// JobService 入库任务的提交与执行
type JobService struct {
	pipeline  *Pipeline
	jobs      repository.IngestJobRepository
	publisher JobPublisher
}

// NewJobService 创建任务服务
func NewJobService(pipeline *Pipeline, jobs repository.IngestJobRepository, publisher JobPublisher) *JobService {
	return &JobService{pipeline: pipeline, jobs: jobs, publisher: publisher}
}

// Submit 创建 pending 任务并投递到队列
func (s *JobService) Submit(ctx context.Context, video entity.Video) (*entity.IngestJob, error) {
	if strings.TrimSpace(video.ID) == "" {
		return nil, fmt.Errorf("video_id is required")
	}
	if len(video.Segments) == 0 {
		return nil, fmt.Errorf("video %s has no segments", video.ID)
	}

	job := entity.NewIngestJob(uuid.NewString(), video.ID, video.Title)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	if err := s.publisher.PublishIngest(ctx, job.ID, video); err != nil {
		job.Fail("enqueue failed: " + err.Error())
		if uerr := s.jobs.Update(ctx, job); uerr != nil {
			logger.Error(ctx, "failed to mark job as failed", uerr, "job_id", job.ID)
		}
		return nil, fmt.Errorf("enqueue ingest job: %w", err)
	}

	logger.Info(ctx, "ingest job submitted", "job_id", job.ID, "video_id", video.ID, "segments", len(video.Segments))
	return job, nil
}

// Get 查询任务
func (s *JobService) Get(ctx context.Context, id string) (*entity.IngestJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// List 分页列出任务
func (s *JobService) List(ctx context.Context, filter *repository.IngestJobFilter, p repository.Pagination) (*repository.PagedResult[*entity.IngestJob], error) {
	return s.jobs.List(ctx, filter, p)
}

// Run 执行一个已提交的任务，由 worker 调用。
// 返回错误表示本次执行失败，调用方可按重试策略重新投递。
func (s *JobService) Run(ctx context.Context, jobID string, video entity.Video) error {
	ctx = logger.WithContext(ctx, logger.JobIDKey, jobID)

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		// 任务行缺失时仍执行入库，只是不记录状态
		logger.Warn(ctx, "ingest job row missing, running untracked")
		job = entity.NewIngestJob(jobID, video.ID, video.Title)
		if err := s.jobs.Create(ctx, job); err != nil {
			return err
		}
	}
	if job.Status == entity.JobStatusCompleted {
		logger.Info(ctx, "ingest job already completed, skipping")
		return nil
	}
	if job.Status == entity.JobStatusFailed {
		job.Retry()
	}

	job.Start()
	if err := s.jobs.Update(ctx, job); err != nil {
		return err
	}

	lastPct := 0
	report, runErr := s.pipeline.IngestVideo(ctx, video, func(done, total int) {
		if total == 0 {
			return
		}
		pct := done * 100 / total
		// 每 10% 落库一次，最后一步由 Complete 写 100
		if pct-lastPct < 10 || pct >= 100 {
			return
		}
		lastPct = pct
		if err := s.jobs.UpdateProgress(ctx, jobID, pct); err != nil {
			logger.Warn(ctx, "failed to update job progress", "error", err.Error())
		}
	})

	if runErr != nil {
		metrics.IngestVideosTotal.WithLabelValues("failed").Inc()
		job.Fail(runErr.Error())
		if err := s.jobs.Update(ctx, job); err != nil {
			logger.Error(ctx, "failed to persist job failure", err)
		}
		return runErr
	}

	metrics.IngestVideosTotal.WithLabelValues("success").Inc()
	job.Complete(report.Chunks, report.Indexed, report.Skipped)
	return s.jobs.Update(ctx, job)
}
