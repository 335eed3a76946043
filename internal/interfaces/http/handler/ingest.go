package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"video-rag-api/internal/application/ingest"
	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/domain/repository"
	"video-rag-api/internal/interfaces/http/dto"
	apperrors "video-rag-api/pkg/errors"
	"video-rag-api/pkg/logger"
)

// IngestJobs 入库任务能力，由 ingest.JobService 实现
type IngestJobs interface {
	Submit(ctx context.Context, video entity.Video) (*entity.IngestJob, error)
	Get(ctx context.Context, id string) (*entity.IngestJob, error)
	List(ctx context.Context, filter *repository.IngestJobFilter, p repository.Pagination) (*repository.PagedResult[*entity.IngestJob], error)
}

// IngestHandler 入库任务处理器
type IngestHandler struct {
	jobs IngestJobs
}

// NewIngestHandler 创建入库任务处理器
func NewIngestHandler(jobs IngestJobs) *IngestHandler {
	return &IngestHandler{jobs: jobs}
}

// Submit 提交入库任务
// @Summary 提交视频转写入库
// @Tags Ingest
// @Accept json
// @Produce json
// @Param body body dto.IngestRequest true "转写内容"
// @Success 202 {object} dto.Response[dto.JobResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/ingest [post]
func (h *IngestHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	video, err := req.ToVideo()
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	ctx = logger.WithContext(ctx, logger.VideoIDKey, video.ID)
	job, err := h.jobs.Submit(ctx, video)
	if err != nil {
		respondError(c, err, "failed to submit ingest job")
		return
	}
	dto.Accepted(c, dto.ToJobResponse(job))
}

// GetJob 获取任务详情
// @Summary 获取入库任务
// @Tags Ingest
// @Produce json
// @Param id path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.JobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/ingest/jobs/{id} [get]
func (h *IngestHandler) GetJob(c *gin.Context) {
	var uri dto.JobURI
	if err := c.ShouldBindUri(&uri); err != nil {
		dto.BadRequest(c, "invalid job id")
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), uri.ID)
	if err != nil {
		if errors.Is(err, ingest.ErrJobNotFound) {
			err = apperrors.ErrJobNotFound
		}
		respondError(c, err, "failed to get ingest job")
		return
	}
	dto.Success(c, dto.ToJobResponse(job))
}

// ListJobs 分页列出任务，支持 video_id 与 status 过滤
// @Summary 列出入库任务
// @Tags Ingest
// @Produce json
// @Param video_id query string false "视频 ID"
// @Param status query string false "任务状态"
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Success 200 {object} dto.Response[dto.JobListResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/ingest/jobs [get]
func (h *IngestHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		dto.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	result, err := h.jobs.List(c.Request.Context(), req.Filter(), req.Pagination())
	if err != nil {
		respondError(c, err, "failed to list ingest jobs")
		return
	}
	dto.SuccessWithPage(c, dto.ToJobListResponse(result.Items), dto.NewPageMeta(result.Page, result.PageSize, result.Total))
}
