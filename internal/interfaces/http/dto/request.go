// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/domain/repository"
)

// JobURI 任务路径参数
type JobURI struct {
	ID string `uri:"id" binding:"required,max=64"`
}

// ListJobsRequest 任务列表查询参数，页码与页大小越界时收敛而不报错
type ListJobsRequest struct {
	VideoID  string `form:"video_id" binding:"omitempty,max=64"`
	Status   string `form:"status" binding:"omitempty,oneof=pending running completed failed"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// Filter 转换为仓储过滤条件
func (r *ListJobsRequest) Filter() *repository.IngestJobFilter {
	return &repository.IngestJobFilter{
		VideoID: r.VideoID,
		Status:  entity.JobStatus(r.Status),
	}
}

// Pagination 转换为分页参数
func (r *ListJobsRequest) Pagination() repository.Pagination {
	return repository.NewPagination(r.Page, r.PageSize)
}
