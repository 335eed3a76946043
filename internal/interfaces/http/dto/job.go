// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"fmt"
	"strings"
	"time"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/infrastructure/transcript"
)

// IngestRequest 提交入库请求，srt 与 segments 二选一
type IngestRequest struct {
	VideoID  string           `json:"video_id" binding:"required,max=64"`
	Title    string           `json:"title,omitempty" binding:"max=512"`
	SRT      string           `json:"srt,omitempty"`
	Segments []entity.Segment `json:"segments,omitempty"`
}

// ToVideo 解析为待入库视频
func (r *IngestRequest) ToVideo() (entity.Video, error) {
	video := entity.Video{ID: strings.TrimSpace(r.VideoID), Title: r.Title}
	hasSRT := strings.TrimSpace(r.SRT) != ""
	switch {
	case hasSRT && len(r.Segments) > 0:
		return video, fmt.Errorf("provide either srt or segments, not both")
	case hasSRT:
		segs, err := transcript.ParseSRT(video.ID, strings.NewReader(r.SRT))
		if err != nil {
			return video, err
		}
		video.Segments = segs
	default:
		video.Segments = r.Segments
	}
	if len(video.Segments) == 0 {
		return video, fmt.Errorf("no segments provided")
	}
	return video, nil
}

// JobResponse 入库任务响应
type JobResponse struct {
	ID            string                `json:"id"`
	VideoID       string                `json:"video_id"`
	Title         string                `json:"title,omitempty"`
	Status        string                `json:"status"`
	Progress      int                   `json:"progress"`
	Chunks        int                   `json:"chunks"`
	Indexed       int                   `json:"indexed"`
	SkippedChunks []entity.SkippedChunk `json:"skipped_chunks,omitempty"`
	ErrorMsg      string                `json:"error_msg,omitempty"`
	RetryCount    int                   `json:"retry_count"`
	DurationMs    int                   `json:"duration_ms,omitempty"`
	StartedAt     *time.Time            `json:"started_at,omitempty"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// JobListResponse 任务列表响应
type JobListResponse struct {
	Jobs []*JobResponse `json:"jobs"`
}

// ToJobResponse 将领域实体转换为响应 DTO
func ToJobResponse(j *entity.IngestJob) *JobResponse {
	if j == nil {
		return nil
	}
	return &JobResponse{
		ID:            j.ID,
		VideoID:       j.VideoID,
		Title:         j.Title,
		Status:        string(j.Status),
		Progress:      j.Progress,
		Chunks:        j.Chunks,
		Indexed:       j.Indexed,
		SkippedChunks: j.SkippedChunks,
		ErrorMsg:      j.ErrorMessage,
		RetryCount:    j.RetryCount,
		DurationMs:    j.DurationMs,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}

// ToJobListResponse 将领域实体列表转换为响应 DTO
func ToJobListResponse(jobs []*entity.IngestJob) *JobListResponse {
	resp := &JobListResponse{Jobs: make([]*JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, ToJobResponse(j))
	}
	return resp
}
