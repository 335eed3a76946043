package entity

import (
	"time"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// SkippedChunk 入库时因 embedding 失败被跳过的切片
type SkippedChunk struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}

// IngestJob 视频入库任务
type IngestJob struct {
	ID            string         `json:"id" gorm:"type:uuid;primaryKey"`
	VideoID       string         `json:"video_id" gorm:"type:varchar(64);index;not null"`
	Title         string         `json:"title,omitempty" gorm:"type:varchar(512)"`
	Status        JobStatus      `json:"status" gorm:"type:varchar(32);index;default:'pending'"`
	Progress      int            `json:"progress" gorm:"default:0"`
	Chunks        int            `json:"chunks" gorm:"default:0"`
	Indexed       int            `json:"indexed" gorm:"default:0"`
	SkippedChunks []SkippedChunk `json:"skipped_chunks,omitempty" gorm:"type:jsonb;serializer:json"`
	ErrorMessage  string         `json:"error_message,omitempty" gorm:"type:text"`
	RetryCount    int            `json:"retry_count" gorm:"default:0"`
	DurationMs    int            `json:"duration_ms,omitempty"`
	CreatedAt     time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt     *time.Time     `json:"started_at,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

// TableName 指定表名
func (IngestJob) TableName() string {
	return "ingest_jobs"
}

// NewIngestJob 创建新任务
func NewIngestJob(id, videoID, title string) *IngestJob {
	return &IngestJob{
		ID:        id,
		VideoID:   videoID,
		Title:     title,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}
}

// Start 开始执行任务
func (j *IngestJob) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.ErrorMessage = ""
}

// Complete 完成任务并记录入库结果
func (j *IngestJob) Complete(chunks, indexed int, skipped []SkippedChunk) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.Chunks = chunks
	j.Indexed = indexed
	j.SkippedChunks = skipped
	j.Progress = 100
	j.CompletedAt = &now
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}
}

// Fail 任务失败
func (j *IngestJob) Fail(errMsg string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.CompletedAt = &now
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}
}

// Retry 重新置为待处理
func (j *IngestJob) Retry() {
	j.RetryCount++
	j.Status = JobStatusPending
	j.StartedAt = nil
	j.CompletedAt = nil
	j.ErrorMessage = ""
}

// UpdateProgress 更新任务进度
func (j *IngestJob) UpdateProgress(progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
}

// IsTerminal 是否已结束
func (j *IngestJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
