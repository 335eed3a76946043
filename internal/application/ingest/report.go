package ingest

import "video-rag-api/internal/domain/entity"

// Report 单个视频的入库结果
type Report struct {
	VideoID string                `json:"video_id"`
	Chunks  int                   `json:"chunks"`
	Indexed int                   `json:"indexed"`
	Empty   int                   `json:"empty"`
	Skipped []entity.SkippedChunk `json:"skipped,omitempty"`
	Error   string                `json:"error,omitempty"`

	err error
}

// SetError 记录视频级错误
func (r *Report) SetError(err error) {
	r.err = err
	if err != nil {
		r.Error = err.Error()
	}
}

// Err 视频级错误
func (r *Report) Err() error { return r.err }

// Summary 汇总多个报告
type Summary struct {
	Videos  int `json:"videos"`
	Failed  int `json:"failed"`
	Chunks  int `json:"chunks"`
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// Summarize 汇总
func Summarize(reports []*Report) Summary {
	var s Summary
	for _, r := range reports {
		if r == nil {
			continue
		}
		s.Videos++
		if r.err != nil {
			s.Failed++
		}
		s.Chunks += r.Chunks
		s.Indexed += r.Indexed
		s.Skipped += len(r.Skipped)
	}
	return s
}
