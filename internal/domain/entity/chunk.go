package entity

import (
	"time"
)

// Chunk 按时间窗口合并后的转写片段
type Chunk struct {
	VideoID   string        `json:"video_id"`
	Start     time.Duration `json:"start"`
	End       time.Duration `json:"end"`
	Text      string        `json:"text"`
	Embedding []float64     `json:"embedding,omitempty"`
}

// IndexEntry 索引记录，Timestamp 为规范化的 "HH:MM:SS" 起始时间
type IndexEntry struct {
	VideoID   string    `json:"video_id"`
	Timestamp string    `json:"timestamp"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
}

// MatchCandidate 检索候选
type MatchCandidate struct {
	VideoID   string  `json:"video_id"`
	Timestamp string  `json:"timestamp"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
}

// Answer 最终查询结果
type Answer struct {
	VideoID          string `json:"video_id"`
	Timestamp        string `json:"timestamp"`
	URLWithTimestamp string `json:"url_with_timestamp"`
	// AnswerText 裁决模型给出的说明，仅供参考
	AnswerText string `json:"answer_text,omitempty"`
	// Fallback 为 true 表示未采用模型裁决而是取了排名第一的候选
	Fallback bool `json:"-"`
}
