// Package entity 定义领域实体
package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"video-rag-api/pkg/timecode"
)

// Segment 转写片段，时间为相对视频开头的偏移量
type Segment struct {
	// VideoID 可选，非空时必须与所属视频一致
	VideoID string        `json:"video_id,omitempty"`
	Start   time.Duration `json:"start"`
	End     time.Duration `json:"end"`
	Text    string        `json:"text"`
}

// Video 单个视频的转写输入
type Video struct {
	ID       string    `json:"video_id"`
	Title    string    `json:"title,omitempty"`
	Segments []Segment `json:"segments"`
}

type segmentJSON struct {
	VideoID string          `json:"video_id"`
	Start   json.RawMessage `json:"start"`
	End     json.RawMessage `json:"end"`
	Text    string          `json:"text"`
}

// UnmarshalJSON 时间字段接受秒数（数字）或 HH:MM:SS / MM:SS 字符串
func (s *Segment) UnmarshalJSON(data []byte) error {
	var raw segmentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := decodeOffset(raw.Start)
	if err != nil {
		return fmt.Errorf("segment start: %w", err)
	}
	end, err := decodeOffset(raw.End)
	if err != nil {
		return fmt.Errorf("segment end: %w", err)
	}
	s.VideoID, s.Start, s.End, s.Text = raw.VideoID, start, end, raw.Text
	return nil
}

// MarshalJSON 时间字段输出为秒数
func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		VideoID string  `json:"video_id,omitempty"`
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Text    string  `json:"text"`
	}{s.VideoID, s.Start.Seconds(), s.End.Seconds(), s.Text})
}

func decodeOffset(raw json.RawMessage) (time.Duration, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("missing value")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return timecode.Parse(s)
	}
	secs, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds %s", raw)
	}
	if secs < 0 || math.IsInf(secs, 0) || math.IsNaN(secs) {
		return 0, fmt.Errorf("invalid seconds %s", raw)
	}
	return time.Duration(math.Round(secs * float64(time.Second))), nil
}
