package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"

	"video-rag-api/internal/domain/entity"
)

// ParseJSON 解析 JSON 转写，支持两种形态：
//   - 完整视频对象 {"video_id": "...", "title": "...", "segments": [...]}
//   - 仅片段数组 [{"start": 0, "end": 5.2, "text": "..."}]
//
// 片段数组形态下 video_id 取 fallbackID。
func ParseJSON(fallbackID string, data []byte) (*entity.Video, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty transcript")
	}

	var video entity.Video
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &video.Segments); err != nil {
			return nil, fmt.Errorf("decode segments: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &video); err != nil {
		return nil, fmt.Errorf("decode video: %w", err)
	}

	if video.ID == "" {
		video.ID = fallbackID
	}
	for i := range video.Segments {
		if video.Segments[i].VideoID == "" {
			video.Segments[i].VideoID = video.ID
		}
	}
	return &video, nil
}
