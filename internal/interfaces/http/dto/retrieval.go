// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"video-rag-api/internal/application/retrieval"
	"video-rag-api/internal/domain/entity"
)

// FindBestMatchRequest 查询请求
type FindBestMatchRequest struct {
	Text string `json:"text"`
}

// FindBestMatchResponse 查询结果
type FindBestMatchResponse struct {
	VideoID          string `json:"video_id"`
	Timestamp        string `json:"timestamp"`
	URLWithTimestamp string `json:"url_with_timestamp"`
}

// ToFindBestMatchResponse 将领域结果转换为响应
func ToFindBestMatchResponse(a *entity.Answer) *FindBestMatchResponse {
	return &FindBestMatchResponse{
		VideoID:          a.VideoID,
		Timestamp:        a.Timestamp,
		URLWithTimestamp: a.URLWithTimestamp,
	}
}

// IndexStatsResponse 索引统计
type IndexStatsResponse struct {
	Loaded    bool       `json:"loaded"`
	Store     string     `json:"store"`
	Entries   int        `json:"entries"`
	Dimension int        `json:"dimension"`
	Version   uint64     `json:"version"`
	LoadedAt  *time.Time `json:"loaded_at,omitempty"`
}

// ToIndexStatsResponse 转换索引统计
func ToIndexStatsResponse(st retrieval.IndexStats) *IndexStatsResponse {
	resp := &IndexStatsResponse{
		Loaded:    st.Loaded,
		Store:     st.Store,
		Entries:   st.Entries,
		Dimension: st.Dimension,
		Version:   st.Version,
	}
	if st.Loaded {
		at := st.LoadedAt
		resp.LoadedAt = &at
	}
	return resp
}
