package repository

import (
	"context"

	"video-rag-api/internal/domain/entity"
)

// EntrySource 索引记录的批量读取端，快照加载时调用
type EntrySource interface {
	// LoadEntries 读取全部索引记录
	LoadEntries(ctx context.Context) ([]*entity.IndexEntry, error)
}

// EntryWriter 索引记录的写入端
type EntryWriter interface {
	// ReplaceVideo 删除该视频已有记录后写入新记录
	ReplaceVideo(ctx context.Context, videoID string, entries []*entity.IndexEntry) error
}

// IndexStore 持久化索引存储
type IndexStore interface {
	EntrySource
	EntryWriter

	// Name 存储名称，用于日志与指标
	Name() string
}
