package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/domain/repository"
	"video-rag-api/pkg/timecode"
)

const insertBatchSize = 200

// indexEntryModel video_chunks 表
type indexEntryModel struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	VideoID   string          `gorm:"type:varchar(255);not null;index:idx_video_chunks_video_offset,priority:1"`
	Timestamp string          `gorm:"type:varchar(16);not null"`
	OffsetMs  int64           `gorm:"not null;index:idx_video_chunks_video_offset,priority:2"`
	Text      string          `gorm:"type:text;not null"`
	Embedding pq.Float64Array `gorm:"type:double precision[];not null"`
	CreatedAt time.Time
}

func (indexEntryModel) TableName() string {
	return "video_chunks"
}

// IndexEntryRepository 基于 PostgreSQL 的索引记录存储
type IndexEntryRepository struct {
	client *Client
	tx     *TxManager
}

var _ repository.IndexStore = (*IndexEntryRepository)(nil)

// NewIndexEntryRepository 创建索引记录仓储
func NewIndexEntryRepository(client *Client) *IndexEntryRepository {
	return &IndexEntryRepository{client: client, tx: NewTxManager(client)}
}

// Name 存储名称
func (r *IndexEntryRepository) Name() string { return "postgres" }

// LoadEntries 读取全部记录，按 video_id、偏移量排序
func (r *IndexEntryRepository) LoadEntries(ctx context.Context) ([]*entity.IndexEntry, error) {
	ctx, span := tracer.Start(ctx, "postgres.IndexEntryRepository.LoadEntries")
	defer span.End()

	var models []indexEntryModel
	if err := getDB(ctx, r.client.db).Order("video_id ASC, offset_ms ASC").Find(&models).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load index entries: %w", err)
	}

	entries := make([]*entity.IndexEntry, 0, len(models))
	for i := range models {
		entries = append(entries, fromModel(&models[i]))
	}
	return entries, nil
}

// ReplaceVideo 在一个事务内删除该视频旧记录并写入新记录
func (r *IndexEntryRepository) ReplaceVideo(ctx context.Context, videoID string, entries []*entity.IndexEntry) error {
	ctx, span := tracer.Start(ctx, "postgres.IndexEntryRepository.ReplaceVideo")
	defer span.End()

	models := make([]*indexEntryModel, 0, len(entries))
	for _, e := range entries {
		m, err := toModel(e)
		if err != nil {
			return err
		}
		models = append(models, m)
	}

	err := r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		db := getDB(ctx, r.client.db)
		if err := db.Where("video_id = ?", videoID).Delete(&indexEntryModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete entries of %s: %w", videoID, err)
		}
		if len(models) == 0 {
			return nil
		}
		if err := db.CreateInBatches(models, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert entries of %s: %w", videoID, err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func toModel(e *entity.IndexEntry) (*indexEntryModel, error) {
	offset, err := timecode.Parse(e.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("entry %s@%s: %w", e.VideoID, e.Timestamp, err)
	}
	return &indexEntryModel{
		VideoID:   e.VideoID,
		Timestamp: e.Timestamp,
		OffsetMs:  offset.Milliseconds(),
		Text:      e.Text,
		Embedding: pq.Float64Array(e.Embedding),
	}, nil
}

func fromModel(m *indexEntryModel) *entity.IndexEntry {
	return &entity.IndexEntry{
		VideoID:   m.VideoID,
		Timestamp: m.Timestamp,
		Text:      m.Text,
		Embedding: []float64(m.Embedding),
	}
}
