package cassandra

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/domain/repository"
	"video-rag-api/pkg/timecode"
)

const pageSize = 500

// IndexStore 以 video_id 为分区键、偏移量为聚簇键保存索引记录
type IndexStore struct {
	client *Client
	table  string
}

var _ repository.IndexStore = (*IndexStore)(nil)

// NewIndexStore 创建 Cassandra 索引存储
func NewIndexStore(client *Client) *IndexStore {
	return &IndexStore{client: client, table: client.config.Table}
}

// Name 存储名称
func (s *IndexStore) Name() string { return "cassandra" }

// EnsureSchema 表不存在时创建
func (s *IndexStore) EnsureSchema(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "cassandra.EnsureSchema")
	defer span.End()

	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			video_id text,
			offset_ms bigint,
			ts text,
			chunk_text text,
			embedding list<double>,
			PRIMARY KEY ((video_id), offset_ms)
		) WITH CLUSTERING ORDER BY (offset_ms ASC)`, s.table)

	if err := s.client.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// LoadEntries 分页扫描整张表
func (s *IndexStore) LoadEntries(ctx context.Context) ([]*entity.IndexEntry, error) {
	ctx, span := tracer.Start(ctx, "cassandra.LoadEntries")
	defer span.End()

	query := fmt.Sprintf(`SELECT video_id, ts, chunk_text, embedding FROM %s`, s.table)
	iter := s.client.session.Query(query).WithContext(ctx).PageSize(pageSize).Iter()

	var entries []*entity.IndexEntry
	var (
		videoID, ts, text string
		embedding         []float64
	)
	for iter.Scan(&videoID, &ts, &text, &embedding) {
		entries = append(entries, &entity.IndexEntry{
			VideoID:   videoID,
			Timestamp: ts,
			Text:      text,
			Embedding: embedding,
		})
		embedding = nil
	}

	if err := iter.Close(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error loading index entries: %w", err)
	}
	return entries, nil
}

// ReplaceVideo 先删除整个分区，再逐条写入。
// 写入使用比删除更大的时间戳，保证同一毫秒内的删除不会覆盖新记录。
func (s *IndexStore) ReplaceVideo(ctx context.Context, videoID string, entries []*entity.IndexEntry) error {
	ctx, span := tracer.Start(ctx, "cassandra.ReplaceVideo")
	defer span.End()

	deletedAt := time.Now().UnixMicro()

	del := fmt.Sprintf(`DELETE FROM %s USING TIMESTAMP ? WHERE video_id = ?`, s.table)
	if err := s.client.session.Query(del, deletedAt, videoID).WithContext(ctx).Exec(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete entries of %s: %w", videoID, err)
	}

	ins := fmt.Sprintf(`INSERT INTO %s (video_id, offset_ms, ts, chunk_text, embedding) VALUES (?, ?, ?, ?, ?) USING TIMESTAMP ?`, s.table)
	for _, e := range entries {
		offset, err := timecode.Parse(e.Timestamp)
		if err != nil {
			return fmt.Errorf("entry %s@%s: %w", e.VideoID, e.Timestamp, err)
		}
		q := s.client.session.Query(ins, videoID, offset.Milliseconds(), e.Timestamp, e.Text, e.Embedding, deletedAt+1).
			WithContext(ctx).
			Consistency(gocql.Quorum)
		if err := q.Exec(); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to insert entry %s@%s: %w", videoID, e.Timestamp, err)
		}
	}
	return nil
}
