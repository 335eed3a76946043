package milvus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	domain "video-rag-api/internal/domain/entity"
	"video-rag-api/internal/domain/repository"
	"video-rag-api/pkg/metrics"
)

const queryBatchSize = 1000

// IndexStore 以 Milvus 集合保存索引记录。检索在进程内快照完成，这里只做读写。
type IndexStore struct {
	client     *Client
	collection string
	dim        int
}

var _ repository.IndexStore = (*IndexStore)(nil)

// NewIndexStore 创建 Milvus 索引存储，dim 为 embedding 维度
func NewIndexStore(client *Client, dim int) *IndexStore {
	return &IndexStore{client: client, collection: client.Collection(), dim: dim}
}

// Name 存储名称
func (s *IndexStore) Name() string { return "milvus" }

// EnsureCollection 集合不存在时创建集合与 HNSW 索引，并加载到内存
func (s *IndexStore) EnsureCollection(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.EnsureCollection",
		trace.WithAttributes(attribute.String("collection", s.collection)))
	defer span.End()

	has, err := s.client.milvus.HasCollection(ctx, s.collection)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if !has {
		if s.dim <= 0 {
			return fmt.Errorf("embedding dimension must be positive to create collection %s", s.collection)
		}
		schema := VideoChunksSchema(s.collection, s.dim)
		if err := s.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber,
			client.WithConsistencyLevel(entity.ClStrong)); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create collection: %w", err)
		}

		idx, err := entity.NewIndexHNSW(entity.COSINE, s.client.index.m, s.client.index.efConstruction)
		if err != nil {
			return fmt.Errorf("failed to build index params: %w", err)
		}
		if err := s.client.milvus.CreateIndex(ctx, s.collection, fieldEmbedding, idx, false); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := s.client.milvus.LoadCollection(ctx, s.collection, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to load collection: %w", err)
	}
	return nil
}

// LoadEntries 分批迭代读取集合内全部记录
func (s *IndexStore) LoadEntries(ctx context.Context) (entries []*domain.IndexEntry, err error) {
	ctx, span := tracer.Start(ctx, "milvus.LoadEntries",
		trace.WithAttributes(attribute.String("collection", s.collection)))
	defer span.End()

	start := time.Now()
	defer func() { s.observe(start, err) }()

	it, err := s.client.milvus.QueryIterator(ctx, client.NewQueryIteratorOption(s.collection).
		WithExpr(fieldVideoID+` != ""`).
		WithOutputFields(fieldVideoID, fieldTimestamp, fieldText, fieldEmbedding).
		WithBatchSize(queryBatchSize))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to open query iterator: %w", err)
	}

	for {
		rs, nerr := it.Next(ctx)
		if errors.Is(nerr, io.EOF) {
			break
		}
		if nerr != nil {
			span.RecordError(nerr)
			return nil, fmt.Errorf("failed to query entries: %w", nerr)
		}
		batch, cerr := entriesFromColumns(rs)
		if cerr != nil {
			return nil, cerr
		}
		if len(batch) == 0 {
			break
		}
		entries = append(entries, batch...)
	}

	span.SetAttributes(attribute.Int("entry_count", len(entries)))
	return entries, nil
}

// ReplaceVideo 删除该视频旧记录后插入新记录。
// Milvus 不支持跨操作事务，插入失败时该视频在下次重新入库前没有记录。
func (s *IndexStore) ReplaceVideo(ctx context.Context, videoID string, entries []*domain.IndexEntry) (err error) {
	ctx, span := tracer.Start(ctx, "milvus.ReplaceVideo",
		trace.WithAttributes(
			attribute.String("collection", s.collection),
			attribute.String("video_id", videoID),
			attribute.Int("count", len(entries)),
		))
	defer span.End()

	start := time.Now()
	defer func() { s.observe(start, err) }()

	if err := s.client.milvus.Delete(ctx, s.collection, "", videoFilter(videoID)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete entries of %s: %w", videoID, err)
	}
	if len(entries) == 0 {
		return nil
	}

	cols, err := columnsFromEntries(entries, s.dim)
	if err != nil {
		return err
	}
	if _, err := s.client.milvus.Insert(ctx, s.collection, "", cols...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert entries of %s: %w", videoID, err)
	}
	if err := s.client.milvus.Flush(ctx, s.collection, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	return nil
}

func (s *IndexStore) observe(start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.MilvusSearchDuration.WithLabelValues(s.collection).Observe(time.Since(start).Seconds())
	metrics.MilvusSearchTotal.WithLabelValues(s.collection, status).Inc()
}

func videoFilter(videoID string) string {
	return fieldVideoID + " == " + strconv.Quote(videoID)
}

func columnsFromEntries(entries []*domain.IndexEntry, dim int) ([]entity.Column, error) {
	videoIDs := make([]string, len(entries))
	timestamps := make([]string, len(entries))
	texts := make([]string, len(entries))
	vectors := make([][]float32, len(entries))

	for i, e := range entries {
		if len(e.Embedding) != dim {
			return nil, fmt.Errorf("entry %s@%s has dimension %d, collection expects %d",
				e.VideoID, e.Timestamp, len(e.Embedding), dim)
		}
		videoIDs[i] = e.VideoID
		timestamps[i] = e.Timestamp
		texts[i] = e.Text
		vec := make([]float32, len(e.Embedding))
		for j, v := range e.Embedding {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}

	return []entity.Column{
		entity.NewColumnVarChar(fieldVideoID, videoIDs),
		entity.NewColumnVarChar(fieldTimestamp, timestamps),
		entity.NewColumnVarChar(fieldText, texts),
		entity.NewColumnFloatVector(fieldEmbedding, dim, vectors),
	}, nil
}

func entriesFromColumns(rs client.ResultSet) ([]*domain.IndexEntry, error) {
	videoCol, ok1 := rs.GetColumn(fieldVideoID).(*entity.ColumnVarChar)
	tsCol, ok2 := rs.GetColumn(fieldTimestamp).(*entity.ColumnVarChar)
	textCol, ok3 := rs.GetColumn(fieldText).(*entity.ColumnVarChar)
	vecCol, ok4 := rs.GetColumn(fieldEmbedding).(*entity.ColumnFloatVector)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		if rs.Len() == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected milvus result columns")
	}

	n := videoCol.Len()
	entries := make([]*domain.IndexEntry, 0, n)
	vectors := vecCol.Data()
	for i := 0; i < n; i++ {
		emb := make([]float64, len(vectors[i]))
		for j, v := range vectors[i] {
			emb[j] = float64(v)
		}
		entries = append(entries, &domain.IndexEntry{
			VideoID:   videoCol.Data()[i],
			Timestamp: tsCol.Data()[i],
			Text:      textCol.Data()[i],
			Embedding: emb,
		})
	}
	return entries, nil
}
