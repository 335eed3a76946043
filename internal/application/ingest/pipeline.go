// Package ingest 将视频转写切片、embedding 后写入索引存储
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"video-rag-api/internal/application/retrieval"
	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/domain/repository"
	"video-rag-api/internal/domain/service"
	"video-rag-api/pkg/logger"
	"video-rag-api/pkg/metrics"
	"video-rag-api/pkg/timecode"
)

const (
	defaultConcurrency  = 4
	defaultEmbedBackoff = 500 * time.Millisecond
)

// Options 入库参数
type Options struct {
	Chunking        retrieval.ChunkOptions
	Concurrency     int
	EmbedMaxRetries uint64
	EmbedBackoff    time.Duration
}

// ProgressFunc 每处理完一个切片回调一次
type ProgressFunc func(done, total int)

// Pipeline 入库流水线：切片 -> 逐片 embedding（带重试）-> 整体替换该视频的索引记录
type Pipeline struct {
	embedder embedding.Embedder
	writer   repository.EntryWriter
	opts     Options
}

// NewPipeline 创建流水线
func NewPipeline(embedder embedding.Embedder, writer repository.EntryWriter, opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.EmbedBackoff <= 0 {
		opts.EmbedBackoff = defaultEmbedBackoff
	}
	return &Pipeline{embedder: embedder, writer: writer, opts: opts}
}

// IngestVideo 处理单个视频。单个切片 embedding 最终失败时跳过并记录在报告中；
// 切片参数或输入不合法、全部切片 embedding 失败、写入存储失败时返回错误。
func (p *Pipeline) IngestVideo(ctx context.Context, video entity.Video, progress ProgressFunc) (*Report, error) {
	ctx = logger.WithContext(ctx, logger.VideoIDKey, video.ID)
	start := time.Now()
	report := &Report{VideoID: video.ID}

	if strings.TrimSpace(video.ID) == "" {
		return report, &retrieval.InvalidInputError{Index: -1, Reason: "missing video id"}
	}

	chunks, err := retrieval.ChunkVideo(video.ID, video.Segments, p.opts.Chunking)
	if err != nil {
		return report, err
	}
	report.Chunks = len(chunks)

	entries := make([]*entity.IndexEntry, 0, len(chunks))
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		ts := timecode.Canonical(c.Start)
		if strings.TrimSpace(c.Text) == "" {
			report.Empty++
			notify(progress, i+1, len(chunks))
			continue
		}

		vec, err := p.embedWithRetry(ctx, c.Text)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			metrics.EmbeddingSkippedChunks.Inc()
			logger.Warn(ctx, "chunk skipped after embedding retries", "chunk", i, "timestamp", ts, "error", err.Error())
			report.Skipped = append(report.Skipped, entity.SkippedChunk{Index: i, Timestamp: ts, Error: err.Error()})
			notify(progress, i+1, len(chunks))
			continue
		}

		entries = append(entries, &entity.IndexEntry{
			VideoID:   video.ID,
			Timestamp: ts,
			Text:      c.Text,
			Embedding: vec,
		})
		notify(progress, i+1, len(chunks))
	}

	// 全部切片 embedding 失败时不覆盖已有记录，交由任务重试
	if len(entries) == 0 && len(report.Skipped) > 0 {
		return report, &retrieval.EmbeddingError{
			Err: fmt.Errorf("all %d non-empty chunks of video %s failed: %s", len(report.Skipped), video.ID, report.Skipped[0].Error),
		}
	}

	if err := p.writer.ReplaceVideo(ctx, video.ID, entries); err != nil {
		return report, fmt.Errorf("replace entries for video %s: %w", video.ID, err)
	}
	report.Indexed = len(entries)

	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	logger.Info(ctx, "video ingested",
		"chunks", report.Chunks,
		"indexed", report.Indexed,
		"empty", report.Empty,
		"skipped", len(report.Skipped),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// IngestAll 并发处理多个视频，单个视频失败不影响其他视频；报告顺序与输入一致
func (p *Pipeline) IngestAll(ctx context.Context, videos []entity.Video) []*Report {
	reports := make([]*Report, len(videos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i := range videos {
		g.Go(func() error {
			rep, err := p.IngestVideo(gctx, videos[i], nil)
			if err != nil {
				rep.SetError(err)
				metrics.IngestVideosTotal.WithLabelValues("failed").Inc()
				logger.Error(gctx, "video ingestion failed", err, "video_id", videos[i].ID)
			} else {
				metrics.IngestVideosTotal.WithLabelValues("success").Inc()
			}
			reports[i] = rep
			// 不向 errgroup 返回错误，避免取消其他视频
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func (p *Pipeline) embedWithRetry(ctx context.Context, text string) ([]float64, error) {
	if p.embedder == nil {
		return nil, &retrieval.EmbeddingError{Err: errors.New("embedder not configured")}
	}

	ctx = service.WithWorkflow(ctx, "ingest_embedding")
	var vec []float64
	attempt := 0
	b := retry.WithMaxRetries(p.opts.EmbedMaxRetries, retry.NewFibonacci(p.opts.EmbedBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.EmbeddingRetryTotal.WithLabelValues("ingest").Inc()
		}
		vecs, err := p.embedder.EmbedStrings(ctx, []string{text})
		if err != nil {
			return retry.RetryableError(err)
		}
		if len(vecs) == 0 || len(vecs[0]) == 0 {
			return retry.RetryableError(errors.New("empty embedding result"))
		}
		vec = vecs[0]
		return nil
	})
	if err != nil {
		return nil, &retrieval.EmbeddingError{Err: err}
	}
	return vec, nil
}

func notify(fn ProgressFunc, done, total int) {
	if fn != nil {
		fn(done, total)
	}
}
