package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-rag-api/internal/application/retrieval"
	"video-rag-api/internal/domain/entity"
)

func testOptions() Options {
	return Options{
		Chunking:        retrieval.ChunkOptions{Duration: 60 * time.Second, Overlap: 10 * time.Second},
		Concurrency:     2,
		EmbedMaxRetries: 2,
		EmbedBackoff:    time.Millisecond,
	}
}

func video(id string, segs ...entity.Segment) entity.Video {
	return entity.Video{ID: id, Segments: segs}
}

func s(start, end int, text string) entity.Segment {
	return entity.Segment{Start: time.Duration(start) * time.Second, End: time.Duration(end) * time.Second, Text: text}
}

func TestIngestVideo_IndexesChunksWithCanonicalTimestamps(t *testing.T) {
	w := newMemoryWriter()
	p := NewPipeline(&flakyEmbedder{}, w, testOptions())

	var progress []int
	rep, err := p.IngestVideo(context.Background(), video("abc", s(0, 50, "intro text"), s(50, 90, "topic X details")),
		func(done, total int) { progress = append(progress, done*100/total) })
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Chunks)
	assert.Equal(t, 2, rep.Indexed)
	assert.Empty(t, rep.Skipped)
	assert.Equal(t, []int{50, 100}, progress)

	got := w.entries["abc"]
	require.Len(t, got, 2)
	assert.Equal(t, "00:00:00", got[0].Timestamp)
	assert.Equal(t, "00:00:50", got[1].Timestamp)
	assert.Equal(t, "topic X details", got[1].Text)
	assert.NotEmpty(t, got[1].Embedding)
}

func TestIngestVideo_RetriesThenSkipsFailingChunk(t *testing.T) {
	emb := &flakyEmbedder{failWord: "poison", flakyWord: "wobbly", flakyTimes: 2}
	w := newMemoryWriter()
	p := NewPipeline(emb, w, testOptions())

	rep, err := p.IngestVideo(context.Background(), video("v",
		s(0, 40, "fine"),
		s(60, 100, "wobbly"),
		s(215, 230, "poison"),
	), nil)
	require.NoError(t, err)

	require.Len(t, rep.Skipped, 1)
	assert.Contains(t, rep.Skipped[0].Error, "upstream rejected input")
	assert.Equal(t, rep.Chunks-len(rep.Skipped)-rep.Empty, rep.Indexed)
	assert.Len(t, w.entries["v"], rep.Indexed)

	for _, e := range w.entries["v"] {
		assert.NotContains(t, e.Text, "poison")
	}
	// 1 次初始调用 + 2 次重试
	assert.Equal(t, 3, emb.calls["poison"])
	assert.Equal(t, 3, emb.calls["wobbly"])
}

func TestIngestVideo_AllChunksFailingKeepsStoredEntries(t *testing.T) {
	w := newMemoryWriter()
	v := video("abc", s(0, 50, "intro text"), s(50, 90, "topic X details"))

	_, err := NewPipeline(&flakyEmbedder{}, w, testOptions()).IngestVideo(context.Background(), v, nil)
	require.NoError(t, err)
	before := w.entries["abc"]
	require.Len(t, before, 2)

	rep, err := NewPipeline(&flakyEmbedder{failWord: " "}, w, testOptions()).IngestVideo(context.Background(), v, nil)
	var embErr *retrieval.EmbeddingError
	require.True(t, errors.As(err, &embErr))
	assert.Len(t, rep.Skipped, 2)
	assert.Zero(t, rep.Indexed)
	assert.Equal(t, before, w.entries["abc"])
}

func TestIngestVideo_SkipsEmptyWindows(t *testing.T) {
	w := newMemoryWriter()
	p := NewPipeline(&flakyEmbedder{}, w, testOptions())

	rep, err := p.IngestVideo(context.Background(), video("gap", s(0, 5, "start"), s(300, 305, "end")), nil)
	require.NoError(t, err)
	assert.Positive(t, rep.Empty)
	// 第一个窗口与覆盖 300s 片段的两个窗口
	assert.Equal(t, 3, rep.Indexed)
	for _, e := range w.entries["gap"] {
		assert.NotEmpty(t, e.Text)
	}
}

func TestIngestVideo_InvalidSegments(t *testing.T) {
	p := NewPipeline(&flakyEmbedder{}, newMemoryWriter(), testOptions())
	_, err := p.IngestVideo(context.Background(), video("v", s(10, 20, "a"), s(0, 5, "b")), nil)
	var inv *retrieval.InvalidInputError
	assert.True(t, errors.As(err, &inv))

	_, err = p.IngestVideo(context.Background(), video("", s(0, 5, "a")), nil)
	assert.True(t, errors.As(err, &inv))
}

func TestIngestAll_IsolatesFailures(t *testing.T) {
	w := newMemoryWriter()
	w.failFor = "broken-store"
	p := NewPipeline(&flakyEmbedder{}, w, testOptions())

	reports := p.IngestAll(context.Background(), []entity.Video{
		video("ok-1", s(0, 30, "one")),
		video("bad-input", s(10, 5, "reversed")),
		video("broken-store", s(0, 30, "two")),
		video("ok-2", s(0, 30, "three")),
	})
	require.Len(t, reports, 4)

	assert.NoError(t, reports[0].Err())
	assert.Error(t, reports[1].Err())
	assert.Error(t, reports[2].Err())
	assert.NoError(t, reports[3].Err())
	assert.Equal(t, "bad-input", reports[1].VideoID)
	assert.NotEmpty(t, reports[2].Error)

	assert.Len(t, w.entries["ok-1"], 1)
	assert.Len(t, w.entries["ok-2"], 1)

	sum := Summarize(reports)
	assert.Equal(t, 4, sum.Videos)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, 2, sum.Indexed)
}

func TestIngestVideo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPipeline(&flakyEmbedder{}, newMemoryWriter(), testOptions())
	_, err := p.IngestVideo(ctx, video("v", s(0, 30, "x")), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
