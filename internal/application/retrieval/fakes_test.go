package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"video-rag-api/internal/domain/entity"
)

// wordEmbedder 词袋 embedding：每个新词分配一个维度
type wordEmbedder struct {
	mu    sync.Mutex
	dim   int
	vocab map[string]int
	err   error
	calls int
}

func newWordEmbedder(dim int) *wordEmbedder {
	return &wordEmbedder{dim: dim, vocab: map[string]int{}}
}

func (e *wordEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float64, 0, len(texts))
	for _, t := range texts {
		vec := make([]float64, e.dim)
		for _, w := range strings.Fields(strings.ToLower(t)) {
			idx, ok := e.vocab[w]
			if !ok {
				idx = len(e.vocab) % e.dim
				e.vocab[w] = idx
			}
			vec[idx]++
		}
		out = append(out, vec)
	}
	return out, nil
}

// scriptedModel 按预设回复的对话模型
type scriptedModel struct {
	reply string
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls int
	input []*schema.Message
}

func (m *scriptedModel) Generate(ctx context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls++
	m.input = in
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

// memorySource 内存 EntrySource
type memorySource struct {
	entries []*entity.IndexEntry
	err     error
}

func (s *memorySource) LoadEntries(context.Context) ([]*entity.IndexEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

func entry(videoID, ts string, vec ...float64) *entity.IndexEntry {
	return &entity.IndexEntry{VideoID: videoID, Timestamp: ts, Text: videoID + "@" + ts, Embedding: vec}
}
