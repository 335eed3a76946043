package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-rag-api/internal/domain/entity"
)

func TestClampTopK(t *testing.T) {
	assert.Equal(t, 5, ClampTopK(0))
	assert.Equal(t, 3, ClampTopK(1))
	assert.Equal(t, 3, ClampTopK(-4))
	assert.Equal(t, 4, ClampTopK(4))
	assert.Equal(t, 5, ClampTopK(50))
}

func TestRetriever_ReturnsCandidatesUnchanged(t *testing.T) {
	emb := newWordEmbedder(8)
	texts := []string{"alpha beta", "beta gamma", "gamma delta", "delta alpha"}
	vecs, err := emb.EmbedStrings(context.Background(), texts)
	require.NoError(t, err)

	entries := make([]*entity.IndexEntry, 0, len(texts))
	for i, txt := range texts {
		entries = append(entries, &entity.IndexEntry{
			VideoID: "v", Timestamp: []string{"00:00:00", "00:00:50", "00:01:40", "00:02:30"}[i],
			Text: txt, Embedding: vecs[i],
		})
	}
	idx := NewIndex(&memorySource{entries: entries}, "memory")
	require.NoError(t, idx.Load(context.Background()))

	r := NewRetriever(emb, idx, 3)
	got, err := r.Retrieve(context.Background(), "alpha beta")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "alpha beta", got[0].Text)

	direct, err := idx.Search(vecs[0], 3)
	require.NoError(t, err)
	assert.Equal(t, direct, got)
}

func TestRetriever_NoCandidates(t *testing.T) {
	idx := NewIndex(&memorySource{}, "memory")
	require.NoError(t, idx.Load(context.Background()))

	_, err := NewRetriever(newWordEmbedder(4), idx, 0).Retrieve(context.Background(), "anything")
	var nc *NoCandidatesError
	require.True(t, errors.As(err, &nc))
	assert.Equal(t, "anything", nc.Query)
}

func TestRetriever_EmbeddingFailure(t *testing.T) {
	emb := newWordEmbedder(4)
	emb.err = errors.New("rate limited")
	idx := NewIndex(&memorySource{entries: []*entity.IndexEntry{entry("a", "00:00:01", 1, 0, 0, 0)}}, "memory")
	require.NoError(t, idx.Load(context.Background()))

	_, err := NewRetriever(emb, idx, 5).Retrieve(context.Background(), "q")
	var ee *EmbeddingError
	require.True(t, errors.As(err, &ee))
	assert.EqualError(t, ee.Unwrap(), "rate limited")
}

func TestRetriever_EmptyQuery(t *testing.T) {
	_, err := NewRetriever(newWordEmbedder(4), NewIndex(&memorySource{}, "memory"), 5).Retrieve(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestRetriever_IndexNotLoaded(t *testing.T) {
	_, err := NewRetriever(newWordEmbedder(4), NewIndex(&memorySource{}, "memory"), 5).Retrieve(context.Background(), "q")
	assert.ErrorIs(t, err, ErrIndexNotLoaded)
}
