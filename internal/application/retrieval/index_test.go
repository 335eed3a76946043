package retrieval

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-rag-api/internal/domain/entity"
)

func TestSnapshot_SearchOrdersByScoreThenTimestampThenVideo(t *testing.T) {
	snap, err := BuildSnapshot([]*entity.IndexEntry{
		entry("b", "00:01:00", 1, 0),
		entry("a", "00:01:00", 1, 0),
		entry("c", "00:00:30", 1, 0),
		entry("d", "00:00:10", 0, 1),
		entry("e", "00:00:05", 0.9, 0.1),
	})
	require.NoError(t, err)

	got, err := snap.Search([]float64{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 5)

	ids := []string{got[0].VideoID, got[1].VideoID, got[2].VideoID, got[3].VideoID, got[4].VideoID}
	assert.Equal(t, []string{"c", "a", "b", "e", "d"}, ids)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, "00:00:30", got[0].Timestamp)
}

func TestSnapshot_TimestampTieBreakUsesDurationNotString(t *testing.T) {
	snap, err := BuildSnapshot([]*entity.IndexEntry{
		entry("v", "10:00", 1, 1),
		entry("v", "00:09:59", 1, 1),
	})
	require.NoError(t, err)

	got, err := snap.Search([]float64{1, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, "00:09:59", got[0].Timestamp)
}

func TestSnapshot_SearchLimitsToK(t *testing.T) {
	snap, err := BuildSnapshot([]*entity.IndexEntry{
		entry("a", "00:00:01", 1, 0),
		entry("b", "00:00:02", 0, 1),
	})
	require.NoError(t, err)

	got, err := snap.Search([]float64{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].VideoID)

	got, err = snap.Search([]float64{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = snap.Search([]float64{1, 0}, 0)
	var noCands *NoCandidatesError
	assert.True(t, errors.As(err, &noCands))

	_, err = snap.Search([]float64{1, 0}, -1)
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestSnapshot_SelfMatch(t *testing.T) {
	emb := newWordEmbedder(16)
	vecs, err := emb.EmbedStrings(context.Background(), []string{"how to tune a guitar"})
	require.NoError(t, err)

	snap, err := BuildSnapshot([]*entity.IndexEntry{{VideoID: "v", Timestamp: "00:02:00", Text: "how to tune a guitar", Embedding: vecs[0]}})
	require.NoError(t, err)

	got, err := snap.Search(vecs[0], 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "v", got[0].VideoID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}

func TestSnapshot_DimensionMismatch(t *testing.T) {
	snap, err := BuildSnapshot([]*entity.IndexEntry{entry("a", "00:00:01", 1, 0, 0)})
	require.NoError(t, err)

	_, err = snap.Search([]float64{1, 0}, 3)
	var dm *DimensionMismatchError
	require.True(t, errors.As(err, &dm))
	assert.Equal(t, 3, dm.Want)
	assert.Equal(t, 2, dm.Got)
}

func TestSnapshot_EmptyIsValid(t *testing.T) {
	snap, err := BuildSnapshot(nil)
	require.NoError(t, err)
	assert.Zero(t, snap.Len())

	got, err := snap.Search([]float64{1, 2, 3}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuildSnapshot_LoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []*entity.IndexEntry
	}{
		{"nil entry", []*entity.IndexEntry{nil}},
		{"missing video id", []*entity.IndexEntry{entry("", "00:00:01", 1)}},
		{"missing timestamp", []*entity.IndexEntry{entry("a", "", 1)}},
		{"unparsable timestamp", []*entity.IndexEntry{entry("a", "soon", 1)}},
		{"seconds-only timestamp", []*entity.IndexEntry{entry("a", "42", 1)}},
		{"empty embedding", []*entity.IndexEntry{entry("a", "00:00:01")}},
		{"mixed dimensions", []*entity.IndexEntry{entry("a", "00:00:01", 1, 0), entry("b", "00:00:02", 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildSnapshot(tt.entries)
			var le *LoadError
			assert.True(t, errors.As(err, &le), "got %v", err)
		})
	}
}

func TestIndex_FailedLoadKeepsCurrentSnapshot(t *testing.T) {
	src := &memorySource{entries: []*entity.IndexEntry{entry("a", "00:00:01", 1, 0)}}
	idx := NewIndex(src, "memory")
	assert.False(t, idx.Ready())

	_, err := idx.Search([]float64{1, 0}, 3)
	assert.ErrorIs(t, err, ErrIndexNotLoaded)

	require.NoError(t, idx.Load(context.Background()))
	first := idx.Snapshot()
	require.NotNil(t, first)
	assert.EqualValues(t, 1, first.Version())

	src.entries = []*entity.IndexEntry{entry("a", "00:00:01", 1, 0), entry("b", "00:00:02", 1)}
	err = idx.Load(context.Background())
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Same(t, first, idx.Snapshot())

	src.err = errors.New("store down")
	err = idx.Load(context.Background())
	require.True(t, errors.As(err, &le))
	assert.Same(t, first, idx.Snapshot())

	src.err = nil
	src.entries = []*entity.IndexEntry{entry("a", "00:00:01", 1, 0), entry("b", "00:00:02", 0, 1)}
	require.NoError(t, idx.Load(context.Background()))
	st := idx.Stats()
	assert.True(t, st.Loaded)
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, 2, st.Dimension)
	assert.EqualValues(t, 2, st.Version)
	assert.Equal(t, "memory", st.Store)
}

func TestIndex_ConcurrentReadsDuringReload(t *testing.T) {
	src := &memorySource{entries: []*entity.IndexEntry{entry("a", "00:00:01", 1, 0), entry("b", "00:00:02", 0, 1)}}
	idx := NewIndex(src, "memory")
	require.NoError(t, idx.Load(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got, err := idx.Search([]float64{1, 0}, 2)
				if assert.NoError(t, err) {
					assert.Len(t, got, 2)
				}
			}
		}()
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, idx.Load(context.Background()))
	}
	wg.Wait()
}
