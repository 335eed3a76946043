package milvus

import (
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "video-rag-api/internal/domain/entity"
)

func TestColumnsRoundTrip(t *testing.T) {
	in := []*domain.IndexEntry{
		{VideoID: "abc", Timestamp: "00:00:50", Text: "topic X", Embedding: []float64{0.5, 0.25}},
		{VideoID: "def", Timestamp: "00:01:40", Text: "topic Y", Embedding: []float64{1, 0}},
	}

	cols, err := columnsFromEntries(in, 2)
	require.NoError(t, err)
	require.Len(t, cols, 4)

	out, err := entriesFromColumns(client.ResultSet(cols))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestColumnsFromEntries_DimensionMismatch(t *testing.T) {
	_, err := columnsFromEntries([]*domain.IndexEntry{{VideoID: "a", Timestamp: "00:00:00", Embedding: []float64{1}}}, 3)
	assert.Error(t, err)
}

func TestVideoFilterQuotes(t *testing.T) {
	assert.Equal(t, `video_id == "abc"`, videoFilter("abc"))
	assert.Equal(t, `video_id == "a\"b"`, videoFilter(`a"b`))
}

func TestVideoChunksSchema(t *testing.T) {
	s := VideoChunksSchema("video_chunks", 1536)
	assert.Equal(t, "video_chunks", s.CollectionName)
	var vec *entity.Field
	for _, f := range s.Fields {
		if f.Name == fieldEmbedding {
			vec = f
		}
	}
	require.NotNil(t, vec)
	assert.Equal(t, "1536", vec.TypeParams["dim"])
}
