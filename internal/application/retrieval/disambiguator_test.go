package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-rag-api/internal/domain/entity"
)

var threeCandidates = []entity.MatchCandidate{
	{VideoID: "v1", Timestamp: "00:01:00", Text: "first", Score: 0.9},
	{VideoID: "v2", Timestamp: "00:02:00", Text: "second", Score: 0.8},
	{VideoID: "v3", Timestamp: "00:03:00", Text: "third", Score: 0.7},
}

func TestDisambiguator_AcceptsValidChoice(t *testing.T) {
	m := &scriptedModel{reply: "Sure!\n```json\n{\"video_id\": \"v2\", \"timestamp\": \"00:02:00\", \"answer\": \"It is in the second one.\"}\n```"}
	d := NewDisambiguator(m, "openai", time.Second)

	j, err := d.Choose(context.Background(), "where?", threeCandidates)
	require.NoError(t, err)
	assert.Equal(t, threeCandidates[1], j.Candidate)
	assert.Equal(t, "It is in the second one.", j.AnswerText)
	assert.False(t, j.Fallback)
	assert.Equal(t, ReasonJudged, j.Reason)

	require.Len(t, m.input, 2)
	assert.Contains(t, m.input[1].Content, "[2] video_id=v2 timestamp=00:02:00")
	assert.Contains(t, m.input[1].Content, "Question: where?")
}

func TestDisambiguator_NeverReturnsUnknownPair(t *testing.T) {
	replies := []string{
		`{"video_id": "v9", "timestamp": "00:02:00", "answer": "made up"}`,
		`{"video_id": "v2", "timestamp": "00:03:00", "answer": "mixed pair"}`,
		`{"video_id": "", "timestamp": ""}`,
	}
	for _, reply := range replies {
		j, err := NewDisambiguator(&scriptedModel{reply: reply}, "openai", time.Second).
			Choose(context.Background(), "q", threeCandidates)
		require.NoError(t, err)
		assert.Equal(t, threeCandidates[0], j.Candidate, reply)
		assert.True(t, j.Fallback)
		assert.Equal(t, ReasonUnknownCandidate, j.Reason)
		assert.Empty(t, j.AnswerText)
	}
}

func TestDisambiguator_FallbackReasons(t *testing.T) {
	tests := []struct {
		name   string
		model  *scriptedModel
		reason string
	}{
		{"model error", &scriptedModel{err: errors.New("503")}, ReasonModelError},
		{"unparsable", &scriptedModel{reply: "I think the second one"}, ReasonParseError},
		{"timeout", &scriptedModel{reply: `{"video_id":"v2","timestamp":"00:02:00"}`, delay: time.Second}, ReasonTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDisambiguator(tt.model, "openai", 20*time.Millisecond)
			j, err := d.Choose(context.Background(), "q", threeCandidates)
			require.NoError(t, err)
			assert.Equal(t, threeCandidates[0], j.Candidate)
			assert.True(t, j.Fallback)
			assert.Equal(t, tt.reason, j.Reason)
		})
	}
}

func TestDisambiguator_NoModel(t *testing.T) {
	j, err := NewDisambiguator(nil, "", 0).Choose(context.Background(), "q", threeCandidates)
	require.NoError(t, err)
	assert.Equal(t, ReasonNoModel, j.Reason)
	assert.Equal(t, threeCandidates[0], j.Candidate)
}

func TestDisambiguator_SingleCandidateSkipsModel(t *testing.T) {
	m := &scriptedModel{reply: `{"video_id":"v1","timestamp":"00:01:00"}`}
	j, err := NewDisambiguator(m, "openai", time.Second).Choose(context.Background(), "q", threeCandidates[:1])
	require.NoError(t, err)
	assert.Equal(t, ReasonSingleCandidate, j.Reason)
	assert.Zero(t, m.calls)
}

func TestDisambiguator_EmptyCandidates(t *testing.T) {
	_, err := NewDisambiguator(nil, "", 0).Choose(context.Background(), "q", nil)
	var nc *NoCandidatesError
	assert.True(t, errors.As(err, &nc))
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSONObject(`noise {"a":1} trailing`))
	assert.Equal(t, `{"a":{"b":"}"}}`, extractJSONObject("```json\n{\"a\":{\"b\":\"}\"}}\n```"))
	assert.Equal(t, "no json", extractJSONObject("no json"))
}
