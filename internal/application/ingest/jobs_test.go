package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-rag-api/internal/domain/entity"
)

func TestJobService_SubmitAndRun(t *testing.T) {
	jobs := newMemoryJobs()
	pub := &recordingPublisher{}
	w := newMemoryWriter()
	svc := NewJobService(NewPipeline(&flakyEmbedder{failWord: "poison"}, w, testOptions()), jobs, pub)

	v := video("abc", s(0, 50, "intro text"), s(50, 90, "topic X details"), s(215, 230, "poison"))
	job, err := svc.Submit(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusPending, job.Status)
	assert.Equal(t, []string{job.ID}, pub.jobIDs)

	require.NoError(t, svc.Run(context.Background(), job.ID, v))

	got, err := svc.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Len(t, got.SkippedChunks, 1)
	assert.Equal(t, got.Chunks-len(got.SkippedChunks), got.Indexed+countEmpty(t, v))
	assert.NotNil(t, got.CompletedAt)

	// 已完成的任务重复投递时直接跳过
	require.NoError(t, svc.Run(context.Background(), job.ID, v))
}

func countEmpty(t *testing.T, v entity.Video) int {
	t.Helper()
	rep, err := NewPipeline(&flakyEmbedder{}, newMemoryWriter(), testOptions()).IngestVideo(context.Background(), v, nil)
	require.NoError(t, err)
	return rep.Empty
}

func TestJobService_RunFailureMarksJob(t *testing.T) {
	jobs := newMemoryJobs()
	w := newMemoryWriter()
	w.failFor = "abc"
	svc := NewJobService(NewPipeline(&flakyEmbedder{}, w, testOptions()), jobs, &recordingPublisher{})

	v := video("abc", s(0, 30, "x"))
	job, err := svc.Submit(context.Background(), v)
	require.NoError(t, err)

	require.Error(t, svc.Run(context.Background(), job.ID, v))
	got, err := svc.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "store unavailable")

	w.failFor = ""
	require.NoError(t, svc.Run(context.Background(), job.ID, v))
	got, _ = svc.Get(context.Background(), job.ID)
	assert.Equal(t, entity.JobStatusCompleted, got.Status)
	assert.Equal(t, 1, got.RetryCount)
}

func TestJobService_RunFailsWhenEmbeddingIsDown(t *testing.T) {
	jobs := newMemoryJobs()
	w := newMemoryWriter()
	svc := NewJobService(NewPipeline(&flakyEmbedder{failWord: " "}, w, testOptions()), jobs, &recordingPublisher{})

	v := video("abc", s(0, 50, "intro text"))
	job, err := svc.Submit(context.Background(), v)
	require.NoError(t, err)

	require.Error(t, svc.Run(context.Background(), job.ID, v))
	got, err := svc.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusFailed, got.Status)
	assert.NotContains(t, w.entries, "abc")
}

func TestJobService_SubmitValidationAndEnqueueFailure(t *testing.T) {
	jobs := newMemoryJobs()
	svc := NewJobService(NewPipeline(&flakyEmbedder{}, newMemoryWriter(), testOptions()), jobs, &recordingPublisher{err: errors.New("redis down")})

	_, err := svc.Submit(context.Background(), entity.Video{ID: "x"})
	assert.Error(t, err)

	_, err = svc.Submit(context.Background(), video("x", s(0, 1, "a")))
	require.Error(t, err)
	for _, j := range jobs.jobs {
		assert.Equal(t, entity.JobStatusFailed, j.Status)
	}
}

func TestJobService_GetMissing(t *testing.T) {
	svc := NewJobService(nil, newMemoryJobs(), nil)
	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
