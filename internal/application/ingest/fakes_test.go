package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/domain/repository"
)

// flakyEmbedder 对包含 failWord 的文本持续失败，对 flakyWord 前 flakyTimes 次失败
type flakyEmbedder struct {
	mu         sync.Mutex
	failWord   string
	flakyWord  string
	flakyTimes int
	calls      map[string]int
}

func (e *flakyEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.calls == nil {
		e.calls = map[string]int{}
	}
	out := make([][]float64, 0, len(texts))
	for _, t := range texts {
		e.calls[t]++
		if e.failWord != "" && strings.Contains(t, e.failWord) {
			return nil, errors.New("upstream rejected input")
		}
		if e.flakyWord != "" && strings.Contains(t, e.flakyWord) && e.calls[t] <= e.flakyTimes {
			return nil, errors.New("rate limited")
		}
		out = append(out, []float64{float64(len(t)), 1})
	}
	return out, nil
}

type memoryWriter struct {
	mu      sync.Mutex
	entries map[string][]*entity.IndexEntry
	failFor string
}

func newMemoryWriter() *memoryWriter {
	return &memoryWriter{entries: map[string][]*entity.IndexEntry{}}
}

func (w *memoryWriter) ReplaceVideo(_ context.Context, videoID string, entries []*entity.IndexEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if videoID == w.failFor {
		return errors.New("store unavailable")
	}
	w.entries[videoID] = entries
	return nil
}

type memoryJobs struct {
	mu       sync.Mutex
	jobs     map[string]*entity.IngestJob
	progress []int
}

func newMemoryJobs() *memoryJobs {
	return &memoryJobs{jobs: map[string]*entity.IngestJob{}}
}

func (r *memoryJobs) Create(_ context.Context, job *entity.IngestJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *memoryJobs) GetByID(_ context.Context, id string) (*entity.IngestJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (r *memoryJobs) Update(_ context.Context, job *entity.IngestJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *job
	cp.UpdatedAt = time.Now()
	r.jobs[job.ID] = &cp
	return nil
}

func (r *memoryJobs) UpdateProgress(_ context.Context, id string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, progress)
	if j, ok := r.jobs[id]; ok {
		j.Progress = progress
	}
	return nil
}

func (r *memoryJobs) List(_ context.Context, _ *repository.IngestJobFilter, p repository.Pagination) (*repository.PagedResult[*entity.IngestJob], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*entity.IngestJob, 0, len(r.jobs))
	for _, j := range r.jobs {
		items = append(items, j)
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

type recordingPublisher struct {
	jobIDs []string
	err    error
}

func (p *recordingPublisher) PublishIngest(_ context.Context, jobID string, _ entity.Video) error {
	if p.err != nil {
		return p.err
	}
	p.jobIDs = append(p.jobIDs, jobID)
	return nil
}
