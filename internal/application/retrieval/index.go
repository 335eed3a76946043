package retrieval

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/domain/repository"
	"video-rag-api/pkg/logger"
	"video-rag-api/pkg/metrics"
	"video-rag-api/pkg/timecode"
)

type indexedEntry struct {
	entry  *entity.IndexEntry
	offset time.Duration
	norm   float64
}

// Snapshot 不可变的索引快照，加载完成后只读
type Snapshot struct {
	entries  []indexedEntry
	dim      int
	version  uint64
	loadedAt time.Time
}

// BuildSnapshot 校验并构建快照；任一记录不合法时返回 LoadError
func BuildSnapshot(entries []*entity.IndexEntry) (*Snapshot, error) {
	snap := &Snapshot{
		entries:  make([]indexedEntry, 0, len(entries)),
		loadedAt: time.Now(),
	}
	for i, e := range entries {
		if e == nil {
			return nil, &LoadError{Entry: i, Reason: "nil entry"}
		}
		if strings.TrimSpace(e.VideoID) == "" {
			return nil, &LoadError{Entry: i, Reason: "missing video_id"}
		}
		if strings.TrimSpace(e.Timestamp) == "" {
			return nil, &LoadError{Entry: i, Reason: "missing timestamp"}
		}
		offset, err := timecode.Parse(e.Timestamp)
		if err != nil {
			return nil, &LoadError{Entry: i, Reason: "unparsable timestamp", Err: err}
		}
		if _, err := timecode.Format(e.Timestamp); err != nil {
			return nil, &LoadError{Entry: i, Reason: "timestamp not linkable", Err: err}
		}
		if len(e.Embedding) == 0 {
			return nil, &LoadError{Entry: i, Reason: "empty embedding"}
		}
		if snap.dim == 0 {
			snap.dim = len(e.Embedding)
		} else if len(e.Embedding) != snap.dim {
			return nil, &LoadError{Entry: i, Reason: "embedding dimension mismatch",
				Err: &DimensionMismatchError{Want: snap.dim, Got: len(e.Embedding)}}
		}
		for _, x := range e.Embedding {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, &LoadError{Entry: i, Reason: "non-finite embedding value"}
			}
		}
		snap.entries = append(snap.entries, indexedEntry{entry: e, offset: offset, norm: norm(e.Embedding)})
	}
	return snap, nil
}

// Len 记录数
func (s *Snapshot) Len() int { return len(s.entries) }

// Dimension 向量维度，空快照为 0
func (s *Snapshot) Dimension() int { return s.dim }

// Version 快照版本号，每次成功加载递增
func (s *Snapshot) Version() uint64 { return s.version }

// LoadedAt 快照构建时间
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Search 暴力余弦检索，按得分降序、时间戳升序、video_id 升序返回前 k 个。
// k 为 0 时返回 NoCandidatesError。
func (s *Snapshot) Search(vec []float64, k int) ([]entity.MatchCandidate, error) {
	if k == 0 {
		return nil, &NoCandidatesError{}
	}
	if k < 0 {
		return nil, &ConfigError{Field: "k", Reason: "must not be negative"}
	}
	if len(s.entries) == 0 {
		return []entity.MatchCandidate{}, nil
	}
	if len(vec) != s.dim {
		return nil, &DimensionMismatchError{Want: s.dim, Got: len(vec)}
	}

	type scored struct {
		ie    *indexedEntry
		score float64
	}
	qNorm := norm(vec)
	all := make([]scored, len(s.entries))
	for i := range s.entries {
		ie := &s.entries[i]
		all[i] = scored{ie: ie, score: cosine(vec, qNorm, ie.entry.Embedding, ie.norm)}
	}
	slices.SortStableFunc(all, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.ie.offset, b.ie.offset); c != 0 {
			return c
		}
		return strings.Compare(a.ie.entry.VideoID, b.ie.entry.VideoID)
	})

	if k > len(all) {
		k = len(all)
	}
	out := make([]entity.MatchCandidate, 0, k)
	for _, sc := range all[:k] {
		out = append(out, entity.MatchCandidate{
			VideoID:   sc.ie.entry.VideoID,
			Timestamp: sc.ie.entry.Timestamp,
			Text:      sc.ie.entry.Text,
			Score:     sc.score,
		})
	}
	return out, nil
}

// IndexStats 索引统计
type IndexStats struct {
	Loaded    bool      `json:"loaded"`
	Store     string    `json:"store"`
	Entries   int       `json:"entries"`
	Dimension int       `json:"dimension"`
	Version   uint64    `json:"version"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// Index 持有当前快照，重载时先构建新快照再原子替换
type Index struct {
	source    repository.EntrySource
	storeName string

	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	// reloadMu 串行化重载，读路径不加锁
	reloadMu sync.Mutex
}

// NewIndex 创建索引持有者
func NewIndex(source repository.EntrySource, storeName string) *Index {
	return &Index{source: source, storeName: storeName}
}

// Load 从存储读取全部记录并替换快照；失败时保留当前快照
func (x *Index) Load(ctx context.Context) error {
	x.reloadMu.Lock()
	defer x.reloadMu.Unlock()

	start := time.Now()
	entries, err := x.source.LoadEntries(ctx)
	if err != nil {
		metrics.IndexReloadTotal.WithLabelValues(x.storeName, "error").Inc()
		return &LoadError{Entry: -1, Reason: "read " + x.storeName, Err: err}
	}
	snap, err := BuildSnapshot(entries)
	if err != nil {
		metrics.IndexReloadTotal.WithLabelValues(x.storeName, "error").Inc()
		return err
	}
	x.Swap(snap)

	metrics.IndexReloadTotal.WithLabelValues(x.storeName, "success").Inc()
	logger.Info(ctx, "index snapshot loaded",
		"store", x.storeName,
		"entries", snap.Len(),
		"dimension", snap.Dimension(),
		"version", snap.Version(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Swap 直接安装一个已构建的快照并分配新版本号
func (x *Index) Swap(snap *Snapshot) {
	snap.version = x.version.Add(1)
	x.current.Store(snap)
	metrics.IndexEntries.Set(float64(snap.Len()))
	metrics.IndexDimension.Set(float64(snap.Dimension()))
}

// Snapshot 当前快照，未加载时为 nil
func (x *Index) Snapshot() *Snapshot {
	return x.current.Load()
}

// Ready 是否已有可用快照
func (x *Index) Ready() bool {
	return x.current.Load() != nil
}

// Search 在当前快照上检索
func (x *Index) Search(vec []float64, k int) ([]entity.MatchCandidate, error) {
	snap := x.current.Load()
	if snap == nil {
		return nil, ErrIndexNotLoaded
	}
	start := time.Now()
	defer func() { metrics.IndexSearchDuration.Observe(time.Since(start).Seconds()) }()
	return snap.Search(vec, k)
}

// Stats 当前快照统计
func (x *Index) Stats() IndexStats {
	st := IndexStats{Store: x.storeName}
	if snap := x.current.Load(); snap != nil {
		st.Loaded = true
		st.Entries = snap.Len()
		st.Dimension = snap.Dimension()
		st.Version = snap.Version()
		st.LoadedAt = snap.LoadedAt()
	}
	return st
}

// RunReloader 按固定间隔重载，直到 ctx 结束；单次失败只记录日志
func (x *Index) RunReloader(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := x.Load(ctx); err != nil {
				logger.Error(ctx, "periodic index reload failed, keeping current snapshot", err, "store", x.storeName)
			}
		}
	}
}
