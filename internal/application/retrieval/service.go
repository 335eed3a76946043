package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/pkg/logger"
	"video-rag-api/pkg/metrics"
	"video-rag-api/pkg/timecode"
)

const DefaultWatchURL = "https://www.youtube.com/watch"

// AnswerCache 查询结果缓存；实现方需保证缓存自身故障不影响 loader 的执行
type AnswerCache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (*entity.Answer, error)) (*entity.Answer, error)
}

// QueryService 查询链路：检索 -> 裁决 -> 生成深链
type QueryService struct {
	retriever *Retriever
	judge     *Disambiguator
	index     *Index
	watchURL  string

	cache    AnswerCache
	cacheTTL time.Duration
}

// QueryOption QueryService 可选项
type QueryOption func(*QueryService)

// WithAnswerCache 启用结果缓存，ttl <= 0 时不启用
func WithAnswerCache(cache AnswerCache, ttl time.Duration) QueryOption {
	return func(s *QueryService) {
		if cache != nil && ttl > 0 {
			s.cache = cache
			s.cacheTTL = ttl
		}
	}
}

// NewQueryService 创建查询服务
func NewQueryService(retriever *Retriever, judge *Disambiguator, index *Index, watchURL string, opts ...QueryOption) *QueryService {
	if strings.TrimSpace(watchURL) == "" {
		watchURL = DefaultWatchURL
	}
	s := &QueryService{
		retriever: retriever,
		judge:     judge,
		index:     index,
		watchURL:  watchURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindBestMatch 返回与查询最匹配的视频位置
func (s *QueryService) FindBestMatch(ctx context.Context, query string) (*entity.Answer, error) {
	start := time.Now()
	defer func() { metrics.QueryDuration.Observe(time.Since(start).Seconds()) }()

	q := strings.TrimSpace(query)
	if q == "" {
		metrics.QueryTotal.WithLabelValues("error").Inc()
		return nil, ErrEmptyQuery
	}

	var (
		ans *entity.Answer
		err error
	)
	if s.cache != nil && s.index != nil && s.index.Ready() {
		loaded := false
		ans, err = s.cache.GetOrLoad(ctx, s.cacheKey(q), s.cacheTTL, func(ctx context.Context) (*entity.Answer, error) {
			loaded = true
			return s.resolve(ctx, q)
		})
		if err == nil && !loaded {
			metrics.QueryTotal.WithLabelValues("cache_hit").Inc()
			return ans, nil
		}
	} else {
		ans, err = s.resolve(ctx, q)
	}
	if err != nil {
		metrics.QueryTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.QueryTotal.WithLabelValues("success").Inc()
	return ans, nil
}

func (s *QueryService) resolve(ctx context.Context, query string) (*entity.Answer, error) {
	cands, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	j, err := s.judge.Choose(ctx, query, cands)
	if err != nil {
		return nil, err
	}
	link, err := BuildWatchURL(s.watchURL, j.Candidate.VideoID, j.Candidate.Timestamp)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "best match resolved",
		"video_id", j.Candidate.VideoID,
		"timestamp", j.Candidate.Timestamp,
		"score", j.Candidate.Score,
		"reason", j.Reason,
	)
	return &entity.Answer{
		VideoID:          j.Candidate.VideoID,
		Timestamp:        j.Candidate.Timestamp,
		URLWithTimestamp: link,
		AnswerText:       j.AnswerText,
		Fallback:         j.Fallback,
	}, nil
}

// cacheKey 快照版本 + 查询哈希，重载后旧结果自然失效。
// query 须与送入 embedding 的文本一致，不做大小写或空白折叠。
func (s *QueryService) cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	var version uint64
	if snap := s.index.Snapshot(); snap != nil {
		version = snap.Version()
	}
	return fmt.Sprintf("answer:v%d:%s", version, hex.EncodeToString(sum[:16]))
}

// BuildWatchURL 生成带时间偏移的观看链接，如 https://www.youtube.com/watch?v=ID&t=5m30s
func BuildWatchURL(base, videoID, ts string) (string, error) {
	formatted, err := timecode.Format(ts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s?v=%s&t=%s", strings.TrimRight(base, "?"), url.QueryEscape(videoID), formatted), nil
}
