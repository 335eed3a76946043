package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/domain/service"
)

const (
	MinTopK     = 3
	MaxTopK     = 5
	DefaultTopK = 5
)

// ErrEmptyQuery 查询文本为空
var ErrEmptyQuery = errors.New("query text is empty")

// Searcher 快照检索能力，由 *Index 实现
type Searcher interface {
	Search(vec []float64, k int) ([]entity.MatchCandidate, error)
}

// Retriever 无状态检索器：embedding 查询后在当前快照上取 top-k
type Retriever struct {
	embedder embedding.Embedder
	index    Searcher
	topK     int
}

// NewRetriever 创建检索器，topK 为 0 时取默认值，其余收敛到 [3, 5]
func NewRetriever(embedder embedding.Embedder, index Searcher, topK int) *Retriever {
	return &Retriever{embedder: embedder, index: index, topK: ClampTopK(topK)}
}

// ClampTopK 收敛 k 的取值
func ClampTopK(k int) int {
	switch {
	case k == 0:
		return DefaultTopK
	case k < MinTopK:
		return MinTopK
	case k > MaxTopK:
		return MaxTopK
	default:
		return k
	}
}

// TopK 实际使用的 k
func (r *Retriever) TopK() int { return r.topK }

// Retrieve 返回按排序约定排列的候选，结果为空时返回 NoCandidatesError
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]entity.MatchCandidate, error) {
	vec, err := r.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	cands, err := r.index.Search(vec, r.topK)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, &NoCandidatesError{Query: query}
	}
	return cands, nil
}

// EmbedQuery 对查询文本做 embedding，上游失败或超时包装为 EmbeddingError
func (r *Retriever) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	if r.embedder == nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("embedder not configured")}
	}
	vecs, err := r.embedder.EmbedStrings(service.WithWorkflow(ctx, "query_embedding"), []string{q})
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, &EmbeddingError{Err: fmt.Errorf("empty embedding result")}
	}
	return vecs[0], nil
}
