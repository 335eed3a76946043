// Package embedding 提供文本向量化组件，统一实现 eino embedding.Embedder
package embedding

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"video-rag-api/internal/config"
)

var tracer = otel.Tracer("embedding")

const (
	defaultHTTPModel     = "BAAI/bge-m3"
	defaultBatchSize     = 32
	defaultHTTPTimeout   = 30 * time.Second
	errorBodySnippetSize = 512
)

// Client 自托管 embedding 服务（如 TEI / bge-m3）的 HTTP 客户端。
// 请求体 {"texts": [...], "model": "..."}，响应体 {"embeddings": [[...]]}。
type Client struct {
	url        string
	urlErr     error
	model      string
	batchSize  int
	dimension  int
	httpClient *http.Client
}

var _ embedding.Embedder = (*Client)(nil)

type embedRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	TokensUsed int         `json:"tokens_used"`
}

// NewClient 创建 HTTP 客户端。endpoint 无路径时补 /embed，非法 endpoint 在首次调用时报错
func NewClient(cfg *config.EmbeddingConfig) *Client {
	c := &Client{
		model:      cmp.Or(cfg.Model, defaultHTTPModel),
		batchSize:  cfg.BatchSize,
		dimension:  cfg.Dimension,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	if c.batchSize <= 0 {
		c.batchSize = defaultBatchSize
	}
	if c.httpClient.Timeout <= 0 {
		c.httpClient.Timeout = defaultHTTPTimeout
	}
	c.url, c.urlErr = resolveEndpoint(cfg.Endpoint)
	return c
}

func resolveEndpoint(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", errors.New("embedding endpoint is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid embedding endpoint: %w", err)
	}
	if u.Path == "" {
		u.Path = "/embed"
	}
	return u.String(), nil
}

// EmbedStrings 按 batchSize 分批请求，返回顺序与输入一致
func (c *Client) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if c.urlErr != nil {
		return nil, c.urlErr
	}
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	ctx, span := tracer.Start(ctx, "embedding.EmbedStrings")
	defer span.End()
	span.SetAttributes(
		attribute.String("embedding.model", c.model),
		attribute.Int("embedding.texts", len(texts)),
	)

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		batch := texts[start:min(start+c.batchSize, len(texts))]
		vecs, err := c.post(ctx, batch)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, batch []string) ([][]float64, error) {
	body, err := json.Marshal(embedRequest{Texts: batch, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySnippetSize))
		return nil, fmt.Errorf("embedding request failed: status=%d body=%q", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(decoded.Embeddings) != len(batch) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(decoded.Embeddings), len(batch))
	}
	if c.dimension > 0 {
		for i, v := range decoded.Embeddings {
			if len(v) != c.dimension {
				return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), c.dimension)
			}
		}
	}
	return decoded.Embeddings, nil
}

