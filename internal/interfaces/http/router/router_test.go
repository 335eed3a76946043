package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"video-rag-api/internal/application/retrieval"
	"video-rag-api/internal/config"
	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/interfaces/http/handler"
)

type fixedMatcher struct{}

func (fixedMatcher) FindBestMatch(context.Context, string) (*entity.Answer, error) {
	return &entity.Answer{VideoID: "v", Timestamp: "00:00:50", URLWithTimestamp: "https://www.youtube.com/watch?v=v&t=0m50s"}, nil
}

type fixedIndex struct{}

func (fixedIndex) Load(context.Context) error  { return nil }
func (fixedIndex) Stats() retrieval.IndexStats { return retrieval.IndexStats{Loaded: true} }
func (fixedIndex) Ready() bool                 { return true }

func newTestRouter() *gin.Engine {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.Security.AdminToken = "tok"
	cfg.Observability.Metrics.Enabled = true

	return New(cfg, &Handlers{
		Health: handler.NewHealthHandler(fixedIndex{}, nil, "test"),
		Query:  handler.NewQueryHandler(fixedMatcher{}),
		Index:  handler.NewIndexHandler(fixedIndex{}),
	}, nil).Engine()
}

func TestRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newTestRouter()

	tests := []struct {
		method, path, body string
		header             map[string]string
		want               int
	}{
		{http.MethodGet, "/health", "", nil, http.StatusOK},
		{http.MethodGet, "/ready", "", nil, http.StatusOK},
		{http.MethodGet, "/metrics", "", nil, http.StatusOK},
		{http.MethodPost, "/v1/find_best_match", `{"text":"topic X"}`, nil, http.StatusOK},
		{http.MethodGet, "/v1/index/stats", "", nil, http.StatusOK},
		{http.MethodPost, "/v1/index/reload", "", nil, http.StatusUnauthorized},
		{http.MethodPost, "/v1/index/reload", "", map[string]string{"X-Admin-Token": "tok"}, http.StatusOK},
		{http.MethodPost, "/v1/ingest", `{}`, nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

type panickingMatcher struct{}

func (panickingMatcher) FindBestMatch(context.Context, string) (*entity.Answer, error) {
	panic("matcher exploded")
}

func TestFindBestMatch_PanicKeepsDetailBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.App.Env = "test"
	r := New(cfg, &Handlers{Query: handler.NewQueryHandler(panickingMatcher{})}, nil).Engine()

	req := httptest.NewRequest(http.MethodPost, "/v1/find_best_match", strings.NewReader(`{"text":"topic X"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"An error occurred"}`, w.Body.String())
}
