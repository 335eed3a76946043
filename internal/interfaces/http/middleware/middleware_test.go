package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type countingLimiter struct {
	counts map[string]int
	err    error
	limit  int
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.limit = limit
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

func serve(r *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	lim := &countingLimiter{counts: map[string]int{}}
	r := gin.New()
	r.POST("/q", RateLimit(RateLimitConfig{Enabled: true, RequestsPerSecond: 2, Burst: 1}, lim), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/q", nil).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/q", nil).Code)
	assert.Equal(t, 3, lim.limit)
	assert.Contains(t, lim.counts, "ratelimit:/q:192.0.2.1")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	lim := &countingLimiter{err: errors.New("redis down")}
	r := gin.New()
	r.POST("/q", RateLimit(RateLimitConfig{Enabled: true, RequestsPerSecond: 1}, lim), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/q", nil).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	r := gin.New()
	r.GET("/q", RateLimit(RateLimitConfig{}, nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/q", nil).Code)
}

func TestAdminToken(t *testing.T) {
	r := gin.New()
	r.POST("/reload", AdminToken("s3cret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/reload", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/reload", map[string]string{AdminTokenHeader: "nope"}).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/reload", map[string]string{AdminTokenHeader: "s3cret"}).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/reload", map[string]string{"Authorization": "Bearer s3cret"}).Code)

	open := gin.New()
	open.POST("/reload", AdminToken(""), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(open, http.MethodPost, "/reload", nil).Code)
}

func TestRequestIDAndRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), RequestID())
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := serve(r, http.MethodGet, "/ok", map[string]string{RequestIDHeader: "req-42"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	w = serve(r, http.MethodGet, "/ok", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = serve(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestQueryRecovery_UsesDetailBody(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.POST("/query", QueryRecovery(), func(c *gin.Context) { panic("kaboom") })
	r.GET("/other", func(c *gin.Context) { panic("kaboom") })

	w := serve(r, http.MethodPost, "/query", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"An error occurred"}`, w.Body.String())

	w = serve(r, http.MethodGet, "/other", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), `"detail"`)
}

func TestTimeout_SetsDeadline(t *testing.T) {
	r := gin.New()
	r.GET("/t", Timeout(time.Second), func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/t", nil).Code)
}

func TestRequestID_RejectsMalformedHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/ok", map[string]string{RequestIDHeader: "bad id\nwith newline"})
	got := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, got)
	assert.NotContains(t, got, " ")
}

func TestCORS_WildcardDisablesCredentials(t *testing.T) {
	r := gin.New()
	r.Use(CORS(CORSConfig{}))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/ok", map[string]string{"Origin": "http://example.com"})
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))

	strict := gin.New()
	strict.Use(CORS(CORSConfig{AllowedOrigins: []string{"http://example.com"}}))
	strict.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = serve(strict, http.MethodGet, "/ok", map[string]string{"Origin": "http://example.com"})
	assert.Equal(t, "http://example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouteLabel_Unmatched(t *testing.T) {
	r := gin.New()
	var label string
	r.Use(func(c *gin.Context) {
		label = routeLabel(c)
		c.Next()
	}, Metrics("/metrics"))
	r.GET("/jobs/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/jobs/abc", nil)
	assert.Equal(t, "/jobs/:id", label)

	serve(r, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, unmatchedRoute, label)
}
