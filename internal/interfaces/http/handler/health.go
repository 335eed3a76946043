// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// IndexReadiness 索引是否已加载快照
type IndexReadiness interface {
	Ready() bool
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	index   IndexReadiness
	checks  map[string]HealthChecker
	version string
}

// NewHealthHandler 创建健康检查处理器，checks 为就绪检查需要探测的存储
func NewHealthHandler(index IndexReadiness, checks map[string]HealthChecker, version string) *HealthHandler {
	return &HealthHandler{index: index, checks: checks, version: version}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: h.version})
}

// Ready 就绪检查接口：需要已加载的索引快照且所有存储可达
// @Summary 就绪检查
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]*readinessCheck, len(h.checks)+1)
	ready := true

	if h.index != nil && h.index.Ready() {
		checks["index"] = &readinessCheck{Status: "ok"}
	} else {
		checks["index"] = &readinessCheck{Status: "not_loaded"}
		ready = false
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		chk := &readinessCheck{Status: "ok"}
		start := time.Now()
		if err := h.checks[name].HealthCheck(ctx); err != nil {
			chk.Status = "error"
			chk.Error = err.Error()
			ready = false
		}
		chk.LatencyMs = time.Since(start).Milliseconds()
		checks[name] = chk
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
