package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"video-rag-api/internal/application/retrieval"
	"video-rag-api/internal/interfaces/http/dto"
	apperrors "video-rag-api/pkg/errors"
)

// IndexManager 索引重载与统计，由 *retrieval.Index 实现
type IndexManager interface {
	Load(ctx context.Context) error
	Stats() retrieval.IndexStats
}

// IndexHandler 索引管理处理器
type IndexHandler struct {
	index IndexManager
}

// NewIndexHandler 创建索引管理处理器
func NewIndexHandler(index IndexManager) *IndexHandler {
	return &IndexHandler{index: index}
}

// Reload 重建快照，失败时保留旧快照
// @Summary 重载索引
// @Tags Index
// @Produce json
// @Success 200 {object} dto.Response[dto.IndexStatsResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/index/reload [post]
func (h *IndexHandler) Reload(c *gin.Context) {
	if err := h.index.Load(c.Request.Context()); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.CodeIndexLoad, "index reload failed"), "index reload failed")
		return
	}
	dto.Success(c, dto.ToIndexStatsResponse(h.index.Stats()))
}

// Stats 当前快照统计
// @Summary 索引统计
// @Tags Index
// @Produce json
// @Success 200 {object} dto.Response[dto.IndexStatsResponse]
// @Router /v1/index/stats [get]
func (h *IndexHandler) Stats(c *gin.Context) {
	dto.Success(c, dto.ToIndexStatsResponse(h.index.Stats()))
}
