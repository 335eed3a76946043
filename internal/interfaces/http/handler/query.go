package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"video-rag-api/internal/domain/entity"
	"video-rag-api/internal/interfaces/http/dto"
	apperrors "video-rag-api/pkg/errors"
	"video-rag-api/pkg/logger"
)

// Matcher 查询能力，由 retrieval.QueryService 实现
type Matcher interface {
	FindBestMatch(ctx context.Context, query string) (*entity.Answer, error)
}

// QueryHandler 查询处理器
type QueryHandler struct {
	matcher Matcher
}

// NewQueryHandler 创建查询处理器
func NewQueryHandler(matcher Matcher) *QueryHandler {
	return &QueryHandler{matcher: matcher}
}

// FindBestMatch 返回与文本最匹配的视频与时间点。
// 任何失败都返回同一个 500，具体原因只写日志。
// @Summary 查找最匹配的视频片段
// @Tags Query
// @Accept json
// @Produce json
// @Param body body dto.FindBestMatchRequest true "查询文本"
// @Success 200 {object} dto.FindBestMatchResponse
// @Failure 500 {object} dto.DetailResponse
// @Router /v1/find_best_match [post]
func (h *QueryHandler) FindBestMatch(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.FindBestMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn(ctx, "invalid find_best_match body", "error", err.Error())
		dto.Detail(c, http.StatusInternalServerError, apperrors.ErrQueryFailed.Message)
		return
	}

	ans, err := h.matcher.FindBestMatch(ctx, req.Text)
	if err != nil {
		logger.Error(ctx, "find_best_match failed", err)
		dto.Detail(c, http.StatusInternalServerError, apperrors.ErrQueryFailed.Message)
		return
	}

	c.JSON(http.StatusOK, dto.ToFindBestMatchResponse(ans))
}
