package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"video-rag-api/internal/interfaces/http/dto"
	apperrors "video-rag-api/pkg/errors"
	"video-rag-api/pkg/logger"
)

// HealthChecker 可探活的外部依赖
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// respondError 按 AppError 映射状态码，其它错误记录日志后返回 500
func respondError(c *gin.Context, err error, msg string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus >= 500 {
			logger.Error(c.Request.Context(), msg, err)
		}
		dto.ErrorWithCode(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message)
		return
	}
	logger.Error(c.Request.Context(), msg, err)
	dto.InternalError(c, msg)
}
