// Package middleware 提供 HTTP 中间件
package middleware

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"video-rag-api/internal/interfaces/http/dto"
	apperrors "video-rag-api/pkg/errors"
	"video-rag-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery 捕获 handler panic，记录堆栈后统一返回 500。
// gin 自带的堆栈输出丢弃，只保留结构化日志。
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logPanic(c, recovered)
		dto.InternalError(c, "internal server error")
		c.Abort()
	})
}

// QueryRecovery 查询路由专用，panic 时与其他失败一样返回固定的 detail 响应
func QueryRecovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logPanic(c, recovered)
		dto.Detail(c, http.StatusInternalServerError, apperrors.ErrQueryFailed.Message)
		c.Abort()
	})
}

func logPanic(c *gin.Context, recovered any) {
	logger.Error(c.Request.Context(), "panic recovered",
		fmt.Errorf("%v", recovered),
		"method", c.Request.Method,
		"route", routeLabel(c),
		"stack", string(debug.Stack()),
	)
}
