package middleware

import (
	"net/http"
	"strings"

	"video-rag-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader 响应中回写的 trace ID 头
const TraceIDHeader = "X-Trace-ID"

// 探活与指标抓取不产生 span
var untracedPaths = []string{"/health", "/ready", "/live", "/metrics"}

// Trace 基于 otelgin 创建服务端 span
func Trace(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		for _, p := range untracedPaths {
			if strings.HasPrefix(r.URL.Path, p) {
				return false
			}
		}
		return true
	}))
}

// TraceContext 把当前 span 的 trace/span ID 放入日志上下文并回写响应头，需位于 Trace 之后
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := trace.SpanContextFromContext(c.Request.Context())
		if !sc.IsValid() {
			c.Next()
			return
		}

		traceID, spanID := sc.TraceID().String(), sc.SpanID().String()
		c.Set("trace_id", traceID)
		c.Header(TraceIDHeader, traceID)

		ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(logger.WithContext(ctx, logger.SpanIDKey, spanID))
		c.Next()
	}
}
