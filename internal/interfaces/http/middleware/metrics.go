package middleware

import (
	"strconv"
	"time"

	"video-rag-api/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// unmatchedRoute 未命中路由的统一标签，防止任意路径撑爆指标基数
const unmatchedRoute = "unmatched"

// Metrics 采集 HTTP 请求量、耗时与响应大小，skip 中的路由（如 /metrics 自身）不计入
func Metrics(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		route := routeLabel(c)
		if _, ok := skipped[route]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		method := c.Request.Method
		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size > 0 {
			metrics.HTTPResponseSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}

func routeLabel(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return unmatchedRoute
}
