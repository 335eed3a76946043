// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"video-rag-api/internal/interfaces/http/middleware"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h *Handlers, rateLimit, admin gin.HandlerFunc) {
	// 查询
	if h.Query != nil {
		v1.POST("/find_best_match", middleware.QueryRecovery(), rateLimit, h.Query.FindBestMatch)
	}

	// 入库任务
	if h.Ingest != nil {
		ingest := v1.Group("/ingest", admin)
		{
			ingest.POST("", h.Ingest.Submit)
			ingest.GET("/jobs", h.Ingest.ListJobs)
			ingest.GET("/jobs/:id", h.Ingest.GetJob)
		}
	}

	// 索引管理
	if h.Index != nil {
		index := v1.Group("/index")
		{
			index.GET("/stats", h.Index.Stats)
			index.POST("/reload", admin, h.Index.Reload)
		}
	}
}
