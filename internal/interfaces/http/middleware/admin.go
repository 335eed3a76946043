package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"video-rag-api/internal/interfaces/http/dto"
)

// AdminTokenHeader 管理接口令牌头，也接受 Authorization: Bearer <token>
const AdminTokenHeader = "X-Admin-Token"

// AdminToken 校验管理令牌，token 为空时不校验
func AdminToken(token string) gin.HandlerFunc {
	if token == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		got := c.GetHeader(AdminTokenHeader)
		if got == "" {
			got = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			dto.Unauthorized(c, "invalid admin token")
			c.Abort()
			return
		}
		c.Next()
	}
}
