// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"resume-smart-go/internal/service"
	"resume-smart-go/pkg/log"
	"resume-smart-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// 上下文中存放认证信息使用的 key。
const (
	ContextUserKey   = "user"
	ContextClaimsKey = "claims"
	ContextTokenKey  = "token"
)

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 token，验证其有效性与黑名单状态，并将完整的 User 对象存入 Gin 的上下文中。
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		// Token 以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := jwtManager.VerifyToken(tokenString, token.KindAccess)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		revoked, err := userService.IsTokenRevoked(c.Request.Context(), tokenString)
		if err != nil {
			log.Errorf("[AuthMiddleware] 查询 token 黑名单失败: %v", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"code":    http.StatusServiceUnavailable,
				"message": "session store unavailable",
			})
			return
		}
		if revoked {
			abortUnauthorized(c, "token has been revoked")
			return
		}

		// 使用 claims 中的 user_id 获取完整的用户信息，用户可能已被删除
		user, err := userService.GetProfile(c.Request.Context(), claims.UserID)
		if err != nil {
			abortUnauthorized(c, "user not found")
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextClaimsKey, claims)
		c.Set(ContextTokenKey, tokenString)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}
