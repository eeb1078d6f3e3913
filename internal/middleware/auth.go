// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"interviewiq-go/internal/model"
	"interviewiq-go/internal/service"
	"interviewiq-go/pkg/log"
	"interviewiq-go/pkg/token"

	"github.com/gin-gonic/gin"
)

const (
	// ContextUserKey 是认证成功后 *model.User 在 gin 上下文中的键。
	ContextUserKey = "user"
	// ContextClaimsKey 是认证成功后 *token.CustomClaims 在 gin 上下文中的键。
	ContextClaimsKey = "claims"
)

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 access token，验证其有效性和黑名单状态，并将完整的 User 对象存入上下文。
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "请求未包含授权头")
			return
		}
		if !authenticate(c, authHeader, jwtManager, userService) {
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware 在请求携带授权头时执行认证，未携带时以匿名身份继续。
// 授权头存在但无效时仍然拒绝请求。
func OptionalAuthMiddleware(jwtManager *token.JWTManager, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		if !authenticate(c, authHeader, jwtManager, userService) {
			return
		}
		c.Next()
	}
}

// ResolveUser 验证 token 字符串并返回对应的用户，供无法使用请求头的 WebSocket 连接使用。
func ResolveUser(c *gin.Context, tokenString string, jwtManager *token.JWTManager, userService service.UserService) (*model.User, bool) {
	claims, err := jwtManager.VerifyTokenType(tokenString, token.TypeAccess)
	if err != nil {
		return nil, false
	}
	if userService.IsTokenRevoked(c.Request.Context(), claims) {
		return nil, false
	}
	user, err := userService.GetProfile(claims.Username)
	if err != nil {
		return nil, false
	}
	c.Set(ContextUserKey, user)
	c.Set(ContextClaimsKey, claims)
	return user, true
}

// CurrentUser 返回认证中间件注入的用户，匿名请求返回 nil。
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

func authenticate(c *gin.Context, authHeader string, jwtManager *token.JWTManager, userService service.UserService) bool {
	// Token 以 "Bearer <token>" 的形式提供
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		abortUnauthorized(c, "无效的授权头格式")
		return false
	}
	tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

	if _, ok := ResolveUser(c, tokenString, jwtManager, userService); !ok {
		log.Warnf("[Auth] token 校验失败, path: %s", c.Request.URL.Path)
		abortUnauthorized(c, "无效或已过期的 token")
		return false
	}
	return true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}
