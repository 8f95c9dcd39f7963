package middleware

import (
	"context"
	"net/http"
	"strings"

	"sfu-globe/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextUserID = "userID"
	ContextUser   = "user"
)

// Authenticator 由 service.AuthService 实现
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Profile, error)
}

// 验证JWT中间件，只接受 Authorization 头
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return authenticate(auth, false)
}

// WebSocketAuthMiddleware 浏览器的 websocket 握手不能带 header，额外接受 ?token=。只用于 /api/realtime
func WebSocketAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return authenticate(auth, true)
}

func authenticate(auth Authenticator, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c, allowQuery)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil || user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		// 将用户ID存储在上下文中
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)

		c.Next()
	}
}

func bearerToken(c *gin.Context, allowQuery bool) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if !allowQuery {
			return "", false
		}
		token := c.Query("token")
		return token, token != ""
	}

	// 通常Authorization格式为: "Bearer token"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// UserID 取出 AuthMiddleware 设置的用户ID
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
