package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vera-byte/vgo-ngo-admin/pkg/client"
	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

// SessionKey 上下文中保存会话的键
const SessionKey = "session"

// BearerToken 读取 Authorization: Bearer <token>，格式不符时返回空串
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// SessionContext 将调用方令牌对应的会话存储绑定到请求上下文
// 没有令牌时绑定空存储，避免落回客户端的默认存储
// 参数: c 请求上下文, sessions 会话存储
// 返回值: context.Context 绑定后的上下文, bool 是否携带令牌
func SessionContext(c *gin.Context, sessions client.SessionStores) (context.Context, bool) {
	token := BearerToken(c)
	if token == "" {
		return client.ContextWithTokenStore(c.Request.Context(), client.NopTokenStore{}), false
	}
	store := sessions.For(client.SessionKey(token))
	return client.ContextWithTokenStore(c.Request.Context(), store), true
}

// RequireSession 管理员会话中间件
// 会话按调用方的Bearer令牌查找，通过后后续请求都以该令牌访问后端
// 参数: apiClient 后端客户端, sessions 会话存储
// 返回值: gin.HandlerFunc 中间件函数
func RequireSession(apiClient client.Client, sessions client.SessionStores) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := SessionContext(c, sessions)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				model.Failure("Missing authorization header", http.StatusUnauthorized))
			return
		}

		session := apiClient.Session(ctx)
		if !session.Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				model.Failure("Not authenticated", http.StatusUnauthorized))
			return
		}

		// 将会话信息存储到上下文中
		c.Request = c.Request.WithContext(ctx)
		c.Set(SessionKey, session)
		c.Next()
	}
}

// CurrentSession 读取中间件写入的会话
func CurrentSession(c *gin.Context) (model.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return model.Session{}, false
	}
	session, ok := v.(model.Session)
	return session, ok
}
