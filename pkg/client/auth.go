package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

// Login 管理员登录
// 登录成功且响应带令牌时，按固定有效期保存令牌，忽略后端给出的过期时间
// 参数: ctx 上下文, creds 登录凭证
// 返回值: *model.APIResponse 后端响应
func (c *apiClient) Login(ctx context.Context, creds model.LoginRequest) *model.APIResponse {
	body, err := json.Marshal(creds)
	if err != nil {
		return model.Failure(fmt.Sprintf("failed to encode credentials: %v", err), 0)
	}

	resp := c.Request(ctx, "/admin/login", RequestOptions{
		Method: http.MethodPost,
		Body:   bytes.NewReader(body),
	})
	if !resp.Success {
		c.logger.Warn("Admin login failed", zap.String("email", creds.Email), zap.String("message", resp.Message))
		return resp
	}

	var data model.LoginData
	if err := resp.DecodeData(&data); err != nil || data.Token == "" {
		c.logger.Error("Login response carries no token", zap.String("email", creds.Email))
		return &model.APIResponse{
			Success: false,
			Message: "Login response did not include a token",
			Error:   ErrNoToken.Error(),
		}
	}

	email := data.Email
	if email == "" {
		email = creds.Email
	}
	token := &model.AuthToken{
		Token:     data.Token,
		AdminID:   model.Stringify(data.ID),
		Email:     email,
		ExpiresAt: c.now().Add(c.config.TokenTTL).UnixMilli(),
	}
	if err := c.tokenStore(ctx).Set(ctx, token); err != nil {
		c.logger.Error("Failed to persist admin token", zap.Error(err))
		return &model.APIResponse{Success: false, Message: "Failed to persist admin token", Error: err.Error()}
	}

	c.logger.Info("Admin logged in", zap.String("email", email), zap.Time("expires_at", token.Expiry()))
	return resp
}

// Logout 退出登录
// 先尽力通知后端，再无条件清除本地令牌
// 返回值: error 仅在清除本地令牌失败时返回
func (c *apiClient) Logout(ctx context.Context) error {
	if c.IsAuthenticated(ctx) {
		resp := c.Request(ctx, "/admin/logout", RequestOptions{Method: http.MethodPost})
		if !resp.Success {
			c.logger.Debug("Backend logout failed", zap.String("message", resp.Message))
		}
	}
	if err := c.tokenStore(ctx).Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear admin token: %w", err)
	}
	c.logger.Info("Admin logged out")
	return nil
}

// IsAuthenticated 判断令牌是否存在且未过期
func (c *apiClient) IsAuthenticated(ctx context.Context) bool {
	token, err := c.tokenStore(ctx).Get(ctx)
	if err != nil {
		return false
	}
	return token.Valid(c.now())
}

// Session 返回当前会话，损坏或过期的令牌会被清除
func (c *apiClient) Session(ctx context.Context) model.Session {
	token, err := c.tokenStore(ctx).Get(ctx)
	if err != nil {
		c.logger.Warn("Discarding unreadable admin token", zap.Error(err))
		_ = c.tokenStore(ctx).Clear(ctx)
		return model.Session{}
	}
	if token == nil {
		return model.Session{}
	}
	if !token.Valid(c.now()) {
		_ = c.tokenStore(ctx).Clear(ctx)
		return model.Session{}
	}
	return model.Session{
		Authenticated: true,
		AdminID:       token.AdminID,
		Email:         token.Email,
		ExpiresAt:     token.Expiry(),
	}
}
