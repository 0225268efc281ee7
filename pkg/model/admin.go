package model

import "time"

// LoginRequest 管理员登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginData 登录成功后后端返回的数据
type LoginData struct {
	Token string `json:"token"`
	ID    any    `json:"id"`
	Email string `json:"email"`
}

// AuthToken 持久化的管理员令牌
// ExpiresAt 为毫秒时间戳
type AuthToken struct {
	Token     string `json:"token"`
	AdminID   string `json:"adminId"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Valid 判断令牌在给定时间是否仍有效
// 参数: now 当前时间
// 返回值: bool 是否有效
func (t *AuthToken) Valid(now time.Time) bool {
	return t != nil && t.Token != "" && t.ExpiresAt > now.UnixMilli()
}

// Expiry 返回过期时间
func (t *AuthToken) Expiry() time.Time {
	return time.UnixMilli(t.ExpiresAt)
}

// Session 当前管理员会话信息
type Session struct {
	Authenticated bool      `json:"authenticated"`
	AdminID       string    `json:"adminId,omitempty"`
	Email         string    `json:"email,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt,omitempty"`
}

// DashboardStats 仪表盘统计
type DashboardStats struct {
	Campaigns              int `json:"campaigns"`
	Events                 int `json:"events"`
	VolunteerOpportunities int `json:"volunteerOpportunities"`
	Careers                int `json:"careers"`
	Donations              int `json:"donations"`
	ContactForms           int `json:"contactForms"`
}
