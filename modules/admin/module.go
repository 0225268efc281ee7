// Package admin 管理后台的HTTP接口
package admin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vera-byte/vgo-ngo-admin/internal/config"
	"github.com/vera-byte/vgo-ngo-admin/internal/middleware"
	"github.com/vera-byte/vgo-ngo-admin/internal/module"
	"github.com/vera-byte/vgo-ngo-admin/internal/views"
	"github.com/vera-byte/vgo-ngo-admin/pkg/client"
	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

// AdminModule 管理后台模块
type AdminModule struct {
	client   client.Client
	service  *client.Service
	sessions client.SessionStores
	views    *config.ViewConfigManager
	logger   *zap.Logger
}

// NewAdminModule 创建管理后台模块
// 参数: deps 共享依赖
// 返回值: *AdminModule 模块实例
func NewAdminModule(deps module.Dependencies) *AdminModule {
	sessions := deps.Sessions
	if sessions == nil {
		sessions = client.NewMemorySessionStores()
	}
	return &AdminModule{
		client:   deps.Client,
		service:  client.NewAdminService(deps.Client),
		sessions: sessions,
		views:    deps.Views,
		logger:   zap.NewNop(),
	}
}

// Name 获取模块名称
func (m *AdminModule) Name() string { return "admin" }

// Version 获取模块版本
func (m *AdminModule) Version() string { return "1.0.0" }

// Description 获取模块描述
func (m *AdminModule) Description() string {
	return "Admin session, dashboard stats and resource management"
}

// Initialize 初始化模块，预先载入每个资源的视图配置
// 参数: ctx 上下文, cfg 模块配置, logger 日志器
// 返回值: error 错误信息
func (m *AdminModule) Initialize(ctx context.Context, cfg map[string]interface{}, logger *zap.Logger) error {
	if logger != nil {
		m.logger = logger
	}
	if m.views == nil {
		return nil
	}
	for _, name := range views.Names() {
		if _, err := m.views.LoadConfig(name); err != nil {
			return fmt.Errorf("failed to load view config for %s: %w", name, err)
		}
	}
	m.logger.Info("Admin module initialized", zap.Int("views", len(views.Names())))
	return nil
}

// RegisterRoutes 注册模块路由
// 参数: router gin路由组, logger 日志器
// 返回值: error 错误信息
func (m *AdminModule) RegisterRoutes(router *gin.RouterGroup, logger *zap.Logger) error {
	router.POST("/login", m.login)
	router.GET("/session", m.session)

	secured := router.Group("", middleware.RequireSession(m.client, m.sessions))
	secured.POST("/logout", m.logout)
	secured.GET("/stats", m.stats)
	secured.GET("/views", m.listViews)
	secured.GET("/views/:resource", m.getView)
	secured.PUT("/views/:resource", m.updateView)

	secured.GET("/:resource", m.list)
	secured.POST("/:resource", m.create)
	secured.GET("/:resource/:id", m.get)
	secured.PUT("/:resource/:id", m.update)
	secured.DELETE("/:resource/:id", m.remove)
	secured.PATCH("/:resource/:id/status", m.setStatus)
	secured.POST("/:resource/:id/actions/:action", m.action)

	logger.Info("Admin module routes registered")
	return nil
}

// HealthCheck 健康检查
func (m *AdminModule) HealthCheck(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("admin module has no api client")
	}
	return nil
}

// Shutdown 关闭模块
func (m *AdminModule) Shutdown(ctx context.Context) error {
	m.logger.Info("Admin module shutting down")
	return nil
}

// respond 按统一响应的结果选择HTTP状态码
func respond(c *gin.Context, resp *model.APIResponse) {
	c.JSON(statusOf(resp), resp)
}

func statusOf(resp *model.APIResponse) int {
	switch {
	case resp.Success:
		return http.StatusOK
	case resp.Status >= 400:
		return resp.Status
	default:
		// 传输失败或响应无法解析
		return http.StatusBadGateway
	}
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, model.Failure(message, status))
}
