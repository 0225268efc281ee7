package module

import (
	"context"
	"fmt"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vera-byte/vgo-ngo-admin/internal/config"
	"github.com/vera-byte/vgo-ngo-admin/pkg/client"
)

// BaseModule 基础模块接口
// 所有模块都必须实现此接口
type BaseModule interface {
	// Name 获取模块名称
	// 返回值: string 模块名称
	Name() string

	// Version 获取模块版本
	// 返回值: string 模块版本
	Version() string

	// Description 获取模块描述
	// 返回值: string 模块描述
	Description() string

	// Initialize 初始化模块
	// 参数: ctx 上下文, config 模块配置, logger 日志器
	// 返回值: error 错误信息
	Initialize(ctx context.Context, config map[string]interface{}, logger *zap.Logger) error

	// RegisterRoutes 注册模块路由
	// 参数: router gin路由组, logger 日志器
	// 返回值: error 错误信息
	RegisterRoutes(router *gin.RouterGroup, logger *zap.Logger) error

	// HealthCheck 健康检查
	// 参数: ctx 上下文
	// 返回值: error 错误信息
	HealthCheck(ctx context.Context) error

	// Shutdown 关闭模块
	// 参数: ctx 上下文
	// 返回值: error 错误信息
	Shutdown(ctx context.Context) error
}

// Dependencies 模块共享的依赖
type Dependencies struct {
	// Client 后端API客户端，管理员令牌由请求上下文提供
	Client client.Client
	// Sessions 按调用方令牌保存的管理员会话
	Sessions client.SessionStores
	// Public 不携带令牌的客户端，为空时使用 Client
	Public client.Client
	// Views 视图配置管理器
	Views *config.ViewConfigManager
	// Config 应用配置
	Config *config.Config
}

// Validate 检查必需的依赖
func (d Dependencies) Validate() error {
	if d.Client == nil {
		return fmt.Errorf("module dependencies: api client is required")
	}
	return nil
}

// PublicClient 返回公开接口使用的客户端
func (d Dependencies) PublicClient() client.Client {
	if d.Public != nil {
		return d.Public
	}
	return d.Client
}

// ModuleFactory 模块工厂接口
// 用于创建模块实例
type ModuleFactory interface {
	// CreateModule 创建模块实例
	// 参数: deps 共享依赖
	// 返回值: BaseModule 模块实例, error 错误信息
	CreateModule(deps Dependencies) (BaseModule, error)

	// ModuleType 获取模块类型
	// 返回值: string 模块类型
	ModuleType() string
}

// ModuleRegistry 模块注册表
// 用于注册和管理模块工厂
type ModuleRegistry struct {
	factories map[string]ModuleFactory
	logger    *zap.Logger
}

// NewModuleRegistry 创建新的模块注册表
// 参数: logger 日志器
// 返回值: *ModuleRegistry 注册表实例
func NewModuleRegistry(logger *zap.Logger) *ModuleRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleRegistry{
		factories: make(map[string]ModuleFactory),
		logger:    logger,
	}
}

// RegisterFactory 注册模块工厂
// 参数: factory 模块工厂
// 返回值: error 错误信息
func (r *ModuleRegistry) RegisterFactory(factory ModuleFactory) error {
	moduleType := factory.ModuleType()
	if _, exists := r.factories[moduleType]; exists {
		return fmt.Errorf("module factory %s already registered", moduleType)
	}

	r.factories[moduleType] = factory
	r.logger.Info("Module factory registered", zap.String("type", moduleType))
	return nil
}

// CreateModule 创建模块实例
// 参数: moduleType 模块类型, deps 共享依赖
// 返回值: BaseModule 模块实例, error 错误信息
func (r *ModuleRegistry) CreateModule(moduleType string, deps Dependencies) (BaseModule, error) {
	factory, exists := r.factories[moduleType]
	if !exists {
		return nil, fmt.Errorf("module factory %s not found", moduleType)
	}

	return factory.CreateModule(deps)
}

// ListFactories 列出所有注册的工厂，按类型排序
// 返回值: []string 工厂类型列表
func (r *ModuleRegistry) ListFactories() []string {
	types := make([]string, 0, len(r.factories))
	for moduleType := range r.factories {
		types = append(types, moduleType)
	}
	sort.Strings(types)
	return types
}

// Populate 为每个已注册的工厂创建模块并交给管理器
// 参数: manager 模块管理器, deps 共享依赖
// 返回值: error 错误信息
func (r *ModuleRegistry) Populate(manager *Manager, deps Dependencies) error {
	for _, moduleType := range r.ListFactories() {
		mod, err := r.CreateModule(moduleType, deps)
		if err != nil {
			return fmt.Errorf("failed to create module %s: %w", moduleType, err)
		}
		if err := manager.RegisterModule(moduleType, mod); err != nil {
			return err
		}
	}
	return nil
}
