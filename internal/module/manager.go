package module

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// entry 已注册模块及其启用状态
type entry struct {
	name    string
	module  Module
	enabled bool
}

// Manager 按名称顺序持有模块，负责初始化、挂载路由、健康检查和关闭
type Manager struct {
	entries []*entry
	logger  *zap.Logger
	mu      sync.RWMutex
}

// NewManager 创建模块管理器，logger 为空时不输出日志
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger}
}

// RegisterModule 注册模块，名称重复时返回错误
// 模块按名称排序保存，路由挂载和信息输出的顺序因此稳定
func (m *Manager) RegisterModule(name string, module Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].name >= name })
	if i < len(m.entries) && m.entries[i].name == name {
		return fmt.Errorf("module %s already registered", name)
	}
	m.entries = append(m.entries, nil)
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = &entry{name: name, module: module, enabled: true}

	m.logger.Debug("Module registered", zap.String("name", name))
	return nil
}

// InitializeAll 用各模块的配置段初始化模块
// configs 以模块名为键，enabled 为 false 的模块不初始化也不挂载路由
func (m *Manager) InitializeAll(ctx context.Context, configs map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		cfg := parseModuleConfig(configs[e.name])
		e.enabled = cfg.Enabled
		if !e.enabled {
			m.logger.Info("Module disabled", zap.String("name", e.name))
			continue
		}
		if err := e.module.Initialize(ctx, cfg.Config, m.logger.Named(e.name)); err != nil {
			return fmt.Errorf("failed to initialize module %s: %w", e.name, err)
		}
		m.logger.Info("Module initialized", zap.String("name", e.name))
	}
	return nil
}

// RegisterRoutes 把启用的模块挂载到 /<模块名> 下
func (m *Manager) RegisterRoutes(router *gin.RouterGroup, logger *zap.Logger) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.enabled() {
		if err := e.module.RegisterRoutes(router.Group("/"+e.name), logger); err != nil {
			return fmt.Errorf("failed to register routes for module %s: %w", e.name, err)
		}
		logger.Info("Module routes registered", zap.String("name", e.name))
	}
	return nil
}

// enabled 调用方需持有锁
func (m *Manager) enabled() []*entry {
	out := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.enabled {
			out = append(out, e)
		}
	}
	return out
}

// ListModules 返回全部模块，包括已关闭的
func (m *Manager) ListModules() []ModuleInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]ModuleInfo, len(m.entries))
	for i, e := range m.entries {
		infos[i] = ModuleInfo{
			Name:        e.name,
			Version:     e.module.Version(),
			Description: e.module.Description(),
			Enabled:     e.enabled,
		}
	}
	return infos
}

// HealthCheck 只检查启用的模块
func (m *Manager) HealthCheck(ctx context.Context) map[string]error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health := make(map[string]error, len(m.entries))
	for _, e := range m.enabled() {
		health[e.name] = e.module.HealthCheck(ctx)
	}
	return health
}

// ShutdownAll 按名称逆序关闭模块，单个模块失败不影响其余模块
func (m *Manager) ShutdownAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if err := e.module.Shutdown(ctx); err != nil {
			m.logger.Error("Failed to shutdown module", zap.String("name", e.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("module %s: %w", e.name, err))
			continue
		}
		m.logger.Info("Module shutdown", zap.String("name", e.name))
	}
	return errors.Join(errs...)
}
