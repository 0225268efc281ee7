package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// ViewConfig 单个资源列表视图的配置
type ViewConfig struct {
	// Resource 资源名称
	Resource string `json:"resource"`

	// Enabled 是否在后台中开放
	Enabled bool `json:"enabled"`

	// Title 列表标题，为空时使用内置标题
	Title string `json:"title,omitempty"`

	// ItemsPerPage 每页条数
	ItemsPerPage int `json:"items_per_page"`

	// Columns 展示的列及顺序，为空时展示全部
	Columns []string `json:"columns,omitempty"`

	// DefaultFilters 打开列表时预置的过滤条件
	DefaultFilters map[string]string `json:"default_filters,omitempty"`
}

// ViewConfigManager 视图配置管理器
type ViewConfigManager struct {
	// configDir 配置文件目录
	configDir string

	// itemsPerPage 默认每页条数
	itemsPerPage int

	// configs 已加载的配置映射
	configs map[string]*ViewConfig

	logger *zap.Logger
	mu     sync.RWMutex
}

// NewViewConfigManager 创建新的视图配置管理器
// configDir: 配置文件目录
// itemsPerPage: 默认每页条数
// logger: 日志记录器
// 返回: 视图配置管理器实例
func NewViewConfigManager(configDir string, itemsPerPage int, logger *zap.Logger) *ViewConfigManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if itemsPerPage < 1 {
		itemsPerPage = 10
	}

	return &ViewConfigManager{
		configDir:    configDir,
		itemsPerPage: itemsPerPage,
		configs:      make(map[string]*ViewConfig),
		logger:       logger,
	}
}

// LoadConfig 加载视图配置，文件不存在时使用默认配置
// resource: 资源名称
// 返回: 视图配置和错误信息
func (m *ViewConfigManager) LoadConfig(resource string) (*ViewConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if config, exists := m.configs[resource]; exists {
		return config, nil
	}
	if resource == "" || filepath.Base(resource) != resource {
		return nil, fmt.Errorf("资源名称不合法: %q", resource)
	}

	configPath := m.path(resource)
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		defaultConfig := m.createDefaultConfig(resource)
		m.configs[resource] = defaultConfig

		m.logger.Debug("使用默认视图配置",
			zap.String("resource", resource),
			zap.String("config_path", configPath))

		return defaultConfig, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取视图配置失败: %w", err)
	}

	config := m.createDefaultConfig(resource)
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("解析视图配置失败: %w", err)
	}
	config.Resource = resource

	if err := m.validateConfig(config); err != nil {
		return nil, fmt.Errorf("视图配置验证失败: %w", err)
	}

	m.configs[resource] = config

	m.logger.Info("视图配置加载成功",
		zap.String("resource", resource),
		zap.Bool("enabled", config.Enabled),
		zap.Int("items_per_page", config.ItemsPerPage))

	return config, nil
}

// SaveConfig 保存视图配置
// config: 视图配置
// 返回: 错误信息
func (m *ViewConfigManager) SaveConfig(config *ViewConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(config)
}

func (m *ViewConfigManager) save(config *ViewConfig) error {
	if err := m.validateConfig(config); err != nil {
		return fmt.Errorf("视图配置验证失败: %w", err)
	}

	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化视图配置失败: %w", err)
	}

	configPath := m.path(config.Resource)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("写入视图配置失败: %w", err)
	}

	m.configs[config.Resource] = config

	m.logger.Info("视图配置保存成功",
		zap.String("resource", config.Resource),
		zap.String("config_path", configPath))

	return nil
}

// GetConfig 获取已加载的视图配置
// resource: 资源名称
// 返回: 视图配置和是否存在
func (m *ViewConfigManager) GetConfig(resource string) (*ViewConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	config, exists := m.configs[resource]
	return config, exists
}

// UpdateConfig 更新视图配置并落盘
// resource: 资源名称
// updates: 更新的配置项
// 返回: 错误信息
func (m *ViewConfigManager) UpdateConfig(resource string, updates map[string]interface{}) error {
	if _, err := m.LoadConfig(resource); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.configs[resource]
	updated := *current
	updated.DefaultFilters = make(map[string]string, len(current.DefaultFilters))
	for k, v := range current.DefaultFilters {
		updated.DefaultFilters[k] = v
	}

	for key, value := range updates {
		switch key {
		case "enabled":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("enabled 必须为布尔值")
			}
			updated.Enabled = enabled
		case "title":
			title, ok := value.(string)
			if !ok {
				return fmt.Errorf("title 必须为字符串")
			}
			updated.Title = title
		case "items_per_page":
			n, ok := toInt(value)
			if !ok {
				return fmt.Errorf("items_per_page 必须为整数")
			}
			updated.ItemsPerPage = n
		case "columns":
			columns, ok := toStrings(value)
			if !ok {
				return fmt.Errorf("columns 必须为字符串数组")
			}
			updated.Columns = columns
		case "default_filters":
			filters, ok := value.(map[string]interface{})
			if !ok {
				return fmt.Errorf("default_filters 必须为对象")
			}
			for k, v := range filters {
				updated.DefaultFilters[k] = fmt.Sprint(v)
			}
		default:
			return fmt.Errorf("未知配置项: %s", key)
		}
	}

	return m.save(&updated)
}

// DeleteConfig 删除视图配置，恢复默认值
// resource: 资源名称
// 返回: 错误信息
func (m *ViewConfigManager) DeleteConfig(resource string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.path(resource)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除视图配置失败: %w", err)
	}
	delete(m.configs, resource)

	m.logger.Info("视图配置删除成功", zap.String("resource", resource))
	return nil
}

// ListConfigs 列出已加载的视图配置
// 返回: 视图配置列表
func (m *ViewConfigManager) ListConfigs() []*ViewConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configs := make([]*ViewConfig, 0, len(m.configs))
	for _, config := range m.configs {
		configs = append(configs, config)
	}
	return configs
}

// ReloadConfig 丢弃缓存并重新加载
// resource: 资源名称
// 返回: 视图配置和错误信息
func (m *ViewConfigManager) ReloadConfig(resource string) (*ViewConfig, error) {
	m.mu.Lock()
	delete(m.configs, resource)
	m.mu.Unlock()

	return m.LoadConfig(resource)
}

func (m *ViewConfigManager) path(resource string) string {
	return filepath.Join(m.configDir, resource+".json")
}

// createDefaultConfig 创建默认配置
func (m *ViewConfigManager) createDefaultConfig(resource string) *ViewConfig {
	return &ViewConfig{
		Resource:       resource,
		Enabled:        true,
		ItemsPerPage:   m.itemsPerPage,
		DefaultFilters: map[string]string{},
	}
}

// validateConfig 验证配置
func (m *ViewConfigManager) validateConfig(config *ViewConfig) error {
	if config.Resource == "" {
		return fmt.Errorf("资源名称不能为空")
	}
	if filepath.Base(config.Resource) != config.Resource {
		return fmt.Errorf("资源名称不合法: %s", config.Resource)
	}
	if config.ItemsPerPage < 1 || config.ItemsPerPage > 100 {
		return fmt.Errorf("每页条数必须在1到100之间")
	}
	return nil
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func toStrings(v interface{}) ([]string, bool) {
	switch items := v.(type) {
	case []string:
		return items, true
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
