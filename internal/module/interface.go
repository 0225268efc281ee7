package module

// Module 模块接口定义 (为了向后兼容，继承BaseModule)
type Module interface {
	BaseModule
}

// ModuleInfo 模块信息
type ModuleInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

// ModuleConfig 模块配置
type ModuleConfig struct {
	Enabled bool                   `json:"enabled"`
	Config  map[string]interface{} `json:"config,omitempty"`
}

// parseModuleConfig 从原始配置中拆出启用开关，缺省为启用
func parseModuleConfig(raw interface{}) ModuleConfig {
	cfg := ModuleConfig{Enabled: true, Config: map[string]interface{}{}}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return cfg
	}
	for k, v := range m {
		if k == "enabled" {
			if b, ok := v.(bool); ok {
				cfg.Enabled = b
			}
			continue
		}
		cfg.Config[k] = v
	}
	return cfg
}
