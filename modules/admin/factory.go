package admin

import (
	"github.com/vera-byte/vgo-ngo-admin/internal/module"
)

// AdminModuleFactory 管理后台模块工厂
type AdminModuleFactory struct{}

// NewAdminModuleFactory 创建新的管理后台模块工厂
// 返回值: *AdminModuleFactory 模块工厂实例
func NewAdminModuleFactory() *AdminModuleFactory {
	return &AdminModuleFactory{}
}

// CreateModule 创建管理后台模块实例
// 参数: deps 共享依赖
// 返回值: module.BaseModule 模块实例, error 错误信息
func (f *AdminModuleFactory) CreateModule(deps module.Dependencies) (module.BaseModule, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	return NewAdminModule(deps), nil
}

// ModuleType 获取模块类型
// 返回值: string 模块类型
func (f *AdminModuleFactory) ModuleType() string {
	return "admin"
}
