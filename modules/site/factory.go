package site

import (
	"github.com/vera-byte/vgo-ngo-admin/internal/module"
)

// SiteModuleFactory 公开站点模块工厂
type SiteModuleFactory struct{}

// NewSiteModuleFactory 创建新的站点模块工厂
// 返回值: *SiteModuleFactory 模块工厂实例
func NewSiteModuleFactory() *SiteModuleFactory {
	return &SiteModuleFactory{}
}

// CreateModule 创建站点模块实例
// 参数: deps 共享依赖
// 返回值: module.BaseModule 模块实例, error 错误信息
func (f *SiteModuleFactory) CreateModule(deps module.Dependencies) (module.BaseModule, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	return NewSiteModule(deps.PublicClient()), nil
}

// ModuleType 获取模块类型
// 返回值: string 模块类型
func (f *SiteModuleFactory) ModuleType() string {
	return "site"
}
