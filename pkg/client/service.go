package client

import (
	"context"

	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

// 后端资源名称
const (
	ResourceCampaigns              = "campaigns"
	ResourceEvents                 = "events"
	ResourceEventRegistrations     = "event-registrations"
	ResourceTeam                   = "team"
	ResourceCareers                = "careers"
	ResourceCareerApplications     = "career-applications"
	ResourceDonations              = "donations"
	ResourceContact                = "contact"
	ResourceVolunteerOpportunities = "volunteer-opportunities"
	ResourceVolunteerSubmissions   = "volunteer-submissions"
)

// AdminResources 管理后台可访问的全部资源
var AdminResources = []string{
	ResourceCampaigns,
	ResourceEvents,
	ResourceEventRegistrations,
	ResourceTeam,
	ResourceCareers,
	ResourceCareerApplications,
	ResourceDonations,
	ResourceContact,
	ResourceVolunteerOpportunities,
	ResourceVolunteerSubmissions,
}

// Service 按资源名组织的后端访问入口
type Service struct {
	client    Client
	resources map[string]*Resource
}

// NewService 创建服务
// 参数: c 客户端, names 资源名称列表
// 返回值: *Service 服务实例
func NewService(c Client, names ...string) *Service {
	s := &Service{client: c, resources: make(map[string]*Resource, len(names))}
	for _, name := range names {
		s.resources[name] = NewResource(c, "/"+name)
	}
	return s
}

// NewAdminService 创建管理后台服务
func NewAdminService(c Client) *Service {
	return NewService(c, AdminResources...)
}

// Client 底层客户端
func (s *Service) Client() Client { return s.client }

// Resource 按名称获取资源
func (s *Service) Resource(name string) (*Resource, bool) {
	r, ok := s.resources[name]
	return r, ok
}

// Stats 仪表盘统计
func (s *Service) Stats(ctx context.Context) *model.APIResponse {
	return s.client.Request(ctx, "/admin/stats", RequestOptions{})
}
