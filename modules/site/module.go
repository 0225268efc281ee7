// Package site 公开站点使用的只读接口
package site

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vera-byte/vgo-ngo-admin/pkg/client"
	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

// DefaultHomeLimit 首页每个区块默认展示的条数
const DefaultHomeLimit = 4

// listable 支持完整列表和详情的公开资源
var listable = map[string]bool{
	client.ResourceCampaigns:              true,
	client.ResourceEvents:                 true,
	client.ResourceTeam:                   true,
	client.ResourceCareers:                true,
	client.ResourceVolunteerOpportunities: true,
}

// publicOnly 只开放 /public 列表的资源
var publicOnly = map[string]bool{
	client.ResourceContact:              true,
	client.ResourceVolunteerSubmissions: true,
}

// Config 站点模块配置
type Config struct {
	HomeLimit int `json:"home_limit"`
}

// SiteModule 公开站点模块
type SiteModule struct {
	client client.Client
	config Config
	logger *zap.Logger
	now    func() time.Time
}

// Home 首页聚合数据
type Home struct {
	Campaigns []model.Record `json:"campaigns"`
	Events    []model.Record `json:"events"`
	Team      []model.Record `json:"team"`
}

// NewSiteModule 创建站点模块
// 参数: c 不携带令牌的后端客户端
// 返回值: *SiteModule 模块实例
func NewSiteModule(c client.Client) *SiteModule {
	return &SiteModule{
		client: c,
		config: Config{HomeLimit: DefaultHomeLimit},
		logger: zap.NewNop(),
		now:    time.Now,
	}
}

// Name 获取模块名称
func (m *SiteModule) Name() string { return "site" }

// Version 获取模块版本
func (m *SiteModule) Version() string { return "1.0.0" }

// Description 获取模块描述
func (m *SiteModule) Description() string {
	return "Public listings for the website"
}

// Initialize 初始化模块
// 参数: ctx 上下文, cfg 模块配置, logger 日志器
// 返回值: error 错误信息
func (m *SiteModule) Initialize(ctx context.Context, cfg map[string]interface{}, logger *zap.Logger) error {
	if logger != nil {
		m.logger = logger
	}
	if v, ok := cfg["home_limit"]; ok {
		switch n := v.(type) {
		case int:
			m.config.HomeLimit = n
		case float64:
			m.config.HomeLimit = int(n)
		}
	}
	if m.config.HomeLimit < 1 {
		m.config.HomeLimit = DefaultHomeLimit
	}

	m.logger.Info("Site module initialized", zap.Int("home_limit", m.config.HomeLimit))
	return nil
}

// RegisterRoutes 注册模块路由
func (m *SiteModule) RegisterRoutes(router *gin.RouterGroup, logger *zap.Logger) error {
	router.GET("/home", m.home)
	router.GET("/:resource", m.list)
	router.GET("/:resource/public", m.public)
	router.GET("/:resource/:id", m.get)

	logger.Info("Site module routes registered")
	return nil
}

// HealthCheck 健康检查
func (m *SiteModule) HealthCheck(ctx context.Context) error {
	return nil
}

// Shutdown 关闭模块
func (m *SiteModule) Shutdown(ctx context.Context) error {
	m.logger.Info("Site module shutting down")
	return nil
}

func respond(c *gin.Context, resp *model.APIResponse) {
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusBadGateway
		if resp.Status >= 400 {
			status = resp.Status
		}
	}
	c.JSON(status, resp)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, model.Failure("Unknown resource: "+c.Param("resource"), http.StatusNotFound))
}

func (m *SiteModule) resource(name string) *client.Resource {
	return client.NewResource(m.client, "/"+name)
}

func (m *SiteModule) list(c *gin.Context) {
	name := c.Param("resource")
	if !listable[name] {
		notFound(c)
		return
	}
	respond(c, m.resource(name).List(c.Request.Context(), nil))
}

func (m *SiteModule) public(c *gin.Context) {
	name := c.Param("resource")
	if !listable[name] && !publicOnly[name] {
		notFound(c)
		return
	}
	respond(c, m.resource(name).Public(c.Request.Context()))
}

func (m *SiteModule) get(c *gin.Context) {
	name := c.Param("resource")
	if !listable[name] {
		notFound(c)
		return
	}
	respond(c, m.resource(name).Get(c.Request.Context(), c.Param("id")))
}

// home 首页数据，后端忽略条数参数，因此在本地截取
func (m *SiteModule) home(c *gin.Context) {
	limit := m.config.HomeLimit
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		limit = n
	}
	ctx := c.Request.Context()
	today := m.now().Format("2006-01-02")

	var home Home
	sections := []struct {
		resource string
		keep     func(model.Record) bool
		out      *[]model.Record
	}{
		{client.ResourceCampaigns, active, &home.Campaigns},
		{client.ResourceEvents, func(r model.Record) bool { return upcoming(r, today) }, &home.Events},
		{client.ResourceTeam, active, &home.Team},
	}
	for _, s := range sections {
		records, failure := m.fetchPublic(ctx, s.resource)
		if failure != nil {
			respond(c, failure)
			return
		}
		*s.out = take(records, s.keep, limit)
	}

	respond(c, model.Succeed(home))
}

func (m *SiteModule) fetchPublic(ctx context.Context, name string) ([]model.Record, *model.APIResponse) {
	resp := m.resource(name).Public(ctx)
	if !resp.Success {
		m.logger.Warn("Public listing failed", zap.String("resource", name), zap.String("message", resp.Message))
		return nil, resp
	}
	records, err := resp.Records()
	if err != nil {
		return nil, model.Failure("Unexpected list payload for "+name, 0)
	}
	return records, nil
}

// active 缺少 isActive 字段的记录视为启用
func active(r model.Record) bool {
	v, ok := r["isActive"]
	if !ok {
		return true
	}
	b, _ := v.(bool)
	return b
}

// upcoming 活动日期不早于今天，日期缺失时保留
func upcoming(r model.Record, today string) bool {
	date := r.String("eventDate")
	if len(date) < 10 {
		return true
	}
	return date[:10] >= today
}

func take(records []model.Record, keep func(model.Record) bool, limit int) []model.Record {
	out := make([]model.Record, 0, limit)
	for _, r := range records {
		if len(out) == limit {
			break
		}
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
