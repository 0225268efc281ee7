package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vera-byte/vgo-ngo-admin/internal/config"
	"github.com/vera-byte/vgo-ngo-admin/internal/middleware"
	"github.com/vera-byte/vgo-ngo-admin/internal/views"
	"github.com/vera-byte/vgo-ngo-admin/pkg/client"
	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
	"github.com/vera-byte/vgo-ngo-admin/pkg/table"
)

// StatusRequest 状态更新请求
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// LoginResult 登录成功后返回给调用方的令牌
type LoginResult struct {
	Token     string    `json:"token"`
	AdminID   string    `json:"adminId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// login 登录后按令牌保存会话，调用方之后以 Authorization: Bearer <token> 访问
func (m *AdminModule) login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	// 令牌先写入本次请求独有的存储，再转存到以令牌为键的会话中
	issued := client.NewMemoryTokenStore()
	ctx := client.ContextWithTokenStore(c.Request.Context(), issued)
	resp := m.client.Login(ctx, req)
	if !resp.Success {
		respond(c, resp)
		return
	}

	token, err := issued.Get(ctx)
	if err != nil || token == nil {
		fail(c, http.StatusBadGateway, "Login response did not include a token")
		return
	}
	if err := m.sessions.For(client.SessionKey(token.Token)).Set(ctx, token); err != nil {
		m.logger.Error("Failed to store admin session", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Failed to store session")
		return
	}

	respond(c, model.Succeed(LoginResult{
		Token:     token.Token,
		AdminID:   token.AdminID,
		Email:     token.Email,
		ExpiresAt: token.Expiry(),
	}))
}

func (m *AdminModule) logout(c *gin.Context) {
	if err := m.client.Logout(c.Request.Context()); err != nil {
		m.logger.Error("Failed to clear admin token", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Failed to clear session")
		return
	}
	respond(c, model.Succeed(nil))
}

// session 返回调用方令牌对应的会话，未携带令牌时为未登录
func (m *AdminModule) session(c *gin.Context) {
	ctx, _ := middleware.SessionContext(c, m.sessions)
	respond(c, model.Succeed(m.client.Session(ctx)))
}

func (m *AdminModule) stats(c *gin.Context) {
	respond(c, m.service.Stats(c.Request.Context()))
}

// viewConfig 读取视图配置，未配置管理器时返回nil
func (m *AdminModule) viewConfig(resource string) (*config.ViewConfig, error) {
	if m.views == nil {
		return nil, nil
	}
	return m.views.LoadConfig(resource)
}

func (m *AdminModule) listViews(c *gin.Context) {
	infos := make([]views.Info, 0, len(views.Names()))
	for _, name := range views.Names() {
		v, _ := views.Lookup(name)
		cfg, err := m.viewConfig(name)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		infos = append(infos, v.Info(cfg))
	}
	respond(c, model.Succeed(infos))
}

func (m *AdminModule) getView(c *gin.Context) {
	v, cfg, ok := m.resolve(c, false)
	if !ok {
		return
	}
	respond(c, model.Succeed(v.Info(cfg)))
}

func (m *AdminModule) updateView(c *gin.Context) {
	v, ok := m.lookup(c)
	if !ok {
		return
	}
	if m.views == nil {
		fail(c, http.StatusNotImplemented, "View configuration is not available")
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		fail(c, http.StatusBadRequest, "Invalid view configuration")
		return
	}
	if filters, ok := updates["default_filters"].(map[string]interface{}); ok {
		for key := range filters {
			if !v.HasFilter(key) {
				fail(c, http.StatusBadRequest, "Unknown filter: "+key)
				return
			}
		}
	}
	if err := m.views.UpdateConfig(v.Resource, updates); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	cfg, _ := m.views.GetConfig(v.Resource)
	m.logger.Info("View config updated", zap.String("resource", v.Resource))
	respond(c, model.Succeed(v.Info(cfg)))
}

// lookup 解析路径中的资源名
func (m *AdminModule) lookup(c *gin.Context) (views.View, bool) {
	v, err := views.Lookup(c.Param("resource"))
	if err != nil {
		fail(c, http.StatusNotFound, "Unknown resource: "+c.Param("resource"))
		return views.View{}, false
	}
	return v, true
}

// resolve 解析资源及其视图配置，requireEnabled 时拒绝已关闭的视图
func (m *AdminModule) resolve(c *gin.Context, requireEnabled bool) (views.View, *config.ViewConfig, bool) {
	v, ok := m.lookup(c)
	if !ok {
		return views.View{}, nil, false
	}
	cfg, err := m.viewConfig(v.Resource)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return views.View{}, nil, false
	}
	if requireEnabled && cfg != nil && !cfg.Enabled {
		fail(c, http.StatusNotFound, "View is disabled: "+v.Resource)
		return views.View{}, nil, false
	}
	return v, cfg, true
}

func (m *AdminModule) resource(v views.View) *client.Resource {
	r, ok := m.service.Resource(v.Resource)
	if !ok {
		r = client.NewResource(m.client, "/"+v.Resource)
	}
	return r
}

// queryFrom 读取 search/page/per_page/filter[...] 查询参数
func queryFrom(c *gin.Context) views.Query {
	q := views.Query{
		Search:  c.Query("search"),
		Filters: c.QueryMap("filter"),
	}
	q.Page, _ = strconv.Atoi(c.Query("page"))
	q.PerPage, _ = strconv.Atoi(c.Query("per_page"))
	if q.PerPage > 100 {
		q.PerPage = 100
	}
	return q
}

// load 拉取全部记录并构造表格
// 返回值: *table.Table 表格, *model.APIResponse 后端失败时的响应, error 记录无效时返回
func (m *AdminModule) load(ctx context.Context, v views.View, cfg *config.ViewConfig, q views.Query, handler table.ActionHandler) (*table.Table, *model.APIResponse, error) {
	resp := m.resource(v).List(ctx, nil)
	if !resp.Success {
		return nil, resp, nil
	}
	records, err := resp.Records()
	if err != nil {
		return nil, model.Failure("Unexpected list payload for "+v.Resource, 0), nil
	}
	t, err := v.Build(cfg, q, records, handler)
	return t, nil, err
}

func (m *AdminModule) list(c *gin.Context) {
	v, cfg, ok := m.resolve(c, true)
	if !ok {
		return
	}

	t, failure, err := m.load(c.Request.Context(), v, cfg, queryFrom(c), nil)
	if failure != nil {
		respond(c, failure)
		return
	}
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	respond(c, model.Succeed(v.Snapshot(t)))
}

func (m *AdminModule) get(c *gin.Context) {
	v, _, ok := m.resolve(c, true)
	if !ok {
		return
	}
	respond(c, m.resource(v).Get(c.Request.Context(), c.Param("id")))
}

// passthrough 原样转发请求体，multipart表单保留boundary
func passthrough(c *gin.Context) client.Body {
	return client.RawBody(c.Request.Body, c.GetHeader("Content-Type"))
}

func (m *AdminModule) create(c *gin.Context) {
	v, _, ok := m.resolve(c, true)
	if !ok {
		return
	}
	resp := m.resource(v).Create(c.Request.Context(), passthrough(c))
	if resp.Success {
		m.logger.Info("Record created", zap.String("resource", v.Resource))
	}
	respond(c, resp)
}

func (m *AdminModule) update(c *gin.Context) {
	v, _, ok := m.resolve(c, true)
	if !ok {
		return
	}
	resp := m.resource(v).Update(c.Request.Context(), c.Param("id"), passthrough(c))
	if resp.Success {
		m.logger.Info("Record updated", zap.String("resource", v.Resource), zap.String("id", c.Param("id")))
	}
	respond(c, resp)
}

func (m *AdminModule) remove(c *gin.Context) {
	v, _, ok := m.resolve(c, true)
	if !ok {
		return
	}
	resp := m.resource(v).Delete(c.Request.Context(), c.Param("id"))
	if resp.Success {
		m.logger.Info("Record deleted", zap.String("resource", v.Resource), zap.String("id", c.Param("id")))
	}
	respond(c, resp)
}

func (m *AdminModule) setStatus(c *gin.Context) {
	v, _, ok := m.resolve(c, true)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Status is required")
		return
	}
	respond(c, m.resource(v).SetStatus(c.Request.Context(), c.Param("id"), req.Status))
}

// action 将行操作分发给表格，结果写回响应
func (m *AdminModule) action(c *gin.Context) {
	v, cfg, ok := m.resolve(c, true)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	q := queryFrom(c)
	confirmed := c.Query("confirm") == "true"

	var out views.Outcome
	handler := v.Handler(ctx, m.resource(v), func(string) bool { return confirmed }, &out)
	t, failure, err := m.load(ctx, v, cfg, q, handler)
	if failure != nil {
		respond(c, failure)
		return
	}
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	action := c.Param("action")
	err = t.DispatchByID(action, c.Param("id"))
	switch {
	case errors.Is(err, table.ErrUnknownAction):
		fail(c, http.StatusBadRequest, "Unknown action: "+action)
		return
	case errors.Is(err, table.ErrRecordNotFound):
		fail(c, http.StatusNotFound, "Record not found: "+c.Param("id"))
		return
	case errors.Is(err, views.ErrNotConfirmed):
		fail(c, http.StatusConflict, out.Prompt)
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	if !out.Response.Success || !out.Mutated {
		respond(c, out.Response)
		return
	}
	m.logger.Info("Row action dispatched",
		zap.String("resource", v.Resource),
		zap.String("action", action),
		zap.String("id", c.Param("id")))

	// 修改类操作完成后返回刷新后的列表
	refreshed, failure, err := m.load(ctx, v, cfg, q, nil)
	if failure != nil {
		respond(c, failure)
		return
	}
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	respond(c, model.Succeed(v.Snapshot(refreshed)))
}
