package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

// Resource 单个REST资源的访问入口
type Resource struct {
	client Client
	path   string
}

// NewResource 创建资源访问入口
// 参数: c 客户端, path 资源路径(如 /campaigns)
// 返回值: *Resource 资源实例
func NewResource(c Client, path string) *Resource {
	return &Resource{client: c, path: path}
}

// Path 资源路径
func (r *Resource) Path() string { return r.path }

// List 列表查询
func (r *Resource) List(ctx context.Context, params url.Values) *model.APIResponse {
	path := r.path
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return r.client.Request(ctx, path, RequestOptions{})
}

// Public 公开列表
func (r *Resource) Public(ctx context.Context) *model.APIResponse {
	return r.client.Request(ctx, r.path+"/public", RequestOptions{})
}

// Get 按id获取
func (r *Resource) Get(ctx context.Context, id string) *model.APIResponse {
	return r.client.Request(ctx, r.item(id), RequestOptions{})
}

// Create 创建
func (r *Resource) Create(ctx context.Context, body Body) *model.APIResponse {
	return r.client.Request(ctx, r.path, body.options(http.MethodPost))
}

// Update 更新
func (r *Resource) Update(ctx context.Context, id string, body Body) *model.APIResponse {
	return r.client.Request(ctx, r.item(id), body.options(http.MethodPut))
}

// Delete 删除
func (r *Resource) Delete(ctx context.Context, id string) *model.APIResponse {
	return r.client.Request(ctx, r.item(id), RequestOptions{Method: http.MethodDelete})
}

// SetStatus 更新状态字段
func (r *Resource) SetStatus(ctx context.Context, id, status string) *model.APIResponse {
	body, err := JSONBody(map[string]string{"status": status})
	if err != nil {
		return model.Failure(err.Error(), 0)
	}
	return r.client.Request(ctx, r.item(id)+"/status", body.options(http.MethodPatch))
}

func (r *Resource) item(id string) string {
	return r.path + "/" + url.PathEscape(id)
}
