package views

import (
	"context"
	"errors"

	"github.com/vera-byte/vgo-ngo-admin/pkg/client"
	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
	"github.com/vera-byte/vgo-ngo-admin/pkg/table"
)

// ErrNotConfirmed 删除操作未得到确认
var ErrNotConfirmed = errors.New("delete not confirmed")

// Outcome 行操作的执行结果
type Outcome struct {
	// Response 后端响应，只读操作为本地构造的成功响应
	Response *model.APIResponse
	// Path 查看和编辑操作对应的后台页面
	Path string
	// Prompt 删除确认文案
	Prompt string
	Record model.Record
	// Mutated 是否修改了后端数据
	Mutated bool
}

// Handler 返回执行行操作的回调
// 状态类操作更新状态字段，delete 在 confirm 返回 true 后删除
// 参数: ctx 上下文, res 资源访问入口, confirm 删除确认, out 结果
// 返回值: table.ActionHandler 行操作回调
func (v View) Handler(ctx context.Context, res *client.Resource, confirm func(prompt string) bool, out *Outcome) table.ActionHandler {
	return func(action string, rec model.Record) error {
		id, _ := rec.ID()
		out.Record = rec

		if status, ok := v.StatusActions[action]; ok {
			out.Response = res.SetStatus(ctx, id, status)
			out.Mutated = out.Response.Success
			return nil
		}

		switch action {
		case "view":
			out.Path = v.ViewPath(id)
			out.Response = model.Succeed(map[string]any{"path": out.Path, "record": rec})
		case "edit":
			out.Path = v.EditPath(id)
			out.Response = model.Succeed(map[string]any{"path": out.Path, "record": rec})
		case "delete":
			out.Prompt = v.ConfirmDelete(rec)
			if confirm == nil || !confirm(out.Prompt) {
				return ErrNotConfirmed
			}
			out.Response = res.Delete(ctx, id)
			out.Mutated = out.Response.Success
		default:
			out.Response = model.Failure("Unsupported action: "+action, 0)
		}
		return nil
	}
}
