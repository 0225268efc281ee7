package views

import (
	"github.com/vera-byte/vgo-ngo-admin/internal/config"
	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
	"github.com/vera-byte/vgo-ngo-admin/pkg/table"
)

// Query 列表查询条件
type Query struct {
	Search  string
	Page    int
	PerPage int
	Filters map[string]string
}

// Listing 一次列表查询的结果
type Listing struct {
	Resource   string              `json:"resource"`
	Title      string              `json:"title"`
	Summary    string              `json:"summary"`
	Range      string              `json:"range,omitempty"`
	Columns    []ColumnInfo        `json:"columns"`
	Actions    []table.Action      `json:"actions"`
	Rows       []model.Record      `json:"rows"`
	Cells      []map[string]string `json:"cells"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"totalPages"`
	Total      int                 `json:"total"`
	PerPage    int                 `json:"perPage"`
	Window     []int               `json:"pageWindow"`
	State      table.State         `json:"state"`
	Summaries  map[string]string   `json:"summaries,omitempty"`
}

// Build 创建表格、载入记录并应用查询条件
// 参数: cfg 视图配置(可为nil), q 查询条件, records 全部记录, handler 行操作回调
// 返回值: *table.Table 表格, error 记录或过滤条件无效时返回
func (v View) Build(cfg *config.ViewConfig, q Query, records []model.Record, handler table.ActionHandler) (*table.Table, error) {
	if q.PerPage > 0 {
		override := config.ViewConfig{Resource: v.Resource, Enabled: true}
		if cfg != nil {
			override = *cfg
		}
		override.ItemsPerPage = q.PerPage
		cfg = &override
	}

	t, err := v.Table(cfg, handler)
	if err != nil {
		return nil, err
	}
	if err := t.SetRecords(records); err != nil {
		return nil, err
	}

	if q.Search != "" {
		t.SetSearch(q.Search)
	}
	for key, value := range q.Filters {
		if err := t.SetFilter(key, value); err != nil {
			return nil, err
		}
	}
	if q.Page > 0 {
		t.SetPage(q.Page)
	}
	return t, nil
}

// Snapshot 导出表格当前可见页
func (v View) Snapshot(t *table.Table) Listing {
	page := t.View()
	cells := make([]map[string]string, 0, len(page.Rows))
	for _, rec := range page.Rows {
		row := make(map[string]string, len(t.Columns()))
		for _, c := range t.Columns() {
			row[c.Key] = c.Cell(rec)
		}
		cells = append(cells, row)
	}

	columns := make([]ColumnInfo, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		columns = append(columns, ColumnInfo{Key: c.Key, Label: c.Label})
	}
	actions := t.Actions()
	if actions == nil {
		actions = []table.Action{}
	}

	listing := Listing{
		Resource:   v.Resource,
		Title:      t.Title(),
		Summary:    t.Summary(),
		Range:      table.RangeText(page),
		Columns:    columns,
		Actions:    actions,
		Rows:       page.Rows,
		Cells:      cells,
		Page:       page.CurrentPage,
		TotalPages: page.TotalPages,
		Total:      page.TotalFiltered,
		PerPage:    page.ItemsPerPage,
		Window:     table.PageWindow(page.CurrentPage, page.TotalPages),
		State:      t.State(),
	}
	if len(v.Summaries) > 0 {
		listing.Summaries = v.Summarize(t.Records())
	}
	return listing
}
