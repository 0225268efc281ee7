// Package table 提供管理后台列表视图的检索、过滤与分页
package table

import (
	"strings"

	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

// DefaultItemsPerPage 默认每页条数
const DefaultItemsPerPage = 10

// Column 列描述
// Render 必须是纯函数，只影响展示，不影响检索和过滤
type Column struct {
	Key    string
	Label  string
	Render func(value any, rec model.Record) string
}

// Cell 返回记录在该列上的展示文本
func (c Column) Cell(rec model.Record) string {
	v := rec[c.Key]
	if c.Render != nil {
		return c.Render(v, rec)
	}
	return model.Stringify(v)
}

// ActionKind 行操作的展示类别
type ActionKind string

const (
	ActionView   ActionKind = "view"
	ActionEdit   ActionKind = "edit"
	ActionDelete ActionKind = "delete"
	ActionCustom ActionKind = "custom"
)

// Action 行操作描述
type Action struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Kind  ActionKind `json:"kind"`
}

// FilterOption 过滤器选项，Value 为空表示不过滤
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Filter 下拉过滤器描述
type Filter struct {
	Key     string         `json:"key"`
	Label   string         `json:"label"`
	Options []FilterOption `json:"options"`
}

// Page 一次计算得到的可见页
type Page struct {
	Rows          []model.Record `json:"rows"`
	TotalFiltered int            `json:"totalFiltered"`
	TotalPages    int            `json:"totalPages"`
	CurrentPage   int            `json:"currentPage"`
	ItemsPerPage  int            `json:"itemsPerPage"`
}

// StartIndex 当前页第一条记录在过滤结果中的下标(从0开始)
func (p Page) StartIndex() int {
	return (p.CurrentPage - 1) * p.ItemsPerPage
}

// ComputeVisibleRows 对记录依次执行检索、过滤和分页
// 参数:
//   - records: 全部记录，不会被修改
//   - columns: 参与检索的列
//   - searchTerm: 检索词，为空时不检索
//   - activeFilters: 字段到取值的映射，取值为空表示不约束
//   - currentPage: 请求的页码，会被钳制到 [1, max(1,totalPages)]
//   - itemsPerPage: 每页条数，小于1时使用默认值
//
// 返回值: Page 可见页
func ComputeVisibleRows(records []model.Record, columns []Column, searchTerm string, activeFilters map[string]string, currentPage, itemsPerPage int) Page {
	if itemsPerPage < 1 {
		itemsPerPage = DefaultItemsPerPage
	}

	term := strings.ToLower(searchTerm)
	filtered := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if term != "" && !matchesSearch(rec, columns, term) {
			continue
		}
		if len(activeFilters) > 0 && !matchesFilters(rec, activeFilters) {
			continue
		}
		filtered = append(filtered, rec)
	}

	total := len(filtered)
	totalPages := (total + itemsPerPage - 1) / itemsPerPage

	page := currentPage
	if page < 1 {
		page = 1
	}
	if maxPage := max(1, totalPages); page > maxPage {
		page = maxPage
	}

	start := (page - 1) * itemsPerPage
	end := min(start+itemsPerPage, total)
	rows := []model.Record{}
	if start < end {
		rows = filtered[start:end]
	}

	return Page{
		Rows:          rows,
		TotalFiltered: total,
		TotalPages:    totalPages,
		CurrentPage:   page,
		ItemsPerPage:  itemsPerPage,
	}
}

// matchesSearch 任一列的原始值包含检索词即命中，term 已转小写
func matchesSearch(rec model.Record, columns []Column, term string) bool {
	for _, col := range columns {
		v, ok := rec[col.Key]
		if !ok || v == nil {
			continue
		}
		if strings.Contains(strings.ToLower(model.Stringify(v)), term) {
			return true
		}
	}
	return false
}

// matchesFilters 所有非空过滤条件都必须精确相等
func matchesFilters(rec model.Record, filters map[string]string) bool {
	for key, want := range filters {
		if want == "" {
			continue
		}
		if model.Stringify(rec[key]) != want {
			return false
		}
	}
	return true
}

// PageWindow 返回分页导航中展示的页码，最多5个
// 参数: current 当前页, total 总页数
// 返回值: []int 页码列表
func PageWindow(current, total int) []int {
	if total <= 0 {
		return []int{}
	}
	count := min(5, total)
	first := 1
	if total > 5 {
		switch {
		case current >= total-2:
			first = total - 4
		case current > 3:
			first = current - 2
		}
	}

	pages := make([]int, count)
	for i := range pages {
		pages[i] = first + i
	}
	return pages
}
