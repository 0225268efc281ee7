package table

import (
	"errors"
	"fmt"

	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

var (
	// ErrMissingID 记录缺少id字段
	ErrMissingID = errors.New("record has no id")
	// ErrDuplicateID 记录id重复
	ErrDuplicateID = errors.New("duplicate record id")
	// ErrUnknownAction 未声明的行操作
	ErrUnknownAction = errors.New("unknown action")
	// ErrUnknownFilter 未声明的过滤器
	ErrUnknownFilter = errors.New("unknown filter")
	// ErrRecordNotFound 当前记录集中没有该id
	ErrRecordNotFound = errors.New("record not found")
)

// State 表格的交互状态
type State struct {
	SearchTerm    string            `json:"searchTerm"`
	CurrentPage   int               `json:"currentPage"`
	ActiveFilters map[string]string `json:"activeFilters"`
	ItemsPerPage  int               `json:"itemsPerPage"`
}

// ActionHandler 行操作回调，表格本身不执行任何副作用
type ActionHandler func(action string, rec model.Record) error

// Table 带状态的记录表格
type Table struct {
	title      string
	columns    []Column
	actions    []Action
	filters    []Filter
	searchable bool
	handler    ActionHandler

	records []model.Record
	index   map[string]int
	state   State
	loading bool
}

// Option 表格配置项
type Option func(*Table)

// WithTitle 设置标题
func WithTitle(title string) Option {
	return func(t *Table) { t.title = title }
}

// WithActions 设置行操作
func WithActions(actions ...Action) Option {
	return func(t *Table) { t.actions = append(t.actions, actions...) }
}

// WithFilters 设置过滤器
func WithFilters(filters ...Filter) Option {
	return func(t *Table) { t.filters = append(t.filters, filters...) }
}

// WithItemsPerPage 设置每页条数
func WithItemsPerPage(n int) Option {
	return func(t *Table) {
		if n > 0 {
			t.state.ItemsPerPage = n
		}
	}
}

// WithActionHandler 设置行操作回调
func WithActionHandler(h ActionHandler) Option {
	return func(t *Table) { t.handler = h }
}

// WithoutSearch 关闭检索
func WithoutSearch() Option {
	return func(t *Table) { t.searchable = false }
}

// New 创建表格
// 参数: columns 列描述, opts 配置项
// 返回值: *Table 表格实例
func New(columns []Column, opts ...Option) *Table {
	t := &Table{
		columns:    columns,
		searchable: true,
		index:      map[string]int{},
		records:    []model.Record{},
		state: State{
			CurrentPage:   1,
			ActiveFilters: map[string]string{},
			ItemsPerPage:  DefaultItemsPerPage,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Title 返回标题
func (t *Table) Title() string { return t.title }

// Columns 返回列描述
func (t *Table) Columns() []Column { return t.columns }

// Actions 返回行操作
func (t *Table) Actions() []Action { return t.actions }

// Filters 返回过滤器
func (t *Table) Filters() []Filter { return t.filters }

// Searchable 是否允许检索
func (t *Table) Searchable() bool { return t.searchable }

// SetRecords 替换记录集，每条记录必须带唯一id
// 返回值: error 校验失败时返回，此时原记录集保持不变
func (t *Table) SetRecords(records []model.Record) error {
	index := make(map[string]int, len(records))
	for i, rec := range records {
		id, ok := rec.ID()
		if !ok {
			return fmt.Errorf("row %d: %w", i, ErrMissingID)
		}
		if _, dup := index[id]; dup {
			return fmt.Errorf("id %q: %w", id, ErrDuplicateID)
		}
		index[id] = i
	}
	t.records = records
	t.index = index
	return nil
}

// Records 返回当前记录集
func (t *Table) Records() []model.Record { return t.records }

// Lookup 按id查找记录
func (t *Table) Lookup(id string) (model.Record, bool) {
	i, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return t.records[i], true
}

// SetLoading 设置加载状态
func (t *Table) SetLoading(loading bool) { t.loading = loading }

// Loading 是否加载中
func (t *Table) Loading() bool { return t.loading }

// State 返回状态副本
func (t *Table) State() State {
	filters := make(map[string]string, len(t.state.ActiveFilters))
	for k, v := range t.state.ActiveFilters {
		filters[k] = v
	}
	s := t.state
	s.ActiveFilters = filters
	return s
}

// SetSearch 设置检索词并回到第1页
func (t *Table) SetSearch(term string) {
	if !t.searchable {
		return
	}
	t.state.SearchTerm = term
	t.state.CurrentPage = 1
}

// SetFilter 设置过滤条件并回到第1页
// 参数: key 过滤器键, value 取值(空串表示清除)
// 返回值: error key未声明时返回 ErrUnknownFilter
func (t *Table) SetFilter(key, value string) error {
	if !t.hasFilter(key) {
		return fmt.Errorf("%q: %w", key, ErrUnknownFilter)
	}
	t.state.ActiveFilters[key] = value
	t.state.CurrentPage = 1
	return nil
}

// ClearFilters 清除全部过滤条件并回到第1页
func (t *Table) ClearFilters() {
	t.state.ActiveFilters = map[string]string{}
	t.state.CurrentPage = 1
}

func (t *Table) hasFilter(key string) bool {
	for _, f := range t.filters {
		if f.Key == key {
			return true
		}
	}
	return false
}

// SetPage 跳转到指定页，超出范围时钳制
func (t *Table) SetPage(page int) {
	t.state.CurrentPage = page
	t.state.CurrentPage = t.View().CurrentPage
}

// NextPage 下一页，已在最后一页时不变
func (t *Table) NextPage() { t.SetPage(t.state.CurrentPage + 1) }

// PrevPage 上一页，已在第一页时不变
func (t *Table) PrevPage() { t.SetPage(t.state.CurrentPage - 1) }

// View 按当前状态计算可见页
func (t *Table) View() Page {
	search := t.state.SearchTerm
	if !t.searchable {
		search = ""
	}
	return ComputeVisibleRows(t.records, t.columns, search, t.state.ActiveFilters, t.state.CurrentPage, t.state.ItemsPerPage)
}

// PageWindow 当前页附近的页码
func (t *Table) PageWindow() []int {
	p := t.View()
	return PageWindow(p.CurrentPage, p.TotalPages)
}

// Action 按key查找行操作
func (t *Table) Action(key string) (Action, bool) {
	for _, a := range t.actions {
		if a.Key == key {
			return a, true
		}
	}
	return Action{}, false
}

// Dispatch 将行操作交给回调处理
// 参数: actionKey 操作键, rec 目标记录
// 返回值: error 操作未声明或回调返回的错误
func (t *Table) Dispatch(actionKey string, rec model.Record) error {
	if _, ok := t.Action(actionKey); !ok {
		return fmt.Errorf("%q: %w", actionKey, ErrUnknownAction)
	}
	if t.handler == nil {
		return nil
	}
	return t.handler(actionKey, rec)
}

// DispatchByID 按记录id分发行操作
func (t *Table) DispatchByID(actionKey, id string) error {
	rec, ok := t.Lookup(id)
	if !ok {
		return fmt.Errorf("id %q: %w", id, ErrRecordNotFound)
	}
	return t.Dispatch(actionKey, rec)
}

// Summary 返回 "N item(s) found"
func (t *Table) Summary() string {
	n := t.View().TotalFiltered
	if n == 1 {
		return "1 item found"
	}
	return fmt.Sprintf("%d items found", n)
}

// RangeText 返回 "Showing x to y of z results"，无结果时为空串
func (t *Table) RangeText() string {
	return RangeText(t.View())
}

// RangeText 返回分页范围描述
func RangeText(p Page) string {
	if p.TotalFiltered == 0 {
		return ""
	}
	start := p.StartIndex() + 1
	end := min(p.StartIndex()+p.ItemsPerPage, p.TotalFiltered)
	return fmt.Sprintf("Showing %d to %d of %d results", start, end, p.TotalFiltered)
}
