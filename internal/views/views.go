// Package views 定义管理后台每个资源的列表视图
package views

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vera-byte/vgo-ngo-admin/internal/config"
	"github.com/vera-byte/vgo-ngo-admin/pkg/client"
	"github.com/vera-byte/vgo-ngo-admin/pkg/format"
	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
	"github.com/vera-byte/vgo-ngo-admin/pkg/table"
)

// ErrUnknownResource 没有为该资源定义视图
var ErrUnknownResource = errors.New("unknown resource")

// Summary 列表上方的汇总卡片
type Summary struct {
	Label   string
	Compute func(records []model.Record) string
}

// View 资源列表视图
type View struct {
	// Resource 后端资源名称
	Resource string
	// Section 后台页面路径段，用于生成查看和编辑链接
	Section string
	Title   string
	Columns []table.Column
	Filters []table.Filter
	Actions []table.Action
	// StatusActions 行操作到状态值的映射，命中时执行状态更新
	StatusActions map[string]string
	// LabelKey 删除确认中用于指代记录的字段
	LabelKey string
	// Noun 记录缺少 LabelKey 时的称呼
	Noun      string
	Summaries []Summary
}

// ColumnInfo 列的可序列化描述
type ColumnInfo struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Info 视图的可序列化描述
type Info struct {
	Resource     string         `json:"resource"`
	Title        string         `json:"title"`
	Enabled      bool           `json:"enabled"`
	ItemsPerPage int            `json:"itemsPerPage"`
	Columns      []ColumnInfo   `json:"columns"`
	Filters      []table.Filter `json:"filters"`
	Actions      []table.Action `json:"actions"`
}

// Lookup 按资源名称获取视图
func Lookup(resource string) (View, error) {
	v, ok := registry[resource]
	if !ok {
		return View{}, fmt.Errorf("%q: %w", resource, ErrUnknownResource)
	}
	return v, nil
}

// Names 全部资源名称，按字母排序
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table 按视图配置创建表格
// 参数: cfg 视图配置(可为nil), handler 行操作回调
// 返回值: *table.Table 表格, error 默认过滤条件无效时返回
func (v View) Table(cfg *config.ViewConfig, handler table.ActionHandler) (*table.Table, error) {
	title := v.Title
	columns := v.Columns
	perPage := table.DefaultItemsPerPage
	if cfg != nil {
		if cfg.Title != "" {
			title = cfg.Title
		}
		if len(cfg.Columns) > 0 {
			columns = v.selectColumns(cfg.Columns)
		}
		perPage = cfg.ItemsPerPage
	}

	opts := []table.Option{
		table.WithTitle(title),
		table.WithItemsPerPage(perPage),
		table.WithFilters(v.Filters...),
		table.WithActions(v.Actions...),
	}
	if handler != nil {
		opts = append(opts, table.WithActionHandler(handler))
	}
	t := table.New(columns, opts...)

	if cfg != nil {
		for key, value := range cfg.DefaultFilters {
			if err := t.SetFilter(key, value); err != nil {
				return nil, fmt.Errorf("view %s: %w", v.Resource, err)
			}
		}
	}
	return t, nil
}

// Info 返回视图描述
func (v View) Info(cfg *config.ViewConfig) Info {
	info := Info{
		Resource:     v.Resource,
		Title:        v.Title,
		Enabled:      true,
		ItemsPerPage: table.DefaultItemsPerPage,
		Filters:      v.Filters,
		Actions:      v.Actions,
	}
	columns := v.Columns
	if cfg != nil {
		info.Enabled = cfg.Enabled
		info.ItemsPerPage = cfg.ItemsPerPage
		if cfg.Title != "" {
			info.Title = cfg.Title
		}
		if len(cfg.Columns) > 0 {
			columns = v.selectColumns(cfg.Columns)
		}
	}
	for _, c := range columns {
		info.Columns = append(info.Columns, ColumnInfo{Key: c.Key, Label: c.Label})
	}
	if info.Filters == nil {
		info.Filters = []table.Filter{}
	}
	if info.Actions == nil {
		info.Actions = []table.Action{}
	}
	return info
}

// selectColumns 按配置顺序挑选列，忽略未知列
func (v View) selectColumns(keys []string) []table.Column {
	byKey := make(map[string]table.Column, len(v.Columns))
	for _, c := range v.Columns {
		byKey[c.Key] = c
	}
	out := make([]table.Column, 0, len(keys))
	for _, k := range keys {
		if c, ok := byKey[k]; ok {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return v.Columns
	}
	return out
}

// HasFilter 视图是否声明了该过滤器
func (v View) HasFilter(key string) bool {
	for _, f := range v.Filters {
		if f.Key == key {
			return true
		}
	}
	return false
}

// ViewPath 记录详情页路径
func (v View) ViewPath(id string) string {
	return fmt.Sprintf("/admin/%s/%s", v.Section, id)
}

// EditPath 记录编辑页路径
func (v View) EditPath(id string) string {
	return fmt.Sprintf("/admin/%s/edit/%s", v.Section, id)
}

// ConfirmDelete 删除前的确认文案
func (v View) ConfirmDelete(rec model.Record) string {
	if v.LabelKey != "" {
		if label := rec.String(v.LabelKey); label != "" {
			return fmt.Sprintf("Are you sure you want to delete %q?", label)
		}
	}
	return fmt.Sprintf("Are you sure you want to delete this %s?", v.Noun)
}

// Summarize 计算汇总卡片
func (v View) Summarize(records []model.Record) map[string]string {
	out := make(map[string]string, len(v.Summaries))
	for _, s := range v.Summaries {
		out[s.Label] = s.Compute(records)
	}
	return out
}

var activeFilter = table.Filter{
	Key:   "isActive",
	Label: "Status",
	Options: []table.FilterOption{
		{Value: "", Label: "All Status"},
		{Value: "true", Label: "Active"},
		{Value: "false", Label: "Inactive"},
	},
}

var crudActions = []table.Action{
	{Key: "view", Label: "View", Kind: table.ActionView},
	{Key: "edit", Label: "Edit", Kind: table.ActionEdit},
	{Key: "delete", Label: "Delete", Kind: table.ActionDelete},
}

var deleteOnly = []table.Action{
	{Key: "view", Label: "View", Kind: table.ActionView},
	{Key: "delete", Label: "Delete", Kind: table.ActionDelete},
}

func plain(key, label string) table.Column {
	return table.Column{Key: key, Label: label}
}

func truncated(key, label string, n int) table.Column {
	return table.Column{Key: key, Label: label, Render: func(v any, _ model.Record) string {
		return format.Truncate(model.Stringify(v), n)
	}}
}

func dated(key, label string) table.Column {
	return table.Column{Key: key, Label: label, Render: func(v any, _ model.Record) string {
		return format.Date(v)
	}}
}

func status(key string) table.Column {
	return table.Column{Key: key, Label: "Status", Render: func(v any, _ model.Record) string {
		return format.Status(v)
	}}
}

var active = table.Column{Key: "isActive", Label: "Status", Render: func(v any, _ model.Record) string {
	return format.Active(v)
}}

func counted(key, label, noun string) table.Column {
	return table.Column{Key: key, Label: label, Render: func(v any, _ model.Record) string {
		return format.Count(v, noun)
	}}
}

func nestedTitle(key, label string) table.Column {
	return table.Column{Key: key, Label: label, Render: func(_ any, rec model.Record) string {
		return format.OrDefault(rec.Nested(key).String("title"), "N/A")
	}}
}

func countWhere(field, value string) func([]model.Record) string {
	return func(records []model.Record) string {
		n := 0
		for _, r := range records {
			if r.String(field) == value {
				n++
			}
		}
		return format.Number(float64(n))
	}
}

var registry = map[string]View{
	client.ResourceCampaigns: {
		Resource: client.ResourceCampaigns,
		Section:  "campaigns",
		Title:    "All Campaigns",
		Columns: []table.Column{
			plain("title", "Title"),
			truncated("description", "Description", 40),
			plain("location", "Location"),
			{Key: "raisedAmount", Label: "Raised", Render: func(v any, rec model.Record) string {
				return format.Money(rec.Float("raisedAmount")) + " of " + format.Money(rec.Float("amount"))
			}},
			dated("startDate", "Start Date"),
			active,
		},
		Filters:  []table.Filter{activeFilter},
		Actions:  crudActions,
		LabelKey: "title",
		Noun:     "campaign",
	},
	client.ResourceEvents: {
		Resource: client.ResourceEvents,
		Section:  "events",
		Title:    "All Events",
		Columns: []table.Column{
			plain("title", "Title"),
			truncated("description", "Description", 40),
			plain("location", "Location"),
			dated("eventDate", "Event Date"),
			active,
		},
		Filters:  []table.Filter{activeFilter},
		Actions:  crudActions,
		LabelKey: "title",
		Noun:     "event",
	},
	client.ResourceEventRegistrations: {
		Resource: client.ResourceEventRegistrations,
		Section:  "events/registrations",
		Title:    "Event Registrations",
		Columns: []table.Column{
			plain("name", "Name"),
			plain("email", "Email"),
			nestedTitle("event", "Event"),
			dated("createdAt", "Registered On"),
		},
		Actions:  deleteOnly,
		LabelKey: "name",
		Noun:     "registration",
	},
	client.ResourceTeam: {
		Resource: client.ResourceTeam,
		Section:  "team",
		Title:    "All Team Members",
		Columns: []table.Column{
			plain("name", "Name"),
			{Key: "email", Label: "Email", Render: func(v any, _ model.Record) string {
				return format.OrDefault(v, "N/A")
			}},
			{Key: "bio", Label: "Bio", Render: func(v any, _ model.Record) string {
				return format.Truncate(format.OrDefault(v, "No bio provided"), 40)
			}},
			active,
		},
		Filters:  []table.Filter{activeFilter},
		Actions:  crudActions,
		LabelKey: "name",
		Noun:     "team member",
	},
	client.ResourceCareers: {
		Resource: client.ResourceCareers,
		Section:  "careers",
		Title:    "All Job Listings",
		Columns: []table.Column{
			plain("title", "Position"),
			truncated("description", "Description", 40),
			plain("location", "Location"),
			plain("employmentType", "Type"),
			counted("applications", "Applications", "applications"),
			active,
		},
		Filters: []table.Filter{
			{
				Key:   "employmentType",
				Label: "Employment Type",
				Options: []table.FilterOption{
					{Value: "", Label: "All Types"},
					{Value: "Full-time", Label: "Full-time"},
					{Value: "Part-time", Label: "Part-time"},
					{Value: "Internship", Label: "Internship"},
				},
			},
			activeFilter,
		},
		Actions:  crudActions,
		LabelKey: "title",
		Noun:     "career",
	},
	client.ResourceCareerApplications: {
		Resource: client.ResourceCareerApplications,
		Section:  "careers/applications",
		Title:    "Career Applications",
		Columns: []table.Column{
			plain("name", "Name"),
			plain("email", "Email"),
			nestedTitle("career", "Position"),
			dated("createdAt", "Applied On"),
		},
		Actions: deleteOnly,
		Noun:    "application",
	},
	client.ResourceDonations: {
		Resource: client.ResourceDonations,
		Section:  "donations",
		Title:    "All Donations",
		Columns: []table.Column{
			{Key: "donorName", Label: "Donor", Render: func(v any, rec model.Record) string {
				if rec.Bool("isAnonymous") {
					return "Anonymous"
				}
				return format.OrDefault(v, "Anonymous")
			}},
			{Key: "amount", Label: "Amount", Render: func(_ any, rec model.Record) string {
				return format.Currency(rec.String("currency"), rec.Float("amount"))
			}},
			{Key: "message", Label: "Message", Render: func(v any, _ model.Record) string {
				return format.Truncate(format.OrDefault(v, "No message"), 40)
			}},
			status("status"),
			dated("createdAt", "Date"),
		},
		Filters: []table.Filter{{
			Key:   "status",
			Label: "Status",
			Options: []table.FilterOption{
				{Value: "", Label: "All Status"},
				{Value: "pending", Label: "Pending"},
				{Value: "completed", Label: "Completed"},
				{Value: "failed", Label: "Failed"},
			},
		}},
		Actions: []table.Action{
			{Key: "completed", Label: "Mark as Completed", Kind: table.ActionEdit},
			{Key: "failed", Label: "Mark as Failed", Kind: table.ActionDelete},
		},
		StatusActions: map[string]string{"completed": "completed", "failed": "failed"},
		Noun:          "donation",
		Summaries: []Summary{
			{Label: "Total Raised", Compute: func(records []model.Record) string {
				total := 0.0
				for _, r := range records {
					if r.String("status") == "completed" {
						total += r.Float("amount")
					}
				}
				return format.Money(total)
			}},
			{Label: "Pending", Compute: countWhere("status", "pending")},
		},
	},
	client.ResourceContact: {
		Resource: client.ResourceContact,
		Section:  "contacts",
		Title:    "All Contact Submissions",
		Columns: []table.Column{
			plain("name", "Name"),
			plain("subject", "Subject"),
			truncated("message", "Message", 40),
			status("status"),
			dated("createdAt", "Date"),
		},
		Filters: []table.Filter{{
			Key:   "status",
			Label: "Status",
			Options: []table.FilterOption{
				{Value: "", Label: "All Status"},
				{Value: "new", Label: "New"},
				{Value: "read", Label: "Read"},
				{Value: "replied", Label: "Replied"},
			},
		}},
		Actions: []table.Action{
			{Key: "read", Label: "Mark as Read", Kind: table.ActionView},
			{Key: "replied", Label: "Mark as Replied", Kind: table.ActionEdit},
		},
		StatusActions: map[string]string{"read": "read", "replied": "replied"},
		Noun:          "message",
		Summaries: []Summary{
			{Label: "New Messages", Compute: countWhere("status", "new")},
		},
	},
	client.ResourceVolunteerOpportunities: {
		Resource: client.ResourceVolunteerOpportunities,
		Section:  "volunteers/opportunities",
		Title:    "All Volunteer Opportunities",
		Columns: []table.Column{
			plain("title", "Title"),
			truncated("description", "Description", 40),
			counted("volunteers", "Applications", "applications"),
			active,
		},
		Filters:  []table.Filter{activeFilter},
		Actions:  crudActions,
		LabelKey: "title",
		Noun:     "opportunity",
	},
	client.ResourceVolunteerSubmissions: {
		Resource: client.ResourceVolunteerSubmissions,
		Section:  "volunteers/applications",
		Title:    "All Volunteer Applications",
		Columns: []table.Column{
			plain("name", "Name"),
			plain("phone", "Phone"),
			nestedTitle("opportunity", "Opportunity"),
			dated("createdAt", "Applied On"),
		},
		Noun: "application",
	},
}
