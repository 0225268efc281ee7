// Package format 提供列表单元格的展示格式
package format

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

// DateLayout 列表中日期的展示格式
const DateLayout = "Jan 02, 2006"

var (
	printer = message.NewPrinter(language.English)
	title   = cases.Title(language.English)
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Number 按英文习惯带千分位输出数字，整数不带小数
func Number(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}

// Money 输出 "$1,234"
func Money(v float64) string {
	return "$" + Number(v)
}

// Currency 输出 "USD 1,234"，币种为空时使用 $
func Currency(code string, v float64) string {
	if code == "" {
		return Money(v)
	}
	return code + " " + Number(v)
}

// Date 将后端时间字符串格式化为 "Jan 02, 2006"，无法解析时原样返回
func Date(v any) string {
	s := model.Stringify(v)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	return s
}

// Status 状态值首字母大写
func Status(v any) string {
	return title.String(model.Stringify(v))
}

// Active 布尔启用状态
func Active(v any) string {
	if b, _ := v.(bool); b {
		return "Active"
	}
	return "Inactive"
}

// OrDefault 空值时返回默认文本
func OrDefault(v any, fallback string) string {
	s := model.Stringify(v)
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// Truncate 按字符截断，超出部分以 ... 结尾
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// Count 统计数组长度，例如 "3 applications"
func Count(v any, noun string) string {
	n := 0
	if items, ok := v.([]any); ok {
		n = len(items)
	}
	return printer.Sprintf("%d %s", n, noun)
}
