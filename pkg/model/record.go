package model

import (
	"encoding/json"
	"strconv"
)

// Record 一条后端记录，字段保持JSON解码后的原始值
type Record map[string]any

// ID 返回记录标识的字符串形式
// 返回值: string 标识, bool 是否存在
func (r Record) ID() (string, bool) {
	v, ok := r["id"]
	if !ok || v == nil {
		return "", false
	}
	s := Stringify(v)
	return s, s != ""
}

// String 读取字符串字段，缺失时返回空串
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	return Stringify(v)
}

// Bool 读取布尔字段
func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Float 读取数值字段，兼容数字字符串
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

// Nested 读取嵌套对象字段
func (r Record) Nested(key string) Record {
	switch v := r[key].(type) {
	case map[string]any:
		return Record(v)
	case Record:
		return v
	}
	return nil
}

// Stringify 将原始值转换为用于搜索和过滤比较的字符串
// 布尔值为 "true"/"false"，数字使用最短表示，nil为空串
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
