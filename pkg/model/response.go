package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrNoData 响应中没有可解码的数据
var ErrNoData = errors.New("response carries no data")

// APIResponse 后端响应的统一结构
// 无论请求成功还是失败，客户端都只返回该结构
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Status  int             `json:"status,omitempty"`
	Error   string          `json:"error,omitempty"`

	// Raw 后端自带success字段时的原始响应体
	Raw json.RawMessage `json:"-"`
}

// HasData 判断响应是否携带数据
// 返回值: bool 是否有数据
func (r *APIResponse) HasData() bool {
	return len(r.Data) > 0 && string(r.Data) != "null"
}

// DecodeData 将data字段解码到目标结构
// 参数: v 目标对象指针
// 返回值: error 错误信息
func (r *APIResponse) DecodeData(v any) error {
	if !r.HasData() {
		return ErrNoData
	}
	return json.Unmarshal(r.Data, v)
}

// Unwrap 解开 {success, data:{success, data}} 形式的双层信封
// data 不是信封时返回自身
func (r *APIResponse) Unwrap() *APIResponse {
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 || data[0] != '{' {
		return r
	}
	var inner struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &inner); err != nil || inner.Success == nil {
		return r
	}
	message := inner.Message
	if message == "" {
		message = r.Message
	}
	return &APIResponse{
		Success: r.Success && *inner.Success,
		Data:    inner.Data,
		Message: message,
		Status:  r.Status,
		Error:   r.Error,
	}
}

// Records 将data字段解码为记录列表，兼容双层信封
// 返回值: []Record 记录列表, error 错误信息
func (r *APIResponse) Records() ([]Record, error) {
	r = r.Unwrap()
	if !r.HasData() {
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal(r.Data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// MarshalJSON 透传响应保持后端原样输出
func (r APIResponse) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain APIResponse
	return json.Marshal(plain(r))
}

// Failure 构造失败响应
// 参数: message 错误信息, status HTTP状态码(0表示无状态码)
// 返回值: *APIResponse 响应
func Failure(message string, status int) *APIResponse {
	return &APIResponse{Success: false, Message: message, Status: status}
}

// Succeed 构造成功响应
// 参数: data 数据(可为nil)
// 返回值: *APIResponse 响应
func Succeed(data any) *APIResponse {
	resp := &APIResponse{Success: true}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			resp.Data = raw
		}
	}
	return resp
}

// Record 将data字段解码为单条记录，兼容双层信封
func (r *APIResponse) Record() (Record, error) {
	r = r.Unwrap()
	var rec Record
	if err := r.DecodeData(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}
