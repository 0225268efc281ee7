package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Body 预先序列化好的请求体
type Body struct {
	Reader      io.Reader
	ContentType string
}

// JSONBody 将对象编码为JSON请求体
func JSONBody(v any) (Body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Body{}, fmt.Errorf("failed to encode body: %w", err)
	}
	return Body{Reader: bytes.NewReader(data), ContentType: "application/json"}, nil
}

// RawBody 原样转发的请求体
func RawBody(r io.Reader, contentType string) Body {
	return Body{Reader: r, ContentType: contentType}
}

func (b Body) options(method string) RequestOptions {
	opts := RequestOptions{Method: method, Body: b.Reader}
	if b.ContentType != "" {
		opts.Headers = map[string]string{"Content-Type": b.ContentType}
	}
	return opts
}

// FormBuilder multipart表单构造器，用于带图片上传的创建和更新
type FormBuilder struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

// NewForm 创建表单构造器
func NewForm() *FormBuilder {
	f := &FormBuilder{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

// Field 添加文本字段
func (f *FormBuilder) Field(name, value string) *FormBuilder {
	if f.err != nil {
		return f
	}
	f.err = f.w.WriteField(name, value)
	return f
}

// File 添加文件字段
func (f *FormBuilder) File(field, filename string, r io.Reader) *FormBuilder {
	if f.err != nil {
		return f
	}
	part, err := f.w.CreateFormFile(field, filename)
	if err != nil {
		f.err = err
		return f
	}
	_, f.err = io.Copy(part, r)
	return f
}

// FileFromPath 从本地路径添加文件字段
func (f *FormBuilder) FileFromPath(field, path string) *FormBuilder {
	if f.err != nil {
		return f
	}
	file, err := os.Open(path)
	if err != nil {
		f.err = fmt.Errorf("failed to open %s: %w", path, err)
		return f
	}
	defer file.Close()
	return f.File(field, filepath.Base(path), file)
}

// Body 结束表单并返回请求体
func (f *FormBuilder) Body() (Body, error) {
	if f.err != nil {
		return Body{}, f.err
	}
	if err := f.w.Close(); err != nil {
		return Body{}, err
	}
	return Body{Reader: bytes.NewReader(f.buf.Bytes()), ContentType: f.w.FormDataContentType()}, nil
}
