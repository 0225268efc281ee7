package client

import (
	"context"
	"io"
	"net/http"
	"time"
)

// ProbeResult 连通性探测结果
type ProbeResult struct {
	URL         string            `json:"url"`
	OK          bool              `json:"ok"`
	Status      int               `json:"status,omitempty"`
	StatusText  string            `json:"statusText,omitempty"`
	ContentType string            `json:"contentType,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Duration    time.Duration     `json:"duration"`
	Body        string            `json:"body,omitempty"`
	Error       string            `json:"error,omitempty"`
	Hint        string            `json:"hint,omitempty"`
}

// Probe 直接请求后端并记录原始响应信息
// 参数: ctx 上下文, path 请求路径
// 返回值: ProbeResult 探测结果
func (c *apiClient) Probe(ctx context.Context, path string) ProbeResult {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	result := ProbeResult{URL: c.config.BaseURL + path}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, result.URL, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		result.Hint = classifyTransportError(err)
		return result
	}
	defer resp.Body.Close()

	result.OK = resp.StatusCode >= 200 && resp.StatusCode <= 299
	result.Status = resp.StatusCode
	result.StatusText = http.StatusText(resp.StatusCode)
	result.ContentType = resp.Header.Get("Content-Type")
	result.Headers = make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		result.Headers[k] = resp.Header.Get(k)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, previewLimit))
	if err != nil {
		result.Error = err.Error()
	}
	result.Body = string(body)
	return result
}
