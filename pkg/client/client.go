package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

const (
	// DefaultBaseURL 后端默认地址
	DefaultBaseURL = "http://localhost:3001/api"
	// DefaultTokenTTL 登录令牌的固定有效期
	DefaultTokenTTL = 24 * time.Hour

	msgHTTPError   = "HTTP error! status: %d"
	msgNonJSON     = "Server returned non-JSON response"
	msgInvalidJSON = "Server returned invalid JSON response"

	previewLimit = 200
	maxBodyBytes = 32 << 20
)

// Client 后端API客户端接口
type Client interface {
	// Request 发送一次请求并返回统一响应，任何失败都体现在返回值中
	Request(ctx context.Context, path string, opts RequestOptions) *model.APIResponse

	// Login 管理员登录，成功后保存令牌
	Login(ctx context.Context, creds model.LoginRequest) *model.APIResponse

	// Logout 退出登录，无论后端结果如何都会清除本地令牌
	Logout(ctx context.Context) error

	// IsAuthenticated 本地令牌是否存在且未过期
	IsAuthenticated(ctx context.Context) bool

	// Session 当前会话信息，过期令牌会被清除
	Session(ctx context.Context) model.Session

	// Probe 连通性探测，不做响应归一化
	Probe(ctx context.Context, path string) ProbeResult

	// BaseURL 返回后端地址
	BaseURL() string
}

// RequestOptions 请求选项
// Body 由调用方预先序列化(JSON或multipart)
type RequestOptions struct {
	Method  string
	Headers map[string]string
	Body    io.Reader
}

// Config 客户端配置
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	TokenTTL time.Duration
}

// apiClient 客户端实现
type apiClient struct {
	config     Config
	httpClient *http.Client
	store      TokenStore
	logger     *zap.Logger
	now        func() time.Time
}

// Option 客户端可选项
type Option func(*apiClient)

// WithTokenStore 注入令牌存储，不注入时所有请求都不带认证头
func WithTokenStore(store TokenStore) Option {
	return func(c *apiClient) { c.store = store }
}

// WithHTTPClient 替换底层HTTP客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *apiClient) { c.httpClient = hc }
}

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(c *apiClient) { c.logger = logger }
}

// WithClock 设置时钟
func WithClock(now func() time.Time) Option {
	return func(c *apiClient) { c.now = now }
}

// NewClient 创建新的API客户端
// 参数: cfg 客户端配置, opts 可选项
// 返回值: Client 客户端接口, error 错误信息
func NewClient(cfg Config, opts ...Option) (Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", cfg.BaseURL)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}

	c := &apiClient{
		config:     cfg,
		httpClient: &http.Client{},
		store:      NopTokenStore{},
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL 返回后端地址
func (c *apiClient) BaseURL() string {
	return c.config.BaseURL
}

// Request 发送请求
func (c *apiClient) Request(ctx context.Context, path string, opts RequestOptions) *model.APIResponse {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	fullURL := c.config.BaseURL + path
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, method, fullURL, opts.Body)
	if err != nil {
		c.logger.Error("Failed to build request", zap.String("url", fullURL), zap.Error(err))
		return &model.APIResponse{Success: false, Message: msgNetwork, Error: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("Requesting",
		zap.String("method", method),
		zap.String("url", fullURL),
		zap.String("request_id", requestID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportFailure(fullURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		c.logger.Error("Backend returned error status",
			zap.String("url", fullURL),
			zap.Int("status", resp.StatusCode))
		return &model.APIResponse{
			Success: false,
			Message: fmt.Sprintf(msgHTTPError, resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.transportFailure(fullURL, err)
	}

	return c.normalize(fullURL, resp, body)
}

// normalize 将2xx响应转换为统一结构
func (c *apiClient) normalize(fullURL string, resp *http.Response, body []byte) *model.APIResponse {
	trimmed := bytes.TrimSpace(body)
	if resp.StatusCode == http.StatusNoContent || len(trimmed) == 0 {
		return &model.APIResponse{Success: true}
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		c.logger.Error("Non-JSON response",
			zap.String("url", fullURL),
			zap.String("content_type", resp.Header.Get("Content-Type")),
			zap.String("preview", preview(trimmed)))
		return &model.APIResponse{Success: false, Message: msgNonJSON, Status: resp.StatusCode}
	}

	if !json.Valid(trimmed) {
		c.logger.Error("Invalid JSON response",
			zap.String("url", fullURL),
			zap.String("preview", preview(trimmed)))
		return &model.APIResponse{Success: false, Message: msgInvalidJSON, Status: resp.StatusCode}
	}

	if envelope, ok := decodeEnvelope(trimmed); ok {
		return envelope
	}

	return &model.APIResponse{Success: true, Data: json.RawMessage(trimmed)}
}

// decodeEnvelope 解析后端自带的 {success, ...} 结构
// 只有success为布尔值时才视为信封
func decodeEnvelope(body []byte) (*model.APIResponse, bool) {
	if body[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, false
	}
	var success *bool
	if raw, ok := fields["success"]; !ok || json.Unmarshal(raw, &success) != nil || success == nil {
		return nil, false
	}

	resp := &model.APIResponse{Success: *success, Raw: json.RawMessage(body)}
	if raw, ok := fields["data"]; ok {
		resp.Data = raw
	}
	_ = json.Unmarshal(fields["message"], &resp.Message)
	_ = json.Unmarshal(fields["error"], &resp.Error)
	_ = json.Unmarshal(fields["status"], &resp.Status)
	return resp, true
}

// bearer 读取未过期的令牌，读取失败视为未登录
func (c *apiClient) bearer(ctx context.Context) string {
	token, err := c.tokenStore(ctx).Get(ctx)
	if err != nil {
		c.logger.Warn("Failed to read admin token", zap.Error(err))
		return ""
	}
	if !token.Valid(c.now()) {
		return ""
	}
	return token.Token
}

func preview(body []byte) string {
	if len(body) > previewLimit {
		return string(body[:previewLimit])
	}
	return string(body)
}
