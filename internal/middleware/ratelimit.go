package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vera-byte/vgo-ngo-admin/internal/config"
	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

// RateLimiter 速率限制器接口
type RateLimiter interface {
	// Allow 检查是否允许请求
	Allow(ctx context.Context, key string) (bool, error)
	// AllowN 检查是否允许N个请求
	AllowN(ctx context.Context, key string, n int) (bool, error)
	// Reset 重置指定key的限制
	Reset(ctx context.Context, key string) error
	// GetRemaining 获取剩余请求数
	GetRemaining(ctx context.Context, key string) (int, error)
}

// 滑动窗口，分数为毫秒时间戳，成员带随机后缀避免同一毫秒内互相覆盖
const allowScript = `
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local count = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])
local nonce = ARGV[6]

redis.call('ZREMRANGEBYSCORE', key, 0, window_start)

local current = redis.call('ZCARD', key)
if current + count > limit then
	return {0, current}
end

for i = 1, count do
	redis.call('ZADD', key, now, nonce .. ':' .. i)
end
redis.call('EXPIRE', key, ttl)

return {1, current + count}
`

const remainingScript = `
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])

redis.call('ZREMRANGEBYSCORE', key, 0, window_start)

return limit - redis.call('ZCARD', key)
`

// RedisRateLimiter Redis实现的速率限制器
type RedisRateLimiter struct {
	client redis.UniversalClient
	limit  int           // 限制数量
	window time.Duration // 时间窗口
	prefix string        // key前缀
}

// NewRedisRateLimiter 创建Redis速率限制器
// 参数:
//   - client: Redis客户端
//   - limit: 限制数量
//   - window: 时间窗口
//   - prefix: key前缀
//
// 返回值:
//   - *RedisRateLimiter: Redis速率限制器实例
func NewRedisRateLimiter(client redis.UniversalClient, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// Allow 检查是否允许请求
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return r.AllowN(ctx, key, 1)
}

// AllowN 检查是否允许N个请求
// 参数:
//   - ctx: 上下文
//   - key: 限流key
//   - n: 请求数量
//
// 返回值:
//   - bool: 是否允许
//   - error: 错误信息
func (r *RedisRateLimiter) AllowN(ctx context.Context, key string, n int) (bool, error) {
	now := time.Now().UnixMilli()
	windowStart := now - r.window.Milliseconds()
	ttl := int(r.window.Seconds())
	if ttl < 1 {
		ttl = 1
	}

	result, err := r.client.Eval(ctx, allowScript, []string{r.getKey(key)},
		windowStart, now, r.limit, n, ttl, uuid.NewString()).Slice()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}
	if len(result) == 0 {
		return false, fmt.Errorf("unexpected rate limit result: %v", result)
	}

	allowed, _ := result[0].(int64)
	return allowed == 1, nil
}

// Reset 重置指定key的限制
func (r *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.getKey(key)).Err()
}

// GetRemaining 获取剩余请求数
func (r *RedisRateLimiter) GetRemaining(ctx context.Context, key string) (int, error) {
	windowStart := time.Now().UnixMilli() - r.window.Milliseconds()

	remaining, err := r.client.Eval(ctx, remainingScript, []string{r.getKey(key)}, windowStart, r.limit).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to read rate limit: %w", err)
	}
	return max(remaining, 0), nil
}

// getKey 获取完整的key
func (r *RedisRateLimiter) getKey(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

// MemoryRateLimiter 内存实现的速率限制器
type MemoryRateLimiter struct {
	limit    int
	window   time.Duration
	requests map[string][]time.Time
	now      func() time.Time
	mu       sync.Mutex
}

// NewMemoryRateLimiter 创建内存速率限制器
// 参数:
//   - limit: 限制数量
//   - window: 时间窗口
//
// 返回值:
//   - *MemoryRateLimiter: 内存速率限制器实例
func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		limit:    limit,
		window:   window,
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow 检查是否允许请求
func (m *MemoryRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return m.AllowN(ctx, key, 1)
}

// AllowN 检查是否允许N个请求
func (m *MemoryRateLimiter) AllowN(_ context.Context, key string, n int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	valid := m.prune(key, now)
	if len(valid)+n > m.limit {
		return false, nil
	}
	for i := 0; i < n; i++ {
		valid = append(valid, now)
	}
	m.requests[key] = valid
	return true, nil
}

// Reset 重置指定key的限制
func (m *MemoryRateLimiter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requests, key)
	return nil
}

// GetRemaining 获取剩余请求数
func (m *MemoryRateLimiter) GetRemaining(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return max(m.limit-len(m.prune(key, m.now())), 0), nil
}

// prune 清理窗口外的请求，调用方需持有锁
func (m *MemoryRateLimiter) prune(key string, now time.Time) []time.Time {
	windowStart := now.Add(-m.window)
	requests := m.requests[key]
	valid := requests[:0]
	for _, req := range requests {
		if req.After(windowStart) {
			valid = append(valid, req)
		}
	}
	if len(valid) == 0 {
		delete(m.requests, key)
		return nil
	}
	m.requests[key] = valid
	return valid
}

// NewRateLimiter 创建新的限流器
// 参数: cfg 限流配置
// 返回值: RateLimiter 限流器接口, error 错误信息
func NewRateLimiter(cfg config.RateLimitConfig) (RateLimiter, error) {
	if !cfg.Enabled {
		return &NoOpRateLimiter{}, nil
	}

	window := time.Duration(cfg.Expiration) * time.Second
	if window <= 0 {
		window = time.Minute
	}

	switch cfg.Type {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPass,
		})
		return NewRedisRateLimiter(client, cfg.Rate, window, cfg.Prefix), nil
	case "memory":
		return NewMemoryRateLimiter(cfg.Rate, window), nil
	default:
		return nil, fmt.Errorf("unsupported rate limiter type: %s", cfg.Type)
	}
}

// NoOpRateLimiter 无操作速率限制器（用于禁用限流时）
type NoOpRateLimiter struct{}

// Allow 总是允许请求
func (noop *NoOpRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}

// AllowN 总是允许N个请求
func (noop *NoOpRateLimiter) AllowN(ctx context.Context, key string, count int) (bool, error) {
	return true, nil
}

// Reset 重置（无操作）
func (noop *NoOpRateLimiter) Reset(ctx context.Context, key string) error {
	return nil
}

// GetRemaining 获取剩余请求数（总是返回最大值）
func (noop *NoOpRateLimiter) GetRemaining(ctx context.Context, key string) (int, error) {
	return 1000000, nil
}

// KeyFunc 生成限流key的函数类型
type KeyFunc func(c *gin.Context) string

// DefaultKeyFunc 默认的key生成函数（基于IP地址）
func DefaultKeyFunc(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		// 取第一个IP（原始客户端IP）
		first, _, _ := strings.Cut(ip, ",")
		return fmt.Sprintf("ip:%s", strings.TrimSpace(first))
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return fmt.Sprintf("ip:%s", ip)
	}
	if ip, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return fmt.Sprintf("ip:%s", ip)
	}
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// PathKeyFunc 基于请求路径的key生成函数
func PathKeyFunc(c *gin.Context) string {
	return fmt.Sprintf("path:%s:%s", c.Request.Method, c.FullPath())
}

// CombinedKeyFunc 组合多个key生成函数
func CombinedKeyFunc(funcs ...KeyFunc) KeyFunc {
	return func(c *gin.Context) string {
		keys := make([]string, len(funcs))
		for i, fn := range funcs {
			keys[i] = fn(c)
		}
		return strings.Join(keys, ":")
	}
}

// RateLimitMiddleware 速率限制中间件
// 参数:
//   - limiter: 速率限制器
//   - keyFunc: key生成函数
//
// 返回值:
//   - gin.HandlerFunc: Gin中间件函数
func RateLimitMiddleware(limiter RateLimiter, keyFunc KeyFunc) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = DefaultKeyFunc
	}

	return func(c *gin.Context) {
		key := keyFunc(c)
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				model.Failure("Rate limiter error", http.StatusInternalServerError))
			return
		}

		remaining, _ := limiter.GetRemaining(c.Request.Context(), key)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				model.Failure("Rate limit exceeded", http.StatusTooManyRequests))
			return
		}
		c.Next()
	}
}
