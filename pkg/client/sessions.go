package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

type storeContextKey struct{}

// ContextWithTokenStore 为单次调用指定令牌存储，优先于客户端注入的存储
// 参数: ctx 上下文, store 令牌存储
// 返回值: context.Context 新上下文
func ContextWithTokenStore(ctx context.Context, store TokenStore) context.Context {
	return context.WithValue(ctx, storeContextKey{}, store)
}

// tokenStore 返回本次调用使用的令牌存储
func (c *apiClient) tokenStore(ctx context.Context) TokenStore {
	if store, ok := ctx.Value(storeContextKey{}).(TokenStore); ok && store != nil {
		return store
	}
	return c.store
}

// SessionStores 按调用方令牌划分的会话存储，每个键对应一个独立的 TokenStore
type SessionStores interface {
	For(key string) TokenStore
}

// SessionKey 由调用方令牌派生存储键，不以明文令牌作键名
func SessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}

// MemorySessionStores 进程内会话存储
type MemorySessionStores struct {
	mu     sync.RWMutex
	tokens map[string]*model.AuthToken
}

// NewMemorySessionStores 创建进程内会话存储
func NewMemorySessionStores() *MemorySessionStores {
	return &MemorySessionStores{tokens: make(map[string]*model.AuthToken)}
}

// For 返回指定键的令牌存储
func (s *MemorySessionStores) For(key string) TokenStore {
	return &memorySession{stores: s, key: key}
}

// Len 当前保存的会话数
func (s *MemorySessionStores) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

type memorySession struct {
	stores *MemorySessionStores
	key    string
}

func (m *memorySession) Get(context.Context) (*model.AuthToken, error) {
	m.stores.mu.RLock()
	defer m.stores.mu.RUnlock()
	token, ok := m.stores.tokens[m.key]
	if !ok {
		return nil, nil
	}
	t := *token
	return &t, nil
}

func (m *memorySession) Set(ctx context.Context, token *model.AuthToken) error {
	if token == nil {
		return m.Clear(ctx)
	}
	m.stores.mu.Lock()
	defer m.stores.mu.Unlock()
	t := *token
	m.stores.tokens[m.key] = &t
	return nil
}

func (m *memorySession) Clear(context.Context) error {
	m.stores.mu.Lock()
	defer m.stores.mu.Unlock()
	delete(m.stores.tokens, m.key)
	return nil
}

// RedisSessionStores 基于Redis的会话存储，多个服务实例共享
type RedisSessionStores struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionStores 创建Redis会话存储
// 参数: client Redis客户端, prefix 键前缀
// 返回值: *RedisSessionStores 存储实例
func NewRedisSessionStores(client *redis.Client, prefix string) *RedisSessionStores {
	return &RedisSessionStores{client: client, prefix: prefix}
}

// For 返回指定键的令牌存储
func (s *RedisSessionStores) For(key string) TokenStore {
	return NewRedisTokenStore(s.client, s.prefix, key)
}
