package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

// DefaultTokenKey 令牌在存储中的固定键名
const DefaultTokenKey = "adminToken"

// TokenStore 管理员令牌存储接口
type TokenStore interface {
	// Get 读取令牌，不存在时返回 nil, nil
	Get(ctx context.Context) (*model.AuthToken, error)
	// Set 保存令牌
	Set(ctx context.Context, token *model.AuthToken) error
	// Clear 删除令牌
	Clear(ctx context.Context) error
}

// NopTokenStore 始终为空的存储，用于公开站点请求
type NopTokenStore struct{}

func (NopTokenStore) Get(context.Context) (*model.AuthToken, error) { return nil, nil }
func (NopTokenStore) Set(context.Context, *model.AuthToken) error { return nil }
func (NopTokenStore) Clear(context.Context) error { return nil }

// MemoryTokenStore 进程内令牌存储
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token *model.AuthToken
}

// NewMemoryTokenStore 创建内存令牌存储
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Get(context.Context) (*model.AuthToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil, nil
	}
	t := *s.token
	return &t, nil
}

func (s *MemoryTokenStore) Set(_ context.Context, token *model.AuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == nil {
		s.token = nil
		return nil
	}
	t := *token
	s.token = &t
	return nil
}

func (s *MemoryTokenStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	return nil
}

// FileTokenStore 基于本地JSON文件的令牌存储
// 文件内容为键到令牌的映射，其他键原样保留
type FileTokenStore struct {
	path string
	key  string
	mu   sync.Mutex
}

// NewFileTokenStore 创建文件令牌存储
// 参数: path 文件路径, key 令牌键名(为空时使用 adminToken)
// 返回值: *FileTokenStore 存储实例
func NewFileTokenStore(path, key string) *FileTokenStore {
	if key == "" {
		key = DefaultTokenKey
	}
	return &FileTokenStore{path: path, key: key}
}

func (s *FileTokenStore) Get(context.Context) (*model.AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	raw, ok := entries[s.key]
	if !ok {
		return nil, nil
	}
	var token model.AuthToken
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.key, err)
	}
	return &token, nil
}

// Set 写入令牌，nil 等同于 Clear
func (s *FileTokenStore) Set(ctx context.Context, token *model.AuthToken) error {
	if token == nil {
		return s.Clear(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		entries = map[string]json.RawMessage{}
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	entries[s.key] = raw
	return s.write(entries)
}

func (s *FileTokenStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		entries = map[string]json.RawMessage{}
	}
	if _, ok := entries[s.key]; !ok && err == nil {
		return nil
	}
	delete(entries, s.key)
	return s.write(entries)
}

func (s *FileTokenStore) read() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	entries := map[string]json.RawMessage{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return entries, nil
}

func (s *FileTokenStore) write(entries map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
