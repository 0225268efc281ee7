package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

// RedisTokenStore 基于Redis的令牌存储
// 让后台服务和命令行共享同一个登录会话
type RedisTokenStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewRedisTokenStore 创建Redis令牌存储
// 参数:
//   - client: Redis客户端
//   - prefix: 键前缀
//   - key: 令牌键名(为空时使用 adminToken)
//
// 返回值:
//   - *RedisTokenStore: 存储实例
func NewRedisTokenStore(client *redis.Client, prefix, key string) *RedisTokenStore {
	if key == "" {
		key = DefaultTokenKey
	}
	if prefix != "" {
		key = prefix + ":" + key
	}
	return &RedisTokenStore{client: client, key: key, now: time.Now}
}

func (s *RedisTokenStore) Get(ctx context.Context) (*model.AuthToken, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token from redis: %w", err)
	}
	var token model.AuthToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.key, err)
	}
	return &token, nil
}

// Set 保存令牌，Redis过期时间与令牌过期时间一致，nil 等同于 Clear
func (s *RedisTokenStore) Set(ctx context.Context, token *model.AuthToken) error {
	if token == nil {
		return s.Clear(ctx)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	ttl := token.Expiry().Sub(s.now())
	if ttl <= 0 {
		return s.Clear(ctx)
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write token to redis: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear token in redis: %w", err)
	}
	return nil
}
