package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ac-server/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix     = "ac:session:token:"
	principalKeyPrefix = "ac:session:principal:"
)

// RedisStore 基于Redis的令牌存储，过期由Redis TTL保证
type RedisStore struct {
	client  redis.UniversalClient
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewRedisStore 创建Redis令牌存储
func NewRedisStore(client redis.UniversalClient, ttl time.Duration, m *metrics.Metrics) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, metrics: m}
}

func tokenKey(token string) string { return tokenKeyPrefix + token }

func principalKey(p Principal) string { return principalKeyPrefix + p.String() }

// Issue 为主体签发新令牌
func (s *RedisStore) Issue(ctx context.Context, p Principal) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("序列化会话失败: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, tokenKey(token), data, s.ttl)
	pipe.SAdd(ctx, principalKey(p), token)
	pipe.Expire(ctx, principalKey(p), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("保存会话失败: %w", err)
	}
	s.metrics.SessionIssued()
	return token, nil
}

// Resolve 查询令牌对应的主体，并刷新TTL
func (s *RedisStore) Resolve(ctx context.Context, token string) (Principal, error) {
	data, err := s.client.Get(ctx, tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Principal{}, ErrNotFound
	}
	if err != nil {
		return Principal{}, fmt.Errorf("读取会话失败: %w", err)
	}

	var p Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return Principal{}, fmt.Errorf("解析会话失败: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Expire(ctx, tokenKey(token), s.ttl)
	pipe.Expire(ctx, principalKey(p), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return Principal{}, fmt.Errorf("刷新会话失败: %w", err)
	}
	return p, nil
}

// Revoke 注销令牌
func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	data, err := s.client.GetDel(ctx, tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("注销会话失败: %w", err)
	}
	var p Principal
	if json.Unmarshal(data, &p) == nil {
		s.client.SRem(ctx, principalKey(p), token)
	}
	return nil
}

// RevokePrincipal 注销主体的全部令牌
func (s *RedisStore) RevokePrincipal(ctx context.Context, p Principal) error {
	tokens, err := s.client.SMembers(ctx, principalKey(p)).Result()
	if err != nil {
		return fmt.Errorf("读取会话索引失败: %w", err)
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, tokenKey(token))
	}
	keys = append(keys, principalKey(p))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("注销会话失败: %w", err)
	}
	return nil
}
