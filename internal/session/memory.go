package session

import (
	"context"
	"sync"
	"time"

	"ac-server/pkg/clock"
	"ac-server/pkg/metrics"

	"go.uber.org/zap"
)

type entry struct {
	principal Principal
	expiresAt time.Time
}

// MemoryStore 进程内令牌存储，空闲超过 ttl 的令牌失效（滑动过期）
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration
	clock    clock.Clock
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewMemoryStore 创建内存令牌存储
func NewMemoryStore(ttl time.Duration, clk clock.Clock, log *zap.Logger, m *metrics.Metrics) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]entry),
		ttl:      ttl,
		clock:    clk,
		log:      log.Named("session"),
		metrics:  m,
	}
}

// Issue 为主体签发新令牌
func (s *MemoryStore) Issue(ctx context.Context, p Principal) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.sessions[token] = entry{principal: p, expiresAt: s.clock.Now().Add(s.ttl)}
	s.mu.Unlock()
	s.metrics.SessionIssued()
	return token, nil
}

// Resolve 查询令牌对应的主体，并顺延过期时间
func (s *MemoryStore) Resolve(ctx context.Context, token string) (Principal, error) {
	now := s.clock.Now()

	s.mu.RLock()
	e, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return Principal{}, ErrNotFound
	}

	if now.After(e.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.sessions[token]; ok && now.After(cur.expiresAt) {
			delete(s.sessions, token)
		}
		s.mu.Unlock()
		return Principal{}, ErrNotFound
	}

	// 剩余时间不足一半时才续期，减少写锁
	if e.expiresAt.Sub(now) < s.ttl/2 {
		s.mu.Lock()
		if cur, ok := s.sessions[token]; ok {
			cur.expiresAt = now.Add(s.ttl)
			s.sessions[token] = cur
		}
		s.mu.Unlock()
	}
	return e.principal, nil
}

// Revoke 注销令牌
func (s *MemoryStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// RevokePrincipal 注销主体的全部令牌
func (s *MemoryStore) RevokePrincipal(ctx context.Context, p Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, e := range s.sessions {
		if e.principal == p {
			delete(s.sessions, token)
		}
	}
	return nil
}

// Len 当前令牌数量（含未清理的过期令牌）
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep 清理过期令牌
func (s *MemoryStore) Sweep() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Run 定期清理过期令牌，直到 ctx 结束
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Debug("清理过期会话", zap.Int("count", n))
			}
		}
	}
}
