package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ac-server/internal/model"
	"ac-server/internal/repository"
	"ac-server/internal/session"
	"ac-server/internal/storage"
	"ac-server/pkg/clock"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var start = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

// newTestCache 基于临时目录文件存储的缓存
func newTestCache(t *testing.T) (*repository.Cache, *storage.Facade, *clock.Fake) {
	t.Helper()
	backend, err := storage.NewFileBackend(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	facade := storage.NewFacade(backend, zap.NewNop(), nil)
	t.Cleanup(func() { _ = facade.Close() })

	clk := clock.NewFake(start)
	cache := repository.NewCache(facade, clk, zap.NewNop())
	require.NoError(t, cache.Load(context.Background()))
	return cache, facade, clk
}

// reload 从同一个存储重新加载一份缓存，用于断言持久化结果
func reload(t *testing.T, facade *storage.Facade, clk clock.Clock) *repository.Cache {
	t.Helper()
	cache := repository.NewCache(facade, clk, zap.NewNop())
	require.NoError(t, cache.Load(context.Background()))
	return cache
}

// failingStore 单条写入总是失败的存储，其余操作交给真实存储
type failingStore struct {
	*storage.Facade
	err error
}

func (s failingStore) Put(ctx context.Context, rec model.Record) error { return s.err }

// newFailingCache 单条写入失败的缓存
func newFailingCache(t *testing.T, err error) (*repository.Cache, *clock.Fake) {
	t.Helper()
	_, facade, clk := newTestCache(t)
	cache := repository.NewCache(failingStore{Facade: facade, err: err}, clk, zap.NewNop())
	require.NoError(t, cache.Load(context.Background()))
	return cache, clk
}

// fakeGranter 记录发放，可以让指定物品失败
type fakeGranter struct {
	mu      sync.Mutex
	grants  []string
	failFor map[string]error
}

func (g *fakeGranter) Grant(ctx context.Context, principal string, item model.RewardItem) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failFor[item.Material]; err != nil {
		return err
	}
	g.grants = append(g.grants, principal+"/"+item.Material)
	return nil
}

func (g *fakeGranter) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.grants)
}

// fakeMailer 记录发出的邮件
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	to, subject, body string
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

// recordingPublisher 记录推送的公告
type recordingPublisher struct {
	mu        sync.Mutex
	published []string
}

func (p *recordingPublisher) PublishAnnouncement(a model.Announcement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, a.ID)
}

func (p *recordingPublisher) ids() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.published...)
}

func newSessions(clk clock.Clock) *session.MemoryStore {
	return session.NewMemoryStore(time.Hour, clk, zap.NewNop(), nil)
}
