package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ac-server/internal/model"
	"ac-server/internal/storage"
	"ac-server/pkg/clock"

	"go.uber.org/zap"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// Store 缓存依赖的持久化接口，由 storage.Facade 实现
type Store interface {
	LoadAll(ctx context.Context) (*storage.Dataset, error)
	SaveAll(ctx context.Context, data *storage.Dataset) error
	Put(ctx context.Context, rec model.Record) error
	Delete(ctx context.Context, c storage.Collection, key string) error
	SaveWhitelistEnabled(ctx context.Context, enabled bool) error
}

// Cache 全部集合的内存镜像，查询只读内存，写入同步落盘
// 持久化失败时内存中的修改仍然保留，错误返回给调用方
type Cache struct {
	store Store
	clock clock.Clock
	log   *zap.Logger

	admins        *collection[model.Admin]
	users         *collection[model.User]
	announcements *collection[model.Announcement]
	compensations *collection[model.Compensation]
	whitelist     *collection[model.WhitelistEntry]
	claimLogs     *collection[model.ClaimLog]
	emailCodes    *collection[model.EmailCode]

	settingsMu       sync.RWMutex
	whitelistEnabled bool
}

// NewCache 创建空缓存，需调用 Load 填充
func NewCache(store Store, clk clock.Clock, log *zap.Logger) *Cache {
	return &Cache{
		store: store,
		clock: clk,
		log:   log.Named("cache"),

		admins: newCollection(storage.Admins, model.Admin.Clone, func(a *model.Admin, now time.Time) {
			if a.ID == "" {
				a.ID = model.NewID()
			}
			if a.CreatedAt.IsZero() {
				a.CreatedAt = now
			}
			a.UpdatedAt = now
		}),
		users: newCollection(storage.Users, model.User.Clone, func(u *model.User, now time.Time) {
			if u.ID == "" {
				u.ID = model.NewID()
			}
			if u.CreatedAt.IsZero() {
				u.CreatedAt = now
			}
			u.UpdatedAt = now
		}),
		announcements: newCollection(storage.Announcements, model.Announcement.Clone, func(a *model.Announcement, now time.Time) {
			if a.ID == "" {
				a.ID = model.NewID()
			}
			if a.CreatedAt.IsZero() {
				a.CreatedAt = now
			}
			a.UpdatedAt = now
		}),
		compensations: newCollection(storage.Compensations, model.Compensation.Clone, func(c *model.Compensation, now time.Time) {
			if c.ID == "" {
				c.ID = model.NewID()
			}
			if c.CreatedAt.IsZero() {
				c.CreatedAt = now
			}
			c.UpdatedAt = now
		}),
		whitelist: newCollection(storage.Whitelist, model.WhitelistEntry.Clone, func(w *model.WhitelistEntry, now time.Time) {
			if w.AddedAt.IsZero() {
				w.AddedAt = now
			}
		}),
		claimLogs: newCollection(storage.ClaimLogs, model.ClaimLog.Clone, func(l *model.ClaimLog, now time.Time) {
			if l.ID == "" {
				l.ID = model.NewID()
			}
			if l.ClaimTime.IsZero() {
				l.ClaimTime = now
			}
		}),
		emailCodes: newCollection(storage.EmailCodes, model.EmailCode.Clone, func(c *model.EmailCode, now time.Time) {
			if c.ID == "" {
				c.ID = model.NewID()
			}
			if c.CreatedAt.IsZero() {
				c.CreatedAt = now
			}
		}),
	}
}

// Clock 缓存使用的时钟
func (c *Cache) Clock() clock.Clock { return c.clock }

// Load 从存储加载全部集合；已过期的验证码不会进入缓存
func (c *Cache) Load(ctx context.Context) error {
	data, err := c.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	now := c.clock.Now()
	codes := make([]model.EmailCode, 0, len(data.EmailCodes))
	for _, code := range data.EmailCodes {
		if !code.Expired(now) {
			codes = append(codes, code)
		}
	}

	c.admins.reset(data.Admins)
	c.users.reset(data.Users)
	c.announcements.reset(data.Announcements)
	c.compensations.reset(data.Compensations)
	c.whitelist.reset(data.Whitelist)
	c.claimLogs.reset(data.ClaimLogs)
	c.emailCodes.reset(codes)

	c.settingsMu.Lock()
	c.whitelistEnabled = data.WhitelistEnabled
	c.settingsMu.Unlock()

	c.log.Info("数据加载完成",
		zap.Int("admins", len(data.Admins)),
		zap.Int("users", len(data.Users)),
		zap.Int("announcements", len(data.Announcements)),
		zap.Int("compensations", len(data.Compensations)),
		zap.Int("whitelist", len(data.Whitelist)),
		zap.Int("logs", len(data.ClaimLogs)),
		zap.Int("emailCodes", len(codes)),
		zap.Int("expiredCodesDropped", len(data.EmailCodes)-len(codes)),
	)
	return nil
}

// Flush 全量保存；期间阻塞所有单条写入，保证批量写不会与单条写交错
func (c *Cache) Flush(ctx context.Context) error {
	c.admins.mu.Lock()
	defer c.admins.mu.Unlock()
	c.users.mu.Lock()
	defer c.users.mu.Unlock()
	c.announcements.mu.Lock()
	defer c.announcements.mu.Unlock()
	c.compensations.mu.Lock()
	defer c.compensations.mu.Unlock()
	c.whitelist.mu.Lock()
	defer c.whitelist.mu.Unlock()
	c.claimLogs.mu.Lock()
	defer c.claimLogs.mu.Unlock()
	c.emailCodes.mu.Lock()
	defer c.emailCodes.mu.Unlock()
	c.settingsMu.RLock()
	defer c.settingsMu.RUnlock()

	data := &storage.Dataset{
		Admins:           c.admins.cloneLocked(),
		Users:            c.users.cloneLocked(),
		Announcements:    c.announcements.cloneLocked(),
		Compensations:    c.compensations.cloneLocked(),
		Whitelist:        c.whitelist.cloneLocked(),
		ClaimLogs:        c.claimLogs.cloneLocked(),
		EmailCodes:       c.emailCodes.cloneLocked(),
		WhitelistEnabled: c.whitelistEnabled,
	}
	if err := c.store.SaveAll(ctx, data); err != nil {
		return fmt.Errorf("全量保存失败: %w", err)
	}
	return nil
}

// upsert 赋ID、打时间戳、替换或追加，然后持久化这一条记录
func upsert[T any, PT interface {
	*T
	model.Record
}](ctx context.Context, c *Cache, col *collection[T], rec T) (T, error) {
	rec = col.clone(rec)

	col.mu.Lock()
	defer col.mu.Unlock()

	col.stamp(&rec, c.clock.Now())
	col.putLocked(rec)

	persisted := col.clone(rec)
	err := c.store.Put(ctx, PT(&persisted))
	return col.clone(rec), err
}

// mutate 在集合锁内读-改-写一条记录；fn 返回 false 表示无变化，不落盘
func mutate[T any, PT interface {
	*T
	model.Record
}](ctx context.Context, c *Cache, col *collection[T], key string, fn func(*T) (bool, error)) (T, bool, error) {
	col.mu.Lock()
	defer col.mu.Unlock()

	idx := col.indexLocked(key)
	if idx < 0 {
		var zero T
		return zero, false, ErrNotFound
	}
	rec := col.clone(col.items[idx])
	changed, err := fn(&rec)
	if err != nil || !changed {
		return col.clone(col.items[idx]), false, err
	}

	col.stamp(&rec, c.clock.Now())
	col.items[idx] = rec

	persisted := col.clone(rec)
	err = c.store.Put(ctx, PT(&persisted))
	return col.clone(rec), true, err
}

// insert 在集合锁内检查冲突后写入；check 对每条已有记录调用，返回错误即放弃写入
func insert[T any, PT interface {
	*T
	model.Record
}](ctx context.Context, c *Cache, col *collection[T], rec T, check func(*T) error) (T, error) {
	rec = col.clone(rec)

	col.mu.Lock()
	defer col.mu.Unlock()

	for i := range col.items {
		if err := check(&col.items[i]); err != nil {
			var zero T
			return zero, err
		}
	}
	col.stamp(&rec, c.clock.Now())
	col.putLocked(rec)

	persisted := col.clone(rec)
	err := c.store.Put(ctx, PT(&persisted))
	return col.clone(rec), err
}

// remove 按键删除并持久化
func remove[T any](ctx context.Context, c *Cache, col *collection[T], key string) (T, error) {
	return removeIf(ctx, c, col, key, nil)
}

// removeIf 在集合锁内校验后删除；guard 拿到待删记录和当前记录数，返回错误即放弃删除
func removeIf[T any](ctx context.Context, c *Cache, col *collection[T], key string, guard func(*T, int) error) (T, error) {
	col.mu.Lock()
	defer col.mu.Unlock()

	var zero T
	idx := col.indexLocked(key)
	if idx < 0 {
		return zero, ErrNotFound
	}
	if guard != nil {
		if err := guard(&col.items[idx], len(col.items)); err != nil {
			return zero, err
		}
	}
	removed := col.items[idx]
	col.items = append(col.items[:idx], col.items[idx+1:]...)
	return removed, c.store.Delete(ctx, col.name, key)
}
