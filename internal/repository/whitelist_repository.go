package repository

import (
	"context"

	"ac-server/internal/model"
)

// WhitelistEntries 全部白名单
func (c *Cache) WhitelistEntries() []model.WhitelistEntry {
	return c.whitelist.all()
}

// FindWhitelistEntry 按玩家UUID查找
func (c *Cache) FindWhitelistEntry(playerUUID string) (model.WhitelistEntry, bool) {
	return c.whitelist.get(playerUUID)
}

// SaveWhitelistEntry 新增或替换白名单条目
func (c *Cache) SaveWhitelistEntry(ctx context.Context, entry model.WhitelistEntry) (model.WhitelistEntry, error) {
	return upsert(ctx, c, c.whitelist, entry)
}

// InsertWhitelistEntry 在集合锁内校验后新增白名单条目
func (c *Cache) InsertWhitelistEntry(ctx context.Context, entry model.WhitelistEntry, check func(*model.WhitelistEntry) error) (model.WhitelistEntry, error) {
	return insert(ctx, c, c.whitelist, entry, check)
}

// DeleteWhitelistEntry 删除白名单条目，不存在时返回 ErrNotFound
func (c *Cache) DeleteWhitelistEntry(ctx context.Context, playerUUID string) error {
	_, err := remove(ctx, c, c.whitelist, playerUUID)
	return err
}

// WhitelistEnabled 白名单是否开启
func (c *Cache) WhitelistEnabled() bool {
	c.settingsMu.RLock()
	defer c.settingsMu.RUnlock()
	return c.whitelistEnabled
}

// SetWhitelistEnabled 修改白名单开关并持久化
func (c *Cache) SetWhitelistEnabled(ctx context.Context, enabled bool) error {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()
	c.whitelistEnabled = enabled
	return c.store.SaveWhitelistEnabled(ctx, enabled)
}
