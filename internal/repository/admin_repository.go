package repository

import (
	"context"

	"ac-server/internal/model"
)

// Admins 全部管理员
func (c *Cache) Admins() []model.Admin {
	return c.admins.all()
}

// AdminCount 管理员数量
func (c *Cache) AdminCount() int {
	return c.admins.len()
}

// FindAdmin 按用户名查找管理员
func (c *Cache) FindAdmin(username string) (model.Admin, bool) {
	return c.admins.get(username)
}

// SaveAdmin 新增或整体替换管理员
func (c *Cache) SaveAdmin(ctx context.Context, admin model.Admin) (model.Admin, error) {
	return upsert(ctx, c, c.admins, admin)
}

// UpdateAdmin 原子地修改一个管理员
func (c *Cache) UpdateAdmin(ctx context.Context, username string, fn func(*model.Admin) (bool, error)) (model.Admin, bool, error) {
	return mutate(ctx, c, c.admins, username, fn)
}

// InsertAdmin 在集合锁内校验后新增管理员，check 用于唯一性检查
func (c *Cache) InsertAdmin(ctx context.Context, admin model.Admin, check func(*model.Admin) error) (model.Admin, error) {
	return insert(ctx, c, c.admins, admin, check)
}

// DeleteAdminIf 在集合锁内校验后删除管理员，guard 拿到待删记录和当前管理员数量
func (c *Cache) DeleteAdminIf(ctx context.Context, username string, guard func(*model.Admin, int) error) error {
	_, err := removeIf(ctx, c, c.admins, username, guard)
	return err
}
