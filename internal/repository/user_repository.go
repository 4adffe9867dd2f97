package repository

import (
	"context"
	"strings"

	"ac-server/internal/model"
)

// Users 全部用户
func (c *Cache) Users() []model.User {
	return c.users.all()
}

// FindUser 按用户名查找
func (c *Cache) FindUser(username string) (model.User, bool) {
	return c.users.get(username)
}

// FindUserByEmail 按邮箱查找，忽略大小写
func (c *Cache) FindUserByEmail(email string) (model.User, bool) {
	return c.users.first(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

// FindUserByUsernameOrEmail 按用户名或邮箱查找
func (c *Cache) FindUserByUsernameOrEmail(identifier string) (model.User, bool) {
	if u, ok := c.FindUser(identifier); ok {
		return u, true
	}
	return c.FindUserByEmail(identifier)
}

// FindUserByGameUUID 按绑定的游戏角色查找
func (c *Cache) FindUserByGameUUID(gameUUID string) (model.User, bool) {
	if gameUUID == "" {
		return model.User{}, false
	}
	return c.users.first(func(u *model.User) bool { return u.GameUUID == gameUUID })
}

// FindUserByQQ 按QQ openId 查找
func (c *Cache) FindUserByQQ(openID string) (model.User, bool) {
	if openID == "" {
		return model.User{}, false
	}
	return c.users.first(func(u *model.User) bool { return u.QQ != nil && u.QQ.OpenID == openID })
}

// FindUserByQQUnion 按QQ unionId 查找
func (c *Cache) FindUserByQQUnion(unionID string) (model.User, bool) {
	if unionID == "" {
		return model.User{}, false
	}
	return c.users.first(func(u *model.User) bool { return u.QQ != nil && u.QQ.UnionID == unionID })
}

// SaveUser 新增或整体替换用户
func (c *Cache) SaveUser(ctx context.Context, user model.User) (model.User, error) {
	return upsert(ctx, c, c.users, user)
}

// UpdateUser 原子地修改一个用户
func (c *Cache) UpdateUser(ctx context.Context, username string, fn func(*model.User) (bool, error)) (model.User, bool, error) {
	return mutate(ctx, c, c.users, username, fn)
}

// DeleteUser 删除用户
func (c *Cache) DeleteUser(ctx context.Context, username string) error {
	_, err := remove(ctx, c, c.users, username)
	return err
}
