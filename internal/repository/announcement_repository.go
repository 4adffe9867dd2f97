package repository

import (
	"context"

	"ac-server/internal/model"
)

// Announcements 全部公告
func (c *Cache) Announcements() []model.Announcement {
	return c.announcements.all()
}

// FindAnnouncement 按ID查找公告
func (c *Cache) FindAnnouncement(id string) (model.Announcement, bool) {
	return c.announcements.get(id)
}

// FilterAnnouncements 返回满足条件的公告
func (c *Cache) FilterAnnouncements(pred func(*model.Announcement) bool) []model.Announcement {
	return c.announcements.filter(pred)
}

// SaveAnnouncement 新增或整体替换公告
func (c *Cache) SaveAnnouncement(ctx context.Context, a model.Announcement) (model.Announcement, error) {
	return upsert(ctx, c, c.announcements, a)
}

// UpdateAnnouncement 原子地修改一条公告
func (c *Cache) UpdateAnnouncement(ctx context.Context, id string, fn func(*model.Announcement) (bool, error)) (model.Announcement, bool, error) {
	return mutate(ctx, c, c.announcements, id, fn)
}

// DeleteAnnouncement 删除公告
func (c *Cache) DeleteAnnouncement(ctx context.Context, id string) error {
	_, err := remove(ctx, c, c.announcements, id)
	return err
}
