package repository

import (
	"context"

	"ac-server/internal/model"
)

// Compensations 全部补偿
func (c *Cache) Compensations() []model.Compensation {
	return c.compensations.all()
}

// FindCompensation 按ID查找补偿
func (c *Cache) FindCompensation(id string) (model.Compensation, bool) {
	return c.compensations.get(id)
}

// FilterCompensations 返回满足条件的补偿
func (c *Cache) FilterCompensations(pred func(*model.Compensation) bool) []model.Compensation {
	return c.compensations.filter(pred)
}

// SaveCompensation 新增或整体替换补偿
func (c *Cache) SaveCompensation(ctx context.Context, comp model.Compensation) (model.Compensation, error) {
	return upsert(ctx, c, c.compensations, comp)
}

// UpdateCompensation 原子地修改一条补偿
func (c *Cache) UpdateCompensation(ctx context.Context, id string, fn func(*model.Compensation) (bool, error)) (model.Compensation, bool, error) {
	return mutate(ctx, c, c.compensations, id, fn)
}

// DeleteCompensation 删除补偿
func (c *Cache) DeleteCompensation(ctx context.Context, id string) error {
	_, err := remove(ctx, c, c.compensations, id)
	return err
}
