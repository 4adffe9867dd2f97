package repository

import (
	"context"
	"errors"
	"time"

	"ac-server/internal/model"
)

// EmailCodes 全部验证码
func (c *Cache) EmailCodes() []model.EmailCode {
	return c.emailCodes.all()
}

// FindEmailCode 查找 (email, purpose) 的验证码
func (c *Cache) FindEmailCode(email string, purpose model.CodePurpose) (model.EmailCode, bool) {
	return c.emailCodes.first(func(e *model.EmailCode) bool {
		return e.Email == email && e.Purpose == purpose
	})
}

// ReplaceEmailCode 在一次加锁内删除同一 (email, purpose) 的旧验证码并写入新验证码
func (c *Cache) ReplaceEmailCode(ctx context.Context, code model.EmailCode) (model.EmailCode, error) {
	col := c.emailCodes
	col.mu.Lock()
	defer col.mu.Unlock()

	var errs []error
	kept := col.items[:0]
	var superseded []string
	for _, existing := range col.items {
		if existing.Email == code.Email && existing.Purpose == code.Purpose {
			superseded = append(superseded, existing.ID)
			continue
		}
		kept = append(kept, existing)
	}
	col.items = kept
	for _, id := range superseded {
		errs = append(errs, c.store.Delete(ctx, col.name, id))
	}

	code.ID = ""
	col.stamp(&code, c.clock.Now())
	col.putLocked(code)
	persisted := code
	errs = append(errs, c.store.Put(ctx, &persisted))
	return code, errors.Join(errs...)
}

// DeleteEmailCode 删除验证码
func (c *Cache) DeleteEmailCode(ctx context.Context, id string) error {
	_, err := remove(ctx, c, c.emailCodes, id)
	return err
}

// ConsumeEmailCode 校验通过则删除，返回是否校验通过
func (c *Cache) ConsumeEmailCode(ctx context.Context, email string, purpose model.CodePurpose, match func(model.EmailCode) bool) (bool, error) {
	col := c.emailCodes
	col.mu.Lock()
	defer col.mu.Unlock()

	for i, existing := range col.items {
		if existing.Email != email || existing.Purpose != purpose {
			continue
		}
		if !match(existing) {
			return false, nil
		}
		col.items = append(col.items[:i], col.items[i+1:]...)
		return true, c.store.Delete(ctx, col.name, existing.ID)
	}
	return false, nil
}

// DeleteExpiredEmailCodes 清理过期验证码，返回清理数量
func (c *Cache) DeleteExpiredEmailCodes(ctx context.Context, now time.Time) (int, error) {
	col := c.emailCodes
	col.mu.Lock()
	defer col.mu.Unlock()

	kept := col.items[:0]
	var expired []string
	for _, code := range col.items {
		if code.Expired(now) {
			expired = append(expired, code.ID)
			continue
		}
		kept = append(kept, code)
	}
	col.items = kept

	var errs []error
	for _, id := range expired {
		errs = append(errs, c.store.Delete(ctx, col.name, id))
	}
	return len(expired), errors.Join(errs...)
}
