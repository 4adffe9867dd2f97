package repository

import (
	"context"

	"ac-server/internal/model"
)

// ClaimLogs 全部领取日志
func (c *Cache) ClaimLogs() []model.ClaimLog {
	return c.claimLogs.all()
}

// FilterClaimLogs 返回满足条件的领取日志
func (c *Cache) FilterClaimLogs(pred func(*model.ClaimLog) bool) []model.ClaimLog {
	return c.claimLogs.filter(pred)
}

// AppendClaimLog 追加一条领取日志
func (c *Cache) AppendClaimLog(ctx context.Context, log model.ClaimLog) (model.ClaimLog, error) {
	log.ID = ""
	return upsert(ctx, c, c.claimLogs, log)
}
