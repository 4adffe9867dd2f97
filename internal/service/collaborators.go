package service

import (
	"context"

	"ac-server/internal/model"

	"go.uber.org/zap"
)

// Granter 物品发放（游戏背包）协作者
type Granter interface {
	Grant(ctx context.Context, principal string, item model.RewardItem) error
}

// Mailer 邮件发送协作者
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Publisher 公告推送协作者，例如WebSocket连接管理器
type Publisher interface {
	PublishAnnouncement(a model.Announcement)
}

// LoggingGranter 只记录日志的发放器，用于未接入游戏服务器时
type LoggingGranter struct {
	log *zap.Logger
}

// NewLoggingGranter 创建日志发放器
func NewLoggingGranter(log *zap.Logger) *LoggingGranter {
	return &LoggingGranter{log: log.Named("granter")}
}

// Grant 记录一次发放
func (g *LoggingGranter) Grant(ctx context.Context, principal string, item model.RewardItem) error {
	g.log.Info("发放补偿物品",
		zap.String("player", principal),
		zap.String("material", item.Material),
		zap.Int("amount", item.Amount),
	)
	return nil
}

type nopPublisher struct{}

func (nopPublisher) PublishAnnouncement(model.Announcement) {}
