package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ac-server/internal/model"
	"ac-server/internal/repository"

	"go.uber.org/zap"
)

// WhitelistInput 添加白名单的参数
type WhitelistInput struct {
	PlayerUUID string `json:"playerUuid" binding:"required"`
	PlayerName string `json:"playerName" binding:"required"`
	Reason     string `json:"reason"`
}

// WhitelistService 白名单管理
type WhitelistService struct {
	cache *repository.Cache
	log   *zap.Logger
}

// NewWhitelistService 创建白名单服务
func NewWhitelistService(cache *repository.Cache, log *zap.Logger) *WhitelistService {
	return &WhitelistService{cache: cache, log: log.Named("whitelist")}
}

// Add 添加玩家，UUID 或玩家名已存在时返回 ErrAlreadyExists
func (s *WhitelistService) Add(ctx context.Context, addedBy string, in WhitelistInput) (model.WhitelistEntry, error) {
	uuid := strings.TrimSpace(in.PlayerUUID)
	name := strings.TrimSpace(in.PlayerName)
	if uuid == "" || name == "" {
		return model.WhitelistEntry{}, fmt.Errorf("%w: player uuid and name are required", ErrInvalidInput)
	}
	entry, err := s.cache.InsertWhitelistEntry(ctx, model.WhitelistEntry{
		PlayerUUID: uuid,
		PlayerName: name,
		AddedBy:    addedBy,
		Reason:     in.Reason,
	}, func(existing *model.WhitelistEntry) error {
		if existing.PlayerUUID == uuid {
			return fmt.Errorf("%w: player %s", ErrAlreadyExists, uuid)
		}
		if strings.EqualFold(existing.PlayerName, name) {
			return fmt.Errorf("%w: player %s", ErrAlreadyExists, name)
		}
		return nil
	})
	if err == nil {
		s.log.Info("添加白名单", zap.String("player", name), zap.String("by", addedBy))
	}
	return entry, err
}

// Remove 按玩家UUID移除，不存在时返回 ErrNotFound
func (s *WhitelistService) Remove(ctx context.Context, playerUUID string) error {
	return s.cache.DeleteWhitelistEntry(ctx, playerUUID)
}

// List 全部白名单，按添加时间先后
func (s *WhitelistService) List() []model.WhitelistEntry {
	list := s.cache.WhitelistEntries()
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].AddedAt.Before(list[j].AddedAt)
	})
	return list
}

// Contains 玩家是否在白名单中
func (s *WhitelistService) Contains(playerUUID string) bool {
	_, ok := s.cache.FindWhitelistEntry(playerUUID)
	return ok
}

// Enabled 白名单是否开启
func (s *WhitelistService) Enabled() bool {
	return s.cache.WhitelistEnabled()
}

// SetEnabled 开关白名单
func (s *WhitelistService) SetEnabled(ctx context.Context, enabled bool) error {
	return s.cache.SetWhitelistEnabled(ctx, enabled)
}

// Admit 玩家能否进入服务器：只有白名单开启且玩家不在名单中时拒绝
func (s *WhitelistService) Admit(playerUUID string) bool {
	return !s.Enabled() || s.Contains(playerUUID)
}
