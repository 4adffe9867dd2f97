package service

import (
	"sort"

	"ac-server/internal/model"
	"ac-server/internal/repository"
)

// ClaimLogService 领取日志查询，日志只由领取流程追加
type ClaimLogService struct {
	cache *repository.Cache
}

// NewClaimLogService 创建日志查询服务
func NewClaimLogService(cache *repository.Cache) *ClaimLogService {
	return &ClaimLogService{cache: cache}
}

// List 全部日志，最新的在前
func (s *ClaimLogService) List() []model.ClaimLog {
	return newestFirst(s.cache.ClaimLogs())
}

// ForPrincipal 某个玩家的领取日志
func (s *ClaimLogService) ForPrincipal(playerUUID string) []model.ClaimLog {
	return newestFirst(s.cache.FilterClaimLogs(func(l *model.ClaimLog) bool {
		return l.PlayerUUID == playerUUID
	}))
}

// ForCompensation 某个补偿的领取日志
func (s *ClaimLogService) ForCompensation(compensationID string) []model.ClaimLog {
	return newestFirst(s.cache.FilterClaimLogs(func(l *model.ClaimLog) bool {
		return l.CompensationID == compensationID
	}))
}

func newestFirst(logs []model.ClaimLog) []model.ClaimLog {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].ClaimTime.After(logs[j].ClaimTime)
	})
	return logs
}
