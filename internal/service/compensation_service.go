package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ac-server/internal/model"
	"ac-server/internal/repository"
	"ac-server/pkg/metrics"

	"go.uber.org/zap"
)

// CompensationInput 创建或编辑补偿的参数
type CompensationInput struct {
	Title       string             `json:"title" binding:"required"`
	Description string             `json:"description"`
	Items       []model.RewardItem `json:"items"`
}

func (in CompensationInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.Material) == "" || it.Amount <= 0 {
			return fmt.Errorf("%w: item %d needs a material and a positive amount", ErrInvalidInput, i)
		}
	}
	return nil
}

// Player 领取补偿的玩家，UUID 作为领取状态的键
type Player struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// ItemFailure 单个物品发放失败
type ItemFailure struct {
	Item  model.RewardItem `json:"item"`
	Error string           `json:"error"`
}

// ClaimResult 一次领取的结果
// 即使有物品发放失败，补偿也已经被标记为已领取
type ClaimResult struct {
	CompensationID string             `json:"compensationId"`
	Title          string             `json:"title"`
	Granted        []model.RewardItem `json:"granted"`
	Failed         []ItemFailure      `json:"failed,omitempty"`
}

// Complete 所有物品是否都发放成功
func (r ClaimResult) Complete() bool {
	return len(r.Failed) == 0
}

// CompensationService 补偿管理与领取
type CompensationService struct {
	cache   *repository.Cache
	granter Granter
	locks   *keyedMutex
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewCompensationService 创建补偿服务
func NewCompensationService(cache *repository.Cache, granter Granter, log *zap.Logger, m *metrics.Metrics) *CompensationService {
	return &CompensationService{
		cache:   cache,
		granter: granter,
		locks:   newKeyedMutex(),
		log:     log.Named("compensation"),
		metrics: m,
	}
}

// Create 新建补偿
func (s *CompensationService) Create(ctx context.Context, author string, in CompensationInput) (model.Compensation, error) {
	if err := in.validate(); err != nil {
		return model.Compensation{}, err
	}
	return s.cache.SaveCompensation(ctx, model.Compensation{
		Title:       in.Title,
		Description: in.Description,
		Items:       in.Items,
		Author:      author,
		ClaimStatus: map[string]bool{},
	})
}

// Update 编辑补偿内容，保留领取状态
func (s *CompensationService) Update(ctx context.Context, id string, in CompensationInput) (model.Compensation, error) {
	if err := in.validate(); err != nil {
		return model.Compensation{}, err
	}
	updated, _, err := s.cache.UpdateCompensation(ctx, id, func(c *model.Compensation) (bool, error) {
		c.Title = in.Title
		c.Description = in.Description
		c.Items = in.Items
		return true, nil
	})
	return updated, err
}

// Delete 删除补偿，领取日志保留
func (s *CompensationService) Delete(ctx context.Context, id string) error {
	return s.cache.DeleteCompensation(ctx, id)
}

// Get 按ID获取补偿
func (s *CompensationService) Get(id string) (model.Compensation, error) {
	c, ok := s.cache.FindCompensation(id)
	if !ok {
		return model.Compensation{}, ErrNotFound
	}
	return c, nil
}

// List 全部补偿，最新的在前
func (s *CompensationService) List() []model.Compensation {
	list := s.cache.Compensations()
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// IsClaimed 玩家是否已领取该补偿；补偿不存在时为 false
func (s *CompensationService) IsClaimed(id, principal string) bool {
	c, ok := s.cache.FindCompensation(id)
	return ok && c.ClaimedBy(principal)
}

// Unclaimed 玩家尚未领取的补偿，按创建时间先后
func (s *CompensationService) Unclaimed(principal string) []model.Compensation {
	list := s.cache.FilterCompensations(func(c *model.Compensation) bool {
		return !c.ClaimedBy(principal)
	})
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// Claim 领取一个补偿
// 同一玩家的领取串行执行，保证每个 (补偿, 玩家) 最多发放一次
func (s *CompensationService) Claim(ctx context.Context, id string, player Player) (ClaimResult, error) {
	if player.UUID == "" {
		return ClaimResult{}, fmt.Errorf("%w: player uuid is required", ErrInvalidInput)
	}
	unlock := s.locks.Lock(player.UUID)
	defer unlock()

	comp, ok := s.cache.FindCompensation(id)
	if !ok {
		return ClaimResult{}, ErrNotFound
	}
	return s.claimLocked(ctx, comp, player)
}

// ClaimAll 领取玩家全部未领取的补偿
func (s *CompensationService) ClaimAll(ctx context.Context, player Player) ([]ClaimResult, error) {
	if player.UUID == "" {
		return nil, fmt.Errorf("%w: player uuid is required", ErrInvalidInput)
	}
	unlock := s.locks.Lock(player.UUID)
	defer unlock()

	pending := s.Unclaimed(player.UUID)
	if len(pending) == 0 {
		return nil, ErrNothingToClaim
	}
	results := make([]ClaimResult, 0, len(pending))
	var errs []error
	for _, comp := range pending {
		res, err := s.claimLocked(ctx, comp, player)
		if errors.Is(err, ErrAlreadyClaimed) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
		if res.CompensationID != "" {
			results = append(results, res)
		}
	}
	return results, errors.Join(errs...)
}

// claimLocked 调用方必须持有玩家锁
// 发放 → 标记已领取 → 追加日志；单个物品失败不影响状态变更
func (s *CompensationService) claimLocked(ctx context.Context, comp model.Compensation, player Player) (ClaimResult, error) {
	if comp.ClaimedBy(player.UUID) {
		return ClaimResult{}, ErrAlreadyClaimed
	}

	res := ClaimResult{CompensationID: comp.ID, Title: comp.Title}
	for _, item := range comp.Items {
		if err := s.granter.Grant(ctx, player.UUID, item); err != nil {
			s.log.Warn("补偿物品发放失败",
				zap.String("compensation", comp.ID),
				zap.String("player", player.UUID),
				zap.String("material", item.Material),
				zap.Error(err),
			)
			res.Failed = append(res.Failed, ItemFailure{Item: item, Error: err.Error()})
			continue
		}
		res.Granted = append(res.Granted, item)
	}

	var errs []error
	_, _, err := s.cache.UpdateCompensation(ctx, comp.ID, func(c *model.Compensation) (bool, error) {
		if c.ClaimedBy(player.UUID) {
			return false, nil
		}
		if c.ClaimStatus == nil {
			c.ClaimStatus = make(map[string]bool)
		}
		c.ClaimStatus[player.UUID] = true
		return true, nil
	})
	if err != nil {
		errs = append(errs, err)
	}
	_, err = s.cache.AppendClaimLog(ctx, model.ClaimLog{
		CompensationID: comp.ID,
		PlayerName:     player.Name,
		PlayerUUID:     player.UUID,
	})
	if err != nil {
		errs = append(errs, err)
	}

	s.metrics.ClaimSucceeded(len(res.Failed))
	s.log.Info("补偿已领取",
		zap.String("compensation", comp.ID),
		zap.String("player", player.UUID),
		zap.Int("granted", len(res.Granted)),
		zap.Int("failed", len(res.Failed)),
	)
	return res, errors.Join(errs...)
}
