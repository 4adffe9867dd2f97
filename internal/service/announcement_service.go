package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ac-server/internal/model"
	"ac-server/internal/repository"
	"ac-server/pkg/clock"

	"go.uber.org/zap"
)

// AnnouncementInput 创建或编辑公告的参数
type AnnouncementInput struct {
	Name     string     `json:"name"`
	Title    string     `json:"title" binding:"required"`
	Content  string     `json:"content"`
	SendTime *time.Time `json:"sendTime"`
	Priority int        `json:"priority"`
}

func (in AnnouncementInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return nil
}

// AnnouncementService 公告管理与玩家已读状态
type AnnouncementService struct {
	cache     *repository.Cache
	clock     clock.Clock
	publisher Publisher
	log       *zap.Logger
}

// NewAnnouncementService 创建公告服务，publisher 可以为 nil
func NewAnnouncementService(cache *repository.Cache, clk clock.Clock, publisher Publisher, log *zap.Logger) *AnnouncementService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &AnnouncementService{cache: cache, clock: clk, publisher: publisher, log: log.Named("announcement")}
}

// Create 发布公告；没有发送时间或发送时间已到的公告立即发送
func (s *AnnouncementService) Create(ctx context.Context, author string, in AnnouncementInput) (model.Announcement, error) {
	if err := in.validate(); err != nil {
		return model.Announcement{}, err
	}
	now := s.clock.Now()
	a := model.Announcement{
		Name:       in.Name,
		Title:      in.Title,
		Content:    in.Content,
		SendTime:   in.SendTime,
		Priority:   in.Priority,
		Author:     author,
		ReadStatus: map[string]bool{},
	}
	a.Normalize()
	a.Sent = a.SendTime == nil || !a.SendTime.After(now)

	saved, err := s.cache.SaveAnnouncement(ctx, a)
	if saved.Sent {
		s.publisher.PublishAnnouncement(saved)
	}
	return saved, err
}

// Update 编辑公告内容，保留已读状态；已发送的公告不会回到未发送
func (s *AnnouncementService) Update(ctx context.Context, id string, in AnnouncementInput) (model.Announcement, error) {
	if err := in.validate(); err != nil {
		return model.Announcement{}, err
	}
	now := s.clock.Now()
	var publish bool
	updated, _, err := s.cache.UpdateAnnouncement(ctx, id, func(a *model.Announcement) (bool, error) {
		a.Name = in.Name
		a.Title = in.Title
		a.Content = in.Content
		a.SendTime = in.SendTime
		a.Priority = in.Priority
		a.Normalize()
		if !a.Sent && (a.SendTime == nil || !a.SendTime.After(now)) {
			a.Sent = true
			publish = true
		}
		return true, nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return model.Announcement{}, ErrNotFound
	}
	if publish {
		s.publisher.PublishAnnouncement(updated)
	}
	return updated, err
}

// Delete 删除公告
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	return s.cache.DeleteAnnouncement(ctx, id)
}

// Get 按ID获取公告
func (s *AnnouncementService) Get(id string) (model.Announcement, error) {
	a, ok := s.cache.FindAnnouncement(id)
	if !ok {
		return model.Announcement{}, ErrNotFound
	}
	return a, nil
}

// List 全部公告，按优先级降序、创建时间降序
func (s *AnnouncementService) List() []model.Announcement {
	list := s.cache.Announcements()
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority > list[j].Priority
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// Unread 玩家尚未阅读的已发送公告，按优先级降序
func (s *AnnouncementService) Unread(principal string) []model.Announcement {
	list := s.cache.FilterAnnouncements(func(a *model.Announcement) bool {
		return a.Sent && !a.ReadBy(principal)
	})
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority > list[j].Priority
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// MarkRead 标记已读，重复标记不会再次落盘；返回本次是否有变化
// 尚未发送的公告不能标记
func (s *AnnouncementService) MarkRead(ctx context.Context, id, principal string) (bool, error) {
	if principal == "" {
		return false, fmt.Errorf("%w: principal is required", ErrInvalidInput)
	}
	_, changed, err := s.cache.UpdateAnnouncement(ctx, id, func(a *model.Announcement) (bool, error) {
		if !a.Sent || a.ReadBy(principal) {
			return false, nil
		}
		if a.ReadStatus == nil {
			a.ReadStatus = make(map[string]bool)
		}
		a.ReadStatus[principal] = true
		return true, nil
	})
	return changed, err
}

// Deliver 取出玩家的未读公告并全部标记为已读
func (s *AnnouncementService) Deliver(ctx context.Context, principal string) ([]model.Announcement, error) {
	unread := s.Unread(principal)
	var errs []error
	for _, a := range unread {
		if _, err := s.MarkRead(ctx, a.ID, principal); err != nil && !errors.Is(err, repository.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return unread, errors.Join(errs...)
}

// DueScheduled 到期但尚未发送的定时公告
func (s *AnnouncementService) DueScheduled(now time.Time) []model.Announcement {
	return s.cache.FilterAnnouncements(func(a *model.Announcement) bool {
		return a.Due(now)
	})
}

// DispatchDue 把到期的定时公告标记为已发送并推送，返回发送数量
func (s *AnnouncementService) DispatchDue(ctx context.Context) (int, error) {
	now := s.clock.Now()
	var (
		sent int
		errs []error
	)
	for _, due := range s.DueScheduled(now) {
		updated, changed, err := s.cache.UpdateAnnouncement(ctx, due.ID, func(a *model.Announcement) (bool, error) {
			if !a.Due(now) {
				return false, nil
			}
			a.Sent = true
			return true, nil
		})
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			errs = append(errs, err)
		}
		if changed {
			sent++
			s.publisher.PublishAnnouncement(updated)
			s.log.Info("定时公告已发送", zap.String("id", updated.ID), zap.String("title", updated.Title))
		}
	}
	return sent, errors.Join(errs...)
}

// Run 定期发送到期公告，直到 ctx 结束
func (s *AnnouncementService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.DispatchDue(ctx); err != nil {
				s.log.Error("发送定时公告失败", zap.Error(err))
			}
		}
	}
}
