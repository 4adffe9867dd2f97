package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ac-server/internal/model"
	"ac-server/internal/repository"
	"ac-server/internal/session"
	"ac-server/pkg/password"

	"go.uber.org/zap"
)

// AdminInput 新增管理员的参数
type AdminInput struct {
	Username    string   `json:"username" binding:"required"`
	Password    string   `json:"password" binding:"required"`
	Permissions []string `json:"permissions"`
}

// AdminService 管理员登录、会话与账号管理
type AdminService struct {
	cache    *repository.Cache
	sessions session.Store
	log      *zap.Logger
}

// NewAdminService 创建管理员服务
func NewAdminService(cache *repository.Cache, sessions session.Store, log *zap.Logger) *AdminService {
	return &AdminService{cache: cache, sessions: sessions, log: log.Named("admin")}
}

// Login 校验密码并签发会话令牌
func (s *AdminService) Login(ctx context.Context, username, plain string) (string, model.Admin, error) {
	admin, ok := s.cache.FindAdmin(strings.TrimSpace(username))
	if !ok || !password.Verify(plain, admin.PasswordHash) {
		s.log.Debug("管理员登录失败", zap.String("username", username))
		return "", model.Admin{}, ErrInvalidCredentials
	}
	token, err := s.sessions.Issue(ctx, session.Principal{Kind: session.KindAdmin, Name: admin.Username})
	if err != nil {
		return "", model.Admin{}, err
	}
	s.log.Info("管理员登录", zap.String("username", admin.Username))
	return token, admin, nil
}

// Logout 注销令牌
func (s *AdminService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// Create 新增管理员，未知的权限字符串会被丢弃
func (s *AdminService) Create(ctx context.Context, in AdminInput) (model.Admin, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return model.Admin{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	hash, err := password.HashIfPlain(in.Password)
	if err != nil {
		return model.Admin{}, err
	}
	return s.cache.InsertAdmin(ctx, model.Admin{
		Username:     username,
		PasswordHash: hash,
		Permissions:  model.ParseCapabilities(in.Permissions).Strings(),
	}, func(existing *model.Admin) error {
		if existing.Username == username {
			return fmt.Errorf("%w: admin %s", ErrAlreadyExists, username)
		}
		return nil
	})
}

// Delete 删除管理员并注销其全部会话，不能删除最后一个管理员
func (s *AdminService) Delete(ctx context.Context, username string) error {
	err := s.cache.DeleteAdminIf(ctx, username, func(_ *model.Admin, count int) error {
		if count <= 1 {
			return ErrLastAdmin
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.sessions.RevokePrincipal(ctx, session.Principal{Kind: session.KindAdmin, Name: username})
}

// List 全部管理员，按用户名排序
func (s *AdminService) List() []model.Admin {
	list := s.cache.Admins()
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return list
}

// Get 按用户名获取管理员
func (s *AdminService) Get(username string) (model.Admin, error) {
	a, ok := s.cache.FindAdmin(username)
	if !ok {
		return model.Admin{}, ErrNotFound
	}
	return a, nil
}

// ChangePassword 校验旧密码后修改密码
func (s *AdminService) ChangePassword(ctx context.Context, username, oldPlain, newPlain string) error {
	if newPlain == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}
	_, _, err := s.cache.UpdateAdmin(ctx, username, func(a *model.Admin) (bool, error) {
		if !password.Verify(oldPlain, a.PasswordHash) {
			return false, ErrInvalidCredentials
		}
		hash, err := password.Hash(newPlain)
		if err != nil {
			return false, err
		}
		a.PasswordHash = hash
		return true, nil
	})
	return err
}

// Authorize 管理员是否拥有权限 c，权限每次从缓存读取
func (s *AdminService) Authorize(username string, c model.Capability) error {
	a, ok := s.cache.FindAdmin(username)
	if !ok || !a.Capabilities().Grants(c) {
		return ErrForbidden
	}
	return nil
}

// AuthorizeAll 只有拥有通配符权限的管理员才能管理其他管理员
func (s *AdminService) AuthorizeAll(username string) error {
	a, ok := s.cache.FindAdmin(username)
	if !ok || !a.Capabilities().All {
		return ErrForbidden
	}
	return nil
}

// Resolve 令牌对应的管理员
func (s *AdminService) Resolve(ctx context.Context, token string) (model.Admin, error) {
	p, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return model.Admin{}, ErrInvalidCredentials
		}
		return model.Admin{}, err
	}
	if p.Kind != session.KindAdmin {
		return model.Admin{}, ErrForbidden
	}
	a, ok := s.cache.FindAdmin(p.Name)
	if !ok {
		return model.Admin{}, ErrInvalidCredentials
	}
	return a, nil
}
