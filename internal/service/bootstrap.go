package service

import (
	"context"
	"strings"

	"ac-server/config"
	"ac-server/internal/model"
	"ac-server/internal/repository"
	"ac-server/pkg/password"

	"go.uber.org/zap"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

// BootstrapResult 启动时管理员对账的结果
type BootstrapResult string

const (
	BootstrapCreatedFirst    BootstrapResult = "created_first"
	BootstrapUnchanged       BootstrapResult = "unchanged"
	BootstrapCreatedOverride BootstrapResult = "created_override"
	BootstrapPasswordUpdated BootstrapResult = "password_updated"
)

// BootstrapAdmin 保证至少存在一个管理员
//  1. 没有任何管理员时，用配置创建一个拥有全部权限的管理员
//  2. 已有管理员且未开启 override 时不做任何事
//  3. 开启 override 且配置的用户名不存在时，新建该管理员
//  4. 开启 override 且用户名已存在时，只更新密码哈希
func BootstrapAdmin(ctx context.Context, cache *repository.Cache, cfg config.AdminConfig, log *zap.Logger) (BootstrapResult, error) {
	log = log.Named("bootstrap")

	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = defaultAdminUsername
	}

	if cache.AdminCount() == 0 {
		plain := cfg.Password
		if plain == "" {
			plain = defaultAdminPassword
			log.Warn("未配置管理员密码，使用默认密码，请尽快修改", zap.String("username", username))
		}
		if err := createAdmin(ctx, cache, username, plain); err != nil {
			return "", err
		}
		log.Info("已创建初始管理员", zap.String("username", username))
		return BootstrapCreatedFirst, nil
	}

	if !cfg.Override {
		return BootstrapUnchanged, nil
	}

	if _, ok := cache.FindAdmin(username); !ok {
		if cfg.Password == "" {
			log.Warn("override 已开启但未配置密码，跳过创建管理员", zap.String("username", username))
			return BootstrapUnchanged, nil
		}
		if err := createAdmin(ctx, cache, username, cfg.Password); err != nil {
			return "", err
		}
		log.Info("已按配置新增管理员", zap.String("username", username))
		return BootstrapCreatedOverride, nil
	}

	if cfg.Password == "" {
		return BootstrapUnchanged, nil
	}
	_, changed, err := cache.UpdateAdmin(ctx, username, func(a *model.Admin) (bool, error) {
		if a.PasswordHash == cfg.Password || password.Verify(cfg.Password, a.PasswordHash) {
			return false, nil
		}
		hash, err := password.HashIfPlain(cfg.Password)
		if err != nil {
			return false, err
		}
		a.PasswordHash = hash
		return true, nil
	})
	if err != nil {
		return "", err
	}
	if !changed {
		return BootstrapUnchanged, nil
	}
	log.Info("已按配置更新管理员密码", zap.String("username", username))
	return BootstrapPasswordUpdated, nil
}

func createAdmin(ctx context.Context, cache *repository.Cache, username, plain string) error {
	hash, err := password.HashIfPlain(plain)
	if err != nil {
		return err
	}
	_, err = cache.SaveAdmin(ctx, model.Admin{
		Username:     username,
		PasswordHash: hash,
		Permissions:  []string{model.PermissionWildcard},
	})
	return err
}
