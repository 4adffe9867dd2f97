package storage

import (
	"context"
	"errors"
	"fmt"

	"ac-server/internal/model"
)

// Collection 记录集合名称，同时是文件存储中的目录名
type Collection string

const (
	Admins        Collection = "admins"
	Announcements Collection = "announcements"
	Compensations Collection = "compensations"
	Whitelist     Collection = "whitelist"
	ClaimLogs     Collection = "logs"
	Users         Collection = "users"
	EmailCodes    Collection = "email_codes"
)

// AllCollections 全部集合，固定顺序
func AllCollections() []Collection {
	return []Collection{Admins, Announcements, Compensations, Whitelist, ClaimLogs, Users, EmailCodes}
}

// ErrUnknownRecord 记录类型无法映射到任何集合
var ErrUnknownRecord = errors.New("未知的记录类型")

// Dataset 与后端无关的全量数据
type Dataset struct {
	Admins           []model.Admin
	Announcements    []model.Announcement
	Compensations    []model.Compensation
	Whitelist        []model.WhitelistEntry
	ClaimLogs        []model.ClaimLog
	Users            []model.User
	EmailCodes       []model.EmailCode
	WhitelistEnabled bool
}

// Backend 存储后端
// Put 写入单条记录（存在则覆盖），Delete 按集合内的键删除单条记录
type Backend interface {
	Name() string
	LoadAll(ctx context.Context) (*Dataset, error)
	SaveAll(ctx context.Context, data *Dataset) error
	Put(ctx context.Context, rec model.Record) error
	Delete(ctx context.Context, c Collection, key string) error
	SaveWhitelistEnabled(ctx context.Context, enabled bool) error
	Available(ctx context.Context) bool
	Close() error
}

// CollectionOf 记录所属集合，rec 必须是模型指针
func CollectionOf(rec model.Record) (Collection, error) {
	switch rec.(type) {
	case *model.Admin:
		return Admins, nil
	case *model.Announcement:
		return Announcements, nil
	case *model.Compensation:
		return Compensations, nil
	case *model.WhitelistEntry:
		return Whitelist, nil
	case *model.ClaimLog:
		return ClaimLogs, nil
	case *model.User:
		return Users, nil
	case *model.EmailCode:
		return EmailCodes, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownRecord, rec)
	}
}

// normalizer 加载后统一时间表示
type normalizer interface {
	Normalize()
}
