package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrNotFound 令牌不存在或已过期
var ErrNotFound = errors.New("会话不存在或已过期")

// Kind 会话主体类型
type Kind string

const (
	KindAdmin Kind = "admin"
	KindUser  Kind = "user"
)

// Principal 已认证的主体：管理员或用户，按用户名标识
// 权限等信息在每次请求时从缓存中重新读取
type Principal struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
}

// String 形如 admin:root
func (p Principal) String() string {
	return string(p.Kind) + ":" + p.Name
}

// Store 会话令牌存储
// 令牌是不透明的随机字符串，不携带任何声明，每次校验都查询存储
type Store interface {
	Issue(ctx context.Context, p Principal) (string, error)
	Resolve(ctx context.Context, token string) (Principal, error)
	Revoke(ctx context.Context, token string) error
	RevokePrincipal(ctx context.Context, p Principal) error
}

// newToken 32字节随机数的十六进制
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("生成令牌失败: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
