package model

import "time"

// QQBinding QQ第三方登录绑定信息
type QQBinding struct {
	OpenID    string    `json:"openId"`
	UnionID   string    `json:"unionId,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	BindTime  time.Time `json:"bindTime"`
}

// User 玩家账号模型
// 用户名唯一、邮箱唯一；密码仅存储哈希
// 注册后为未验证状态，消费注册验证码后 Verified=true
// GameUUID 非空即表示已绑定游戏角色，每个账号只能绑定一次
type User struct {
	ID              string     `json:"id" gorm:"primaryKey;type:varchar(64);comment:用户ID"`
	Username        string     `json:"username" gorm:"type:varchar(64);not null;uniqueIndex;comment:用户名"`
	Email           string     `json:"email" gorm:"type:varchar(128);not null;uniqueIndex;comment:邮箱"`
	PasswordHash    string     `json:"passwordHash" gorm:"type:varchar(255);not null;comment:密码哈希"`
	GameUUID        string     `json:"gameUUID,omitempty" gorm:"column:minecraft_uuid;type:varchar(64);index;comment:游戏角色UUID"`
	VerificationKey string     `json:"verificationKey" gorm:"type:varchar(64);comment:绑定角色用的验证密钥"`
	Verified        bool       `json:"verified" gorm:"column:is_verified;comment:邮箱是否已验证"`
	QQ              *QQBinding `json:"qqBinding,omitempty" gorm:"column:qq_binding;serializer:json;type:text;comment:QQ绑定"`
	Permissions     []string   `json:"permissions" gorm:"serializer:json;type:text;comment:权限列表"`
	LastLoginAt     *time.Time `json:"lastLoginTime,omitempty" gorm:"comment:最近登录时间"`
	CreatedAt       time.Time  `json:"createTime" gorm:"autoCreateTime:false;comment:创建时间"`
	UpdatedAt       time.Time  `json:"updatedAt" gorm:"autoUpdateTime:false;comment:更新时间"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// RecordKey 用户以用户名为键
func (u User) RecordKey() string { return u.Username }

// GameBound 是否已绑定游戏角色
func (u User) GameBound() bool { return u.GameUUID != "" }

// Clone 深拷贝
func (u User) Clone() User {
	u.Permissions = cloneStrings(u.Permissions)
	u.LastLoginAt = cloneTime(u.LastLoginAt)
	if u.QQ != nil {
		qq := *u.QQ
		u.QQ = &qq
	}
	return u
}

// Normalize 统一时间为UTC
func (u *User) Normalize() {
	u.CreatedAt = utc(u.CreatedAt)
	u.UpdatedAt = utc(u.UpdatedAt)
	u.LastLoginAt = utcPtr(u.LastLoginAt)
	if u.QQ != nil {
		u.QQ.BindTime = utc(u.QQ.BindTime)
	}
}
