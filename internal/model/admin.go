package model

import "time"

// Admin 管理员模型
// 用户名唯一；密码仅存储bcrypt哈希；Permissions 为权限字符串列表，支持通配符 ac.web.*
type Admin struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(64);comment:管理员ID"`
	Username     string    `json:"username" gorm:"type:varchar(64);not null;uniqueIndex;comment:用户名"`
	PasswordHash string    `json:"passwordHash" gorm:"type:varchar(255);not null;comment:密码哈希"`
	Permissions  []string  `json:"permissions" gorm:"serializer:json;type:text;comment:权限列表"`
	CreatedAt    time.Time `json:"createTime" gorm:"autoCreateTime:false;comment:创建时间"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime:false;comment:更新时间"`
}

// TableName 指定表名
func (Admin) TableName() string { return "admins" }

// RecordKey 管理员以用户名为键
func (a Admin) RecordKey() string { return a.Username }

// Capabilities 解析权限列表
func (a Admin) Capabilities() CapabilitySet {
	return ParseCapabilities(a.Permissions)
}

// Clone 深拷贝
func (a Admin) Clone() Admin {
	a.Permissions = cloneStrings(a.Permissions)
	return a
}

// Normalize 统一时间为UTC
func (a *Admin) Normalize() {
	a.CreatedAt = utc(a.CreatedAt)
	a.UpdatedAt = utc(a.UpdatedAt)
}
