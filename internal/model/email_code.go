package model

import "time"

// CodePurpose 验证码用途
type CodePurpose string

const (
	PurposeRegister      CodePurpose = "REGISTER"
	PurposeResetPassword CodePurpose = "RESET_PASSWORD"
	PurposeChangeEmail   CodePurpose = "CHANGE_EMAIL"
)

// Valid 是否为已知用途
func (p CodePurpose) Valid() bool {
	switch p {
	case PurposeRegister, PurposeResetPassword, PurposeChangeEmail:
		return true
	}
	return false
}

// EmailCode 邮箱验证码
// 同一 (Email, Purpose) 最多只有一条有效验证码
type EmailCode struct {
	ID        string      `json:"id" gorm:"primaryKey;type:varchar(64);comment:验证码ID"`
	Email     string      `json:"email" gorm:"type:varchar(128);not null;index;comment:邮箱"`
	Purpose   CodePurpose `json:"purpose" gorm:"type:varchar(32);not null;comment:用途"`
	Code      string      `json:"code" gorm:"type:varchar(16);not null;comment:验证码"`
	CreatedAt time.Time   `json:"createTime" gorm:"autoCreateTime:false;comment:创建时间"`
	ExpiresAt time.Time   `json:"expireTime" gorm:"comment:过期时间"`
}

// TableName 指定表名
func (EmailCode) TableName() string { return "email_verification_codes" }

// RecordKey 验证码以ID为键
func (c EmailCode) RecordKey() string { return c.ID }

// Expired now 超过过期时间即失效，等于过期时间时仍有效
func (c EmailCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Clone 拷贝
func (c EmailCode) Clone() EmailCode { return c }

// Normalize 统一时间为UTC
func (c *EmailCode) Normalize() {
	c.CreatedAt = utc(c.CreatedAt)
	c.ExpiresAt = utc(c.ExpiresAt)
}
