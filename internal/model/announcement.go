package model

import "time"

// Announcement 公告模型
// SendTime 为空表示立即发送；Priority 越大越靠前
// ReadStatus 记录每个玩家（按游戏UUID）的已读状态，只会从未读变为已读
type Announcement struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(64);comment:公告ID"`
	Name       string          `json:"name" gorm:"type:varchar(128);comment:公告名称"`
	Title      string          `json:"title" gorm:"type:varchar(255);comment:标题"`
	Content    string          `json:"content" gorm:"type:text;comment:内容"`
	SendTime   *time.Time      `json:"sendTime,omitempty" gorm:"comment:定时发送时间"`
	Sent       bool            `json:"sent" gorm:"comment:是否已发送"`
	Priority   int             `json:"priority" gorm:"comment:优先级"`
	Author     string          `json:"author" gorm:"type:varchar(64);comment:发布者"`
	ReadStatus map[string]bool `json:"readStatus" gorm:"serializer:json;type:text;comment:已读状态"`
	CreatedAt  time.Time       `json:"createTime" gorm:"autoCreateTime:false;comment:创建时间"`
	UpdatedAt  time.Time       `json:"updatedAt" gorm:"autoUpdateTime:false;comment:更新时间"`
}

// TableName 指定表名
func (Announcement) TableName() string { return "announcements" }

// RecordKey 公告以ID为键
func (a Announcement) RecordKey() string { return a.ID }

// ReadBy 玩家是否已读
func (a Announcement) ReadBy(principal string) bool {
	return a.ReadStatus[principal]
}

// Due 定时公告是否到期待发送
func (a Announcement) Due(now time.Time) bool {
	return !a.Sent && a.SendTime != nil && !a.SendTime.After(now)
}

// Clone 深拷贝
func (a Announcement) Clone() Announcement {
	a.SendTime = cloneTime(a.SendTime)
	a.ReadStatus = cloneFlags(a.ReadStatus)
	return a
}

// Normalize 统一时间为UTC
func (a *Announcement) Normalize() {
	a.SendTime = utcPtr(a.SendTime)
	a.CreatedAt = utc(a.CreatedAt)
	a.UpdatedAt = utc(a.UpdatedAt)
}
