package model

import "time"

// ClaimLog 领取日志，只追加不修改
type ClaimLog struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(64);comment:日志ID"`
	CompensationID string    `json:"compensationId" gorm:"type:varchar(64);not null;index;comment:补偿ID"`
	PlayerName     string    `json:"playerName" gorm:"type:varchar(64);comment:玩家名"`
	PlayerUUID     string    `json:"playerUUID" gorm:"type:varchar(64);index;comment:玩家UUID"`
	ClaimTime      time.Time `json:"claimTime" gorm:"comment:领取时间"`
}

// TableName 指定表名
func (ClaimLog) TableName() string { return "claim_logs" }

// RecordKey 日志以ID为键
func (l ClaimLog) RecordKey() string { return l.ID }

// Clone 拷贝
func (l ClaimLog) Clone() ClaimLog { return l }

// Normalize 统一时间为UTC
func (l *ClaimLog) Normalize() {
	l.ClaimTime = utc(l.ClaimTime)
}
