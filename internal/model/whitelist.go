package model

import "time"

// WhitelistEntry 白名单条目，以玩家UUID为键
type WhitelistEntry struct {
	PlayerUUID string    `json:"playerUuid" gorm:"primaryKey;type:varchar(64);comment:玩家UUID"`
	PlayerName string    `json:"playerName" gorm:"type:varchar(64);not null;uniqueIndex;comment:玩家名"`
	AddedBy    string    `json:"addedBy" gorm:"type:varchar(64);comment:添加人"`
	Reason     string    `json:"reason,omitempty" gorm:"type:varchar(255);comment:原因"`
	AddedAt    time.Time `json:"addTime" gorm:"column:created_at;comment:添加时间"`
}

// TableName 指定表名
func (WhitelistEntry) TableName() string { return "whitelist_entries" }

// RecordKey 白名单以玩家UUID为键
func (w WhitelistEntry) RecordKey() string { return w.PlayerUUID }

// Clone 拷贝
func (w WhitelistEntry) Clone() WhitelistEntry { return w }

// Normalize 统一时间为UTC
func (w *WhitelistEntry) Normalize() {
	w.AddedAt = utc(w.AddedAt)
}

// Setting 键值设置，目前只有白名单开关
type Setting struct {
	Key   string `gorm:"column:setting_key;primaryKey;type:varchar(64)"`
	Value string `gorm:"column:setting_value;type:varchar(255)"`
}

// TableName 指定表名
func (Setting) TableName() string { return "settings" }

// SettingWhitelistEnabled 白名单开关的设置键
const SettingWhitelistEnabled = "whitelist_enabled"
