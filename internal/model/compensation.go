package model

import "time"

// RewardItem 补偿物品
type RewardItem struct {
	Material   string   `json:"material"`
	Amount     int      `json:"amount"`
	CustomName string   `json:"customName,omitempty"`
	Lore       []string `json:"lore,omitempty"`
}

// Compensation 补偿模型
// ClaimStatus 记录每个玩家的领取状态；一旦为 true 就不能再次发放
type Compensation struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(64);comment:补偿ID"`
	Title       string          `json:"title" gorm:"type:varchar(255);comment:标题"`
	Description string          `json:"description" gorm:"type:text;comment:描述"`
	Items       []RewardItem    `json:"items" gorm:"serializer:json;type:text;comment:物品列表"`
	Author      string          `json:"author" gorm:"type:varchar(64);comment:发布者"`
	ClaimStatus map[string]bool `json:"claimStatus" gorm:"serializer:json;type:text;comment:领取状态"`
	CreatedAt   time.Time       `json:"createTime" gorm:"autoCreateTime:false;comment:创建时间"`
	UpdatedAt   time.Time       `json:"updatedAt" gorm:"autoUpdateTime:false;comment:更新时间"`
}

// TableName 指定表名
func (Compensation) TableName() string { return "compensations" }

// RecordKey 补偿以ID为键
func (c Compensation) RecordKey() string { return c.ID }

// ClaimedBy 玩家是否已领取
func (c Compensation) ClaimedBy(principal string) bool {
	return c.ClaimStatus[principal]
}

// Clone 深拷贝
func (c Compensation) Clone() Compensation {
	if c.Items != nil {
		items := make([]RewardItem, len(c.Items))
		for i, it := range c.Items {
			it.Lore = cloneStrings(it.Lore)
			items[i] = it
		}
		c.Items = items
	}
	c.ClaimStatus = cloneFlags(c.ClaimStatus)
	return c
}

// Normalize 统一时间为UTC
func (c *Compensation) Normalize() {
	c.CreatedAt = utc(c.CreatedAt)
	c.UpdatedAt = utc(c.UpdatedAt)
}
