package models

import (
	"time"
)

// Keys of the platform settings read by the fee policy.
const (
	SettingPlatformFeePct   = "platform_fee_pct"
	SettingCreatorRewardPct = "creator_reward_pct"
)

// PlatformSetting is a key/value row backing process-wide defaults
type PlatformSetting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"size:100;uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PlatformSetting) TableName() string {
	return "platform_settings"
}
