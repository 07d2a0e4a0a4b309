package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemSetting is a runtime switch or value that operators can flip
// without a redeploy. Switch keys start with "feature.".
type SystemSetting struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	Key   string         `gorm:"type:varchar(120);not null;uniqueIndex" json:"key"`
	Value datatypes.JSON `gorm:"type:jsonb;not null" json:"value"`

	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;autoUpdateTime;index" json:"updated_at"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}
