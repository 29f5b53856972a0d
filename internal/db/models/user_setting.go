package models

import "time"

// UserSetting stores a user's value for one setting definition.
// Rows are not removed when their definition is deleted.
type UserSetting struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    uint64 `gorm:"uniqueIndex:idx_user_setting;not null"`
	SettingID uint64 `gorm:"uniqueIndex:idx_user_setting;not null"`
	Value     string `gorm:"size:1024"`
	// LastUpdatedByUser is set only when the owner changed the value.
	LastUpdatedByUser *time.Time
	UpdatedAt         time.Time
}
