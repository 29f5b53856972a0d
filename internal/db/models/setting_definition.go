package models

import "time"

// SettingDefinition is one entry of the user settings schema managed by admins.
type SettingDefinition struct {
	ID           uint64 `gorm:"primaryKey"`
	Key          string `gorm:"column:setting_key;uniqueIndex;size:100;not null"`
	Label        string `gorm:"size:255;not null"`
	Type         string `gorm:"size:20;not null"`
	DefaultValue string `gorm:"size:1024"`
	IsGDPR       bool   `gorm:"column:is_gdpr;not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
