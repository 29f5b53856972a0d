package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a remark left on a document.
type Comment struct {
	ID         uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	DocumentID string    `gorm:"index;size:17;not null"`
	UserID     uint64    `gorm:"index;not null"`
	User       User      `gorm:"foreignKey:UserID"`
	Body       string    `gorm:"type:text;not null"`
	CreatedAt  time.Time
}

// BeforeCreate assigns a random id.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	return nil
}
