package models

import "time"

// Document is a markdown document owned by a user.
type Document struct {
	ID        string    `gorm:"primaryKey;size:17"`
	OwnerID   uint64    `gorm:"index;not null"`
	Title     string    `gorm:"size:255"`
	Body      string    `gorm:"type:text"`
	IsPublic  bool      `gorm:"not null;default:false"`
	Comments  []Comment `gorm:"foreignKey:DocumentID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VisibleTo reports whether the given user may read the document.
func (d *Document) VisibleTo(userID uint64) bool {
	return d.IsPublic || (userID != 0 && d.OwnerID == userID)
}
