package models

import "time"

const (
	// RoleAdmin is the role granting access to the admin console.
	RoleAdmin = "admin"
	// RoleUser is the role every signed up account receives.
	RoleUser = "user"

	// GlobalGroup is the role group that applies to every group.
	GlobalGroup = ""

	// WhereNameIs is the where clause used to look up roles by name.
	WhereNameIs = "name = ?"
)

// Role is a named role such as "admin" or "user".
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// Name is the unique name of the role (e.g., "admin", "user").
	Name string `gorm:"unique;size:100;not null"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// IsSystem indicates if this is a system role that cannot be deleted.
	IsSystem bool `gorm:"default:false"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}

// UserRole grants a role to a user within a group. An empty group is global.
type UserRole struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"uniqueIndex:idx_user_role_group;not null"`
	RoleID uint   `gorm:"uniqueIndex:idx_user_role_group;not null"`
	Role   Role   `gorm:"foreignKey:RoleID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE"`
	Group  string `gorm:"column:role_group;uniqueIndex:idx_user_role_group;size:100;not null;default:''"`
}
