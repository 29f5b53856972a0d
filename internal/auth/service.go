package auth

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/identity"
)

// Service provides the user and role lookups behind session resolution.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// UserByID loads a user. It implements identity.UserLoader.
func (s *Service) UserByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// RolesForUser returns all role grants of a user. It implements identity.RoleLoader.
func (s *Service) RolesForUser(ctx context.Context, userID uint64) ([]identity.RoleGrant, error) {
	var rows []models.UserRole

	err := s.db.WithContext(ctx).
		Preload("Role").
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	grants := make([]identity.RoleGrant, 0, len(rows))
	for _, r := range rows {
		grants = append(grants, identity.RoleGrant{Role: r.Role.Name, Group: r.Group})
	}

	return grants, nil
}

// UserIsInRoles reports whether the user holds any of roles within group.
// Global grants count for every group.
func (s *Service) UserIsInRoles(ctx context.Context, userID uint64, roles []string, group string) (bool, error) {
	grants, err := s.RolesForUser(ctx, userID)
	if err != nil {
		return false, err
	}

	sess := identity.Session{Roles: grants}
	for _, role := range sess.RolesIn(group) {
		if slices.Contains(roles, role) {
			return true, nil
		}
	}

	return false, nil
}

// AddUserToRoles grants roles to a user within group. Existing grants are kept.
func (s *Service) AddUserToRoles(ctx context.Context, userID uint64, roles []string, group string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return addUserToRoles(tx, userID, roles, group)
	})
}

func addUserToRoles(tx *gorm.DB, userID uint64, roles []string, group string) error {
	for _, name := range roles {
		var role models.Role
		if err := tx.Where(models.WhereNameIs, name).First(&role).Error; err != nil {
			return fmt.Errorf("role %s: %w", name, err)
		}

		grant := models.UserRole{UserID: userID, RoleID: role.ID, Group: group}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error; err != nil {
			return fmt.Errorf("failed to grant role %s: %w", name, err)
		}
	}

	return nil
}

// RemoveUserFromRoles revokes roles of a user within group.
func (s *Service) RemoveUserFromRoles(ctx context.Context, userID uint64, roles []string, group string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND role_group = ?", userID, group).
		Where("role_id IN (?)", s.db.Model(&models.Role{}).Select("id").Where("name IN ?", roles)).
		Delete(&models.UserRole{}).Error
}

// SyncAdminRole grants or revokes the global admin role of an externally
// authenticated user depending on whether one of their directory groups is
// listed in adminGroups. Every synced user holds the user role. Without
// adminGroups the admin role is managed locally and left alone.
func (s *Service) SyncAdminRole(ctx context.Context, userID uint64, externalGroups, adminGroups []string) error {
	if err := s.AddUserToRoles(ctx, userID, []string{models.RoleUser}, models.GlobalGroup); err != nil {
		return err
	}

	if len(adminGroups) == 0 {
		return nil
	}

	isAdmin := false

	for _, g := range externalGroups {
		if slices.Contains(adminGroups, g) {
			isAdmin = true
			break
		}
	}

	if isAdmin {
		return s.AddUserToRoles(ctx, userID, []string{models.RoleAdmin}, models.GlobalGroup)
	}

	return s.RemoveUserFromRoles(ctx, userID, []string{models.RoleAdmin}, models.GlobalGroup)
}
