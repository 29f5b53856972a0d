package daemon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/docket-app/docket/internal/config"
	"github.com/docket-app/docket/internal/db/models"
)

var systemRoles = []models.Role{
	{Name: models.RoleAdmin, Description: "Access to the admin console", IsSystem: true},
	{Name: models.RoleUser, Description: "Every signed up account", IsSystem: true},
}

// seed creates the system roles and, on an empty user table, the configured
// admin account. Running it again changes nothing.
func seed(cfg *config.Config, db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, role := range systemRoles {
			if err := tx.Where(models.WhereNameIs, role.Name).FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
			}
		}

		if strings.TrimSpace(cfg.Admin.Username) == "" {
			return nil
		}

		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return nil
		}

		if cfg.Admin.Password == "" {
			return errors.New("admin password must be set to seed the admin account")
		}

		admin := &models.User{
			Username:      cfg.Admin.Username,
			EmailAddress:  cfg.Admin.Email,
			EmailVerified: true,
			Password:      models.HashPassword(cfg.Admin.Password),
			Active:        true,
			AuthSource:    models.AuthSourceLocal,
		}
		if err := tx.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}

		for _, name := range []string{models.RoleAdmin, models.RoleUser} {
			var role models.Role
			if err := tx.Where(models.WhereNameIs, name).First(&role).Error; err != nil {
				return err
			}

			if err := tx.Create(&models.UserRole{UserID: admin.ID, RoleID: role.ID}).Error; err != nil {
				return fmt.Errorf("failed to grant %s to admin: %w", name, err)
			}
		}

		log.Warn().Str("username", admin.Username).Msg("seeded admin account, change its password")

		return nil
	})
}
