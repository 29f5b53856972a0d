// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/docket-app/docket/internal/db/models"
)

// Open creates an in-memory SQLite database with every model migrated and
// the admin and user roles seeded.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to create test database")

	// every connection to :memory: is a new database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "failed to migrate test database")

	for _, name := range []string{models.RoleAdmin, models.RoleUser} {
		require.NoError(t, db.Create(&models.Role{Name: name, IsSystem: true}).Error)
	}

	return db
}

// User inserts an active local user and grants roles globally.
func User(t *testing.T, db *gorm.DB, username string, roles ...string) *models.User {
	t.Helper()

	user := &models.User{
		Active:       true,
		Username:     username,
		EmailAddress: username + "@example.com",
		Password:     models.HashPassword("secret123"),
		FirstName:    username,
		AuthSource:   models.AuthSourceLocal,
	}
	require.NoError(t, db.Create(user).Error)

	for _, name := range roles {
		var role models.Role
		require.NoError(t, db.Where(models.WhereNameIs, name).First(&role).Error)
		require.NoError(t, db.Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error)
	}

	return user
}
