package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-app/docket/internal/config"
	"github.com/docket-app/docket/internal/db/dbtest"
	"github.com/docket-app/docket/internal/db/models"
)

func TestSeed(t *testing.T) {
	db := dbtest.Open(t)
	cfg := &config.Config{Admin: config.Admin{Username: "root", Email: "root@example.com", Password: "secret123"}}

	require.NoError(t, seed(cfg, db))
	require.NoError(t, seed(cfg, db))

	var roles int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roles).Error)
	assert.Equal(t, int64(2), roles)

	var admin models.User
	require.NoError(t, db.Where("username = ?", "root").First(&admin).Error)
	assert.True(t, admin.Active)
	assert.True(t, admin.EmailVerified)
	assert.True(t, admin.VerifyPassword("secret123"))

	var grants int64
	require.NoError(t, db.Model(&models.UserRole{}).Where("user_id = ?", admin.ID).Count(&grants).Error)
	assert.Equal(t, int64(2), grants)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(1), users)
}

func TestSeedSkipsAdminWhenUsersExist(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.User(t, db, "alice")

	cfg := &config.Config{Admin: config.Admin{Username: "root", Password: "secret123"}}
	require.NoError(t, seed(cfg, db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "root").Count(&count).Error)
	assert.Zero(t, count)
}

func TestSeedRequiresPassword(t *testing.T) {
	db := dbtest.Open(t)

	assert.Error(t, seed(&config.Config{Admin: config.Admin{Username: "root"}}, db))
}

func TestDialector(t *testing.T) {
	for engine, name := range map[string]string{
		config.EngineSQLite:   "sqlite",
		config.EngineMySQL:    "mysql",
		config.EnginePostgres: "postgres",
	} {
		cfg := &config.Config{DB: config.DB{GormEngine: engine, Name: "docket", Host: "localhost", Port: 1}}
		assert.Equal(t, name, Dialector(cfg).Name(), engine)
	}
}
