package usersetting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-app/docket/internal/db/dbtest"
	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/settings"
)

func TestLoadAndSave(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	store := NewStore(db)

	marketing := models.SettingDefinition{Key: "marketing", Label: "A marketing", Type: "boolean", DefaultValue: "false"}
	size := models.SettingDefinition{Key: "pageSize", Label: "B page size", Type: "number", DefaultValue: "10"}
	consent := models.SettingDefinition{Key: "consent", Label: "C consent", Type: "boolean", DefaultValue: "false", IsGDPR: true}
	for _, d := range []*models.SettingDefinition{&marketing, &size, &consent} {
		require.NoError(t, db.Create(d).Error)
	}

	list, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "marketing", list[0].Key)
	assert.Equal(t, "10", list[1].Value)
	assert.Nil(t, list[2].LastUpdatedByUser)
	assert.False(t, settings.GDPRComplete(list))

	list[1].Value = "25"
	list = settings.StampGDPR(list, time.Now())
	require.NoError(t, store.Save(ctx, 1, list))

	reloaded, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "25", reloaded[1].Value)
	assert.True(t, settings.GDPRComplete(reloaded))

	// second save updates in place
	reloaded[0].Value = "true"
	require.NoError(t, store.Save(ctx, 1, reloaded))

	var count int64
	require.NoError(t, db.Model(&models.UserSetting{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	other, err := store.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "false", other[0].Value, "other users keep defaults")

	require.NoError(t, DeleteForUser(db, 1))
	require.NoError(t, db.Model(&models.UserSetting{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNilDB(t *testing.T) {
	_, err := LoadForUser(nil, 1)
	assert.ErrorIs(t, err, ErrDBNil)
	assert.ErrorIs(t, SaveForUser(nil, 1, nil), ErrDBNil)
	assert.ErrorIs(t, DeleteForUser(nil, 1), ErrDBNil)
}
