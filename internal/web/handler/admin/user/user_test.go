package user

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-app/docket/internal/db/dbtest"
	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/panel"
	"github.com/docket-app/docket/internal/web/handler/handlertest"
)

func setup(t *testing.T) (*handlertest.Harness, *models.User) {
	t.Helper()

	h := handlertest.New(t, &Service{})
	h.App.Get("/", func(c *fiber.Ctx) error { return c.SendString("home") })

	return h, dbtest.User(t, h.DB, "root", models.RoleAdmin)
}

func TestOnlyAdmins(t *testing.T) {
	h, _ := setup(t)
	alice := dbtest.User(t, h.DB, "alice", models.RoleUser)

	r := h.LoginAs(alice.ID).Get(Path)
	assert.Equal(t, fiber.StatusFound, r.Status)
	assert.Equal(t, "/", r.Location)

	r = h.Client().Get(Path)
	assert.Equal(t, fiber.StatusFound, r.Status)
}

func TestListAndSearch(t *testing.T) {
	h, root := setup(t)

	for i := range 12 {
		dbtest.User(t, h.DB, fmt.Sprintf("user%02d", i))
	}

	cl := h.LoginAs(root.ID)

	r := cl.Get(Path + "?search=USER1&page=3")
	assert.Equal(t, fiber.StatusOK, r.Status)
	assert.Contains(t, r.Body, TemplateList)

	r = cl.Get(UserPath(root.ID))
	assert.Equal(t, fiber.StatusOK, r.Status)
	assert.Contains(t, r.Body, TemplateDetail)

	r = cl.Get(Path + "/4242")
	assert.Equal(t, fiber.StatusNotFound, r.Status)
	assert.Contains(t, r.Body, "Message: "+NotFoundText)
}

func TestUpdate(t *testing.T) {
	h, root := setup(t)
	alice := dbtest.User(t, h.DB, "alice")
	cl := h.LoginAs(root.ID)

	r := cl.Post(UserPath(alice.ID), url.Values{"email": {"bad"}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, r.Status)
	assert.Contains(t, r.Body, "Field email: Is this a valid email address?")

	r = cl.Post(UserPath(alice.ID), url.Values{
		"first_name":   {"Alice"},
		"last_name":    {"Cooper"},
		"email":        {alice.EmailAddress},
		"new_password": {"fresh-pass"},
	})
	require.Equal(t, fiber.StatusSeeOther, r.Status, r.Body)
	assert.Contains(t, cl.Follow(r).Body, "Flash: "+UpdatedText)

	var user models.User
	require.NoError(t, h.DB.First(&user, alice.ID).Error)
	assert.Equal(t, "Cooper", user.LastName)
	assert.False(t, user.Active, "unchecked active box deactivates")
	assert.True(t, user.VerifyPassword("fresh-pass"))

	// the own account stays active
	r = cl.Post(UserPath(root.ID), url.Values{"email": {root.EmailAddress}})
	require.Equal(t, fiber.StatusSeeOther, r.Status, r.Body)
	require.NoError(t, h.DB.First(&user, root.ID).Error)
	assert.True(t, user.Active)
}

func TestSettingsTabHidesGDPR(t *testing.T) {
	h, root := setup(t)
	alice := dbtest.User(t, h.DB, "alice")

	theme := models.SettingDefinition{Key: "darkMode", Label: "Dark mode", Type: "boolean", DefaultValue: "false"}
	tracking := models.SettingDefinition{Key: "tracking", Label: "Tracking", Type: "boolean", DefaultValue: "false", IsGDPR: true}
	require.NoError(t, h.DB.Create(&theme).Error)
	require.NoError(t, h.DB.Create(&tracking).Error)

	// the admin acknowledged their own GDPR settings already
	require.NoError(t, h.Env.Gate.Save(context.Background(), root.ID, nil))

	cl := h.LoginAs(root.ID)

	r := cl.Get(UserPath(alice.ID) + "?tab=settings")
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	assert.Contains(t, r.Body, "Subtitle: "+panel.AdminSubtitle)

	r = cl.Post(UserPath(alice.ID)+"/settings", url.Values{"setting_id": {strconv.FormatUint(tracking.ID, 10)}, "value": {"true"}})
	assert.Equal(t, fiber.StatusNotFound, r.Status)

	r = cl.Post(UserPath(alice.ID)+"/settings", url.Values{"setting_id": {strconv.FormatUint(theme.ID, 10)}, "value": {"true"}})
	require.Equal(t, fiber.StatusSeeOther, r.Status, r.Body)

	require.True(t, h.Env.Panels.Get(alice.ID, panel.Admin).Flush())

	var rows []models.UserSetting
	require.NoError(t, h.DB.Where("user_id = ?", alice.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, theme.ID, rows[0].SettingID)
	assert.Equal(t, "true", rows[0].Value)
	assert.Nil(t, rows[0].LastUpdatedByUser, "admin edits are not the owner's")
}

func TestDelete(t *testing.T) {
	h, root := setup(t)
	alice := dbtest.User(t, h.DB, "alice")
	other := dbtest.User(t, h.DB, "boss", models.RoleAdmin)
	cl := h.LoginAs(root.ID)

	r := cl.Get(UserPath(root.ID) + "/delete")
	assert.Equal(t, fiber.StatusFound, r.Status)
	assert.Contains(t, cl.Follow(r).Body, "FlashError: "+DeleteSelfText)

	r = cl.Post(UserPath(other.ID)+"/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, fiber.StatusSeeOther, r.Status)
	assert.Contains(t, cl.Follow(r).Body, "FlashError: "+DeleteAdminText)

	r = cl.Get(UserPath(alice.ID) + "/delete")
	assert.Contains(t, r.Body, "Question: "+DeleteQuestion)

	r = cl.Post(UserPath(alice.ID)+"/delete", url.Values{"confirm": {"yes"}})
	require.Equal(t, fiber.StatusSeeOther, r.Status, r.Body)
	assert.Equal(t, Path, r.Location)
	assert.Contains(t, cl.Follow(r).Body, "Flash: "+DeletedText)

	var count int64
	require.NoError(t, h.DB.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
