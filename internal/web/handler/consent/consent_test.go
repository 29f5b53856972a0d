package consent

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-app/docket/internal/db/dbtest"
	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/gdpr"
	"github.com/docket-app/docket/internal/web/handler/handlertest"
)

func TestConsent(t *testing.T) {
	h := handlertest.New(t, &Service{})
	h.App.Get("/documents", func(c *fiber.Ctx) error { return c.SendString("documents") })
	h.App.Post("/documents", func(c *fiber.Ctx) error { return c.SendString("created") })

	alice := dbtest.User(t, h.DB, "alice")

	def := models.SettingDefinition{Key: "tracking", Label: "Tracking", Type: "boolean", DefaultValue: "false", IsGDPR: true}
	require.NoError(t, h.DB.Create(&def).Error)

	field := FieldPrefix + strconv.FormatUint(def.ID, 10)
	cl := h.LoginAs(alice.ID)

	r := cl.Get("/documents")
	assert.Equal(t, fiber.StatusOK, r.Status)
	assert.Contains(t, r.Body, "consent/index")

	assert.Equal(t, fiber.StatusPreconditionRequired, cl.Post("/documents", url.Values{}).Status)

	r = cl.Post(gdpr.ConsentPath, url.Values{field: {"maybe"}, "return": {"/documents"}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, r.Status)
	assert.Contains(t, r.Body, "Error: Tracking: value must be true or false.")

	r = cl.Post(gdpr.ConsentPath, url.Values{"setting_x": {"true"}})
	assert.Equal(t, fiber.StatusBadRequest, r.Status)

	r = cl.Post(gdpr.ConsentPath, url.Values{field: {"true"}, "return": {"/documents"}})
	require.Equal(t, fiber.StatusSeeOther, r.Status, r.Body)
	assert.Equal(t, "/documents", r.Location)
	assert.Equal(t, "documents", cl.Follow(r).Body)

	var row models.UserSetting
	require.NoError(t, h.DB.Where("user_id = ? AND setting_id = ?", alice.ID, def.ID).First(&row).Error)
	assert.Equal(t, "true", row.Value)
	assert.NotNil(t, row.LastUpdatedByUser)

	// nothing owed any more
	r = cl.Get(gdpr.ConsentPath + "?return=/documents")
	assert.Equal(t, fiber.StatusFound, r.Status)
	assert.Equal(t, "/documents", r.Location)
}

func TestReturnPathStaysOnSite(t *testing.T) {
	h := handlertest.New(t, &Service{})
	alice := dbtest.User(t, h.DB, "alice")

	r := h.LoginAs(alice.ID).Post(gdpr.ConsentPath, url.Values{"return": {"https://evil.example"}})
	assert.Equal(t, fiber.StatusSeeOther, r.Status)
	assert.Equal(t, "/", r.Location)
}
