package gdpr

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/docket-app/docket/internal/db/controller/usersetting"
	"github.com/docket-app/docket/internal/db/dbtest"
	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/panel"
	"github.com/docket-app/docket/internal/settings"
)

func setup(t *testing.T) (*Gate, *panel.Registry, *models.User, []models.SettingDefinition) {
	t.Helper()

	_, gate, panels, user, defs := setupDB(t)

	return gate, panels, user, defs
}

func setupDB(t *testing.T) (*gorm.DB, *Gate, *panel.Registry, *models.User, []models.SettingDefinition) {
	t.Helper()

	db := dbtest.Open(t)
	user := dbtest.User(t, db, "alice")

	defs := []models.SettingDefinition{
		{Key: "consent", Label: "Consent", Type: "boolean", DefaultValue: "false", IsGDPR: true},
		{Key: "pageSize", Label: "Page size", Type: "number", DefaultValue: "10"},
	}
	require.NoError(t, db.Create(&defs).Error)

	store := usersetting.NewStore(db)
	panels := panel.NewRegistry(store, 0)

	return db, NewGate(store, panels), panels, user, defs
}

func TestExempt(t *testing.T) {
	for _, p := range []string{"/consent", "/logout", "/static/css/app.css", "/terms", "/privacy", "/checkalive", "/metrics"} {
		assert.True(t, Exempt(p), p)
	}

	for _, p := range []string{"/", "/documents", "/consentx", "/profile"} {
		assert.False(t, Exempt(p), p)
	}
}

func TestSaveCompletesConsent(t *testing.T) {
	gate, panels, user, defs := setup(t)
	ctx := context.Background()

	complete, pending, err := gate.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, complete)
	require.Len(t, pending, 1)

	// a pending panel edit survives the consent save
	_, err = panels.Get(user.ID, panel.Owner).Edit(ctx, defs[1].ID, "30")
	require.NoError(t, err)

	require.NoError(t, gate.Save(ctx, user.ID, map[uint64]string{defs[0].ID: "true"}))

	complete, pending, err = gate.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, "true", pending[0].Value)

	list, err := gate.store.Load(ctx, user.ID)
	require.NoError(t, err)

	for _, s := range list {
		if s.Key == "pageSize" {
			assert.Equal(t, "30", s.Value)
		}
	}
}

func TestSaveRejectsBadInput(t *testing.T) {
	gate, _, user, defs := setup(t)
	ctx := context.Background()

	err := gate.Save(ctx, user.ID, map[uint64]string{defs[1].ID: "5"})
	require.ErrorIs(t, err, ErrUnknownSetting)

	err = gate.Save(ctx, user.ID, map[uint64]string{defs[0].ID: "maybe"})
	require.ErrorIs(t, err, settings.ErrInvalidBoolean)

	complete, _, err := gate.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, complete)
}

func TestMiddleware(t *testing.T) {
	db, gate, _, user, defs := setupDB(t)

	authenticated := true
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		identity.Put(c, identity.Session{UserID: user.ID, Authenticated: authenticated})
		return c.Next()
	})
	app.Use(Middleware(Config{
		Gate: gate,
		Render: func(c *fiber.Ctx, pending []settings.Setting) error {
			var owed []string
			for _, s := range pending {
				if s.LastUpdatedByUser == nil {
					owed = append(owed, s.Key)
				}
			}

			return c.SendString("consent:" + strings.Join(owed, ","))
		},
	}))
	app.All("/*", func(c *fiber.Ctx) error { return c.SendString("page") })

	body := func(method, path string) (int, string) {
		resp, err := app.Test(httptest.NewRequest(method, path, nil))
		require.NoError(t, err)

		buf := new(strings.Builder)
		_, _ = io.Copy(buf, resp.Body)

		return resp.StatusCode, buf.String()
	}

	code, text := body(fiber.MethodGet, "/documents")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "consent:consent", text)

	code, _ = body(fiber.MethodPost, "/documents")
	assert.Equal(t, fiber.StatusPreconditionRequired, code)

	_, text = body(fiber.MethodGet, "/terms")
	assert.Equal(t, "page", text)

	authenticated = false
	_, text = body(fiber.MethodGet, "/documents")
	assert.Equal(t, "page", text)

	authenticated = true
	require.NoError(t, gate.Save(context.Background(), user.ID, map[uint64]string{defs[0].ID: "true"}))

	_, text = body(fiber.MethodGet, "/documents")
	assert.Equal(t, "page", text)

	// a GDPR setting added later is owed again
	terms := models.SettingDefinition{Key: "terms", Label: "Terms", Type: "boolean", DefaultValue: "false", IsGDPR: true}
	require.NoError(t, db.Create(&terms).Error)

	code, text = body(fiber.MethodGet, "/documents")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "consent:terms", text)

	code, _ = body(fiber.MethodPost, "/documents")
	assert.Equal(t, fiber.StatusPreconditionRequired, code)
}
