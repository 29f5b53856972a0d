package flash

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlashRoundTrip(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware)
	app.Get("/set", func(c *fiber.Ctx) error {
		Success(c, " Document removed! ")
		return c.Redirect("/read")
	})
	app.Get("/read", func(c *fiber.Ctx) error {
		m, _ := c.Locals(LocalsKey).(Message)
		return c.SendString(m.Success)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/set", nil))
	require.NoError(t, err)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req := httptest.NewRequest(fiber.MethodGet, "/read", nil)
	req.AddCookie(cookie)

	resp, err = app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Document removed!", string(body))

	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == cookieName && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestPopIgnoresGarbage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		assert.True(t, Pop(c).Empty())
		return nil
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "%%%"})

	_, err := app.Test(req)
	require.NoError(t, err)
}
