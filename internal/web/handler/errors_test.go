package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefererPath(t *testing.T) {
	tests := map[string]string{
		"":                                   "/fallback",
		"/documents/abc/edit":                "/documents/abc/edit",
		"http://example.com/documents?x=1":   "/documents?x=1",
		"http://evil.test/documents":         "/fallback",
		"http://example.com//evil.test/path": "/fallback",
		"not a url %zz":                      "/fallback",
	}

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(RefererPath(c, "/fallback"))
	})

	for ref, want := range tests {
		req := httptest.NewRequest(fiber.MethodGet, "/", nil)
		req.Header.Set(fiber.HeaderReferer, ref)

		resp, err := app.Test(req)
		require.NoError(t, err)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, want, string(body), ref)
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.All("/fail", func(c *fiber.Ctx) error {
		return errors.New("no such table: documents")
	})
	app.All("/gone", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Document not found.")
	})

	errorBody := func(t *testing.T, path string) (int, string) {
		t.Helper()

		req := httptest.NewRequest(fiber.MethodGet, path, nil)
		req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)

		var body struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

		return resp.StatusCode, body.Error
	}

	t.Run("server errors hide detail", func(t *testing.T) {
		code, msg := errorBody(t, "/fail")
		assert.Equal(t, fiber.StatusInternalServerError, code)
		assert.Equal(t, ErrorTitle, msg)
	})

	t.Run("fiber errors keep code and message", func(t *testing.T) {
		code, msg := errorBody(t, "/gone")
		assert.Equal(t, fiber.StatusNotFound, code)
		assert.Equal(t, "Document not found.", msg)
	})

	t.Run("xhr gets json", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodPost, "/fail", nil)
		req.Header.Set(fiber.HeaderXRequestedWith, "XMLHttpRequest")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)
	})

	t.Run("form post goes back with a flash", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodPost, "/fail", nil)
		req.Header.Set(fiber.HeaderReferer, "http://example.com/documents/abc/edit")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/documents/abc/edit", resp.Header.Get(fiber.HeaderLocation))

		var flashed bool
		for _, ck := range resp.Cookies() {
			flashed = flashed || (ck.Name == "docket_flash" && ck.Value != "")
		}
		assert.True(t, flashed)
	})

	t.Run("foreign referer falls back", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodPost, "/fail", nil)
		req.Header.Set(fiber.HeaderReferer, "http://evil.test/phish")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/documents", resp.Header.Get(fiber.HeaderLocation))
	})
}
