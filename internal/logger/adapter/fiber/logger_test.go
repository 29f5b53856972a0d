package fiber_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/logger"
	adapter "github.com/docket-app/docket/internal/logger/adapter/fiber"
)

type accessLine struct {
	IP     string `json:"IP"`
	Status int    `json:"status"`
	URI    string `json:"URI"`
	Method string `json:"method"`
	Host   string `json:"host"`
	UserID uint64 `json:"user_id"`
}

var consoleJSON = logger.Log{
	EnableAccessLogToConsole: true,
	Console:                  logger.Console{Enabled: true},
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		target string
		config adapter.Config
		want   *accessLine
	}{
		{
			name:   "no writers no output",
			target: "/",
		},
		{
			name:   "root",
			target: "/",
			config: adapter.Config{Config: consoleJSON},
			want:   &accessLine{Status: fiber.StatusOK, URI: "/", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:   "query string kept",
			target: "/documents?page=2&q=ada",
			config: adapter.Config{Config: consoleJSON},
			want:   &accessLine{Status: fiber.StatusOK, URI: "/documents?page=2&q=ada", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:   "unknown route",
			target: "/nope",
			config: adapter.Config{Config: consoleJSON},
			want:   &accessLine{Status: fiber.StatusNotFound, URI: "/nope", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:   "signed in user",
			target: "/me",
			config: adapter.Config{Config: consoleJSON},
			want:   &accessLine{Status: fiber.StatusOK, URI: "/me", Method: fiber.MethodGet, Host: "example.com", UserID: 7},
		},
		{
			name:   "checkalive muted",
			target: "/checkalive",
			config: adapter.Config{Config: logger.Log{
				EnableAccessLogToConsole: true,
				DisableCheckAlive:        true,
				Console:                  logger.Console{Enabled: true},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := capture(t, tt.target, tt.config)

			if tt.want == nil {
				assert.Empty(t, output)
				return
			}

			require.NotEmpty(t, output)

			var got accessLine
			require.NoError(t, json.Unmarshal([]byte(output), &got))
			assert.Equal(t, tt.want.Status, got.Status)
			assert.Equal(t, tt.want.URI, got.URI)
			assert.Equal(t, tt.want.Method, got.Method)
			assert.Equal(t, tt.want.Host, got.Host)
			assert.Equal(t, tt.want.UserID, got.UserID)
		})
	}
}

func capture(t *testing.T, target string, cfg adapter.Config) string {
	t.Helper()

	stdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	app := fiber.New(fiber.Config{CaseSensitive: true, Immutable: true})
	app.Use(adapter.New(cfg))

	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Get("/", ok)
	app.Get("/documents", ok)
	app.Get("/checkalive", ok)
	app.Get("/me", func(c *fiber.Ctx) error {
		identity.Put(c, identity.Session{UserID: 7, Authenticated: true})
		return c.Next()
	}, ok)

	_, err = app.Test(httptest.NewRequest(fiber.MethodGet, target, nil), -1)

	_ = w.Close()
	os.Stdout = stdout
	require.NoError(t, err)

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)

	return buf.String()
}
