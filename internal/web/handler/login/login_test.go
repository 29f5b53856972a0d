package login

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-app/docket/internal/auth"
	"github.com/docket-app/docket/internal/db/dbtest"
	"github.com/docket-app/docket/internal/web/handler/handlertest"
	"github.com/docket-app/docket/internal/web/session"
)

func TestPickAuthType(t *testing.T) {
	h := handlertest.New(t)
	s := &Service{env: h.Env}

	at, err := s.pickAuthType("")
	require.NoError(t, err)
	assert.Equal(t, authTypeLocal, at)

	_, err = s.pickAuthType("ldap")
	require.ErrorIs(t, err, ErrLDAPAuthDisabled)

	h.Env.Cfg.Auth.LDAP.Enabled = true
	h.Env.LDAP = &auth.LDAPProvider{}

	at, err = s.pickAuthType("ldap")
	require.NoError(t, err)
	assert.Equal(t, authTypeLDAP, at)

	h.Env.Cfg.Auth.Local.Enabled = false

	_, err = s.pickAuthType("local")
	require.ErrorIs(t, err, ErrLocalAuthDisabled)

	at, err = s.pickAuthType("")
	require.NoError(t, err)
	assert.Equal(t, authTypeLDAP, at)

	_, err = s.pickAuthType("unknown")
	require.ErrorIs(t, err, ErrInvalidAuthMethod)
}

func TestAuthenticateLocal(t *testing.T) {
	h := handlertest.New(t)
	s := &Service{env: h.Env}
	dbtest.User(t, h.DB, "alice")
	ctx := context.Background()

	got, err := s.authenticate(ctx, authTypeLocal, "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	got, err = s.authenticate(ctx, authTypeLocal, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = s.authenticate(ctx, authTypeLocal, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.authenticate(ctx, authTypeLocal, "nobody", "secret123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.authenticate(ctx, "bogus", "alice", "secret123")
	require.ErrorIs(t, err, ErrInvalidAuthMethod)
}

func TestPostSuccessRedirectsToAfterLoginPath(t *testing.T) {
	h := handlertest.New(t, &Service{})
	dbtest.User(t, h.DB, "bob")

	cl := h.Client()

	// a protected page visited before logging in
	h.App.Get("/documents/private", h.Env.Authenticated(), func(c *fiber.Ctx) error { return c.SendString("secret") })
	r := cl.Get("/documents/private?tab=1")
	require.Equal(t, fiber.StatusFound, r.Status)
	assert.Equal(t, Path, r.Location)

	r = cl.Post(Path, url.Values{"username": {"bob"}, "password": {"secret123"}})
	require.Equal(t, fiber.StatusSeeOther, r.Status)
	assert.Equal(t, "/documents/private?tab=1", r.Location)
	assert.NotEmpty(t, cl.Cookie(session.CookieName))

	assert.Equal(t, "secret", cl.Get("/documents/private").Body)

	// signed in visitors are sent away from the login page
	r = cl.Get(Path)
	assert.Equal(t, fiber.StatusFound, r.Status)
}

func TestPostDefaultsToDocuments(t *testing.T) {
	h := handlertest.New(t, &Service{})
	dbtest.User(t, h.DB, "carol")

	r := h.Client().Post(Path, url.Values{"username": {"carol"}, "password": {"secret123"}})
	require.Equal(t, fiber.StatusSeeOther, r.Status)
	assert.Equal(t, "/documents", r.Location)
}

func TestPostErrors(t *testing.T) {
	h := handlertest.New(t, &Service{})
	dbtest.User(t, h.DB, "dave")

	cl := h.Client()

	r := cl.Post(Path, url.Values{"username": {"dave"}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, r.Status)
	assert.Contains(t, r.Body, "Field password: This field is required.")

	r = cl.Post(Path, url.Values{"username": {"dave"}, "password": {"nope"}})
	assert.Equal(t, fiber.StatusUnauthorized, r.Status)
	assert.Contains(t, r.Body, ErrInvalidCredentials.Error())

	h.Env.Cfg.Auth.Local.Enabled = false
	r = cl.Post(Path, url.Values{"username": {"dave"}, "password": {"secret123"}, "auth_type": {"local"}})
	assert.Equal(t, fiber.StatusBadRequest, r.Status)
	assert.Contains(t, r.Body, ErrLocalAuthDisabled.Error())
	assert.False(t, strings.Contains(r.Body, "Flash"))
}
