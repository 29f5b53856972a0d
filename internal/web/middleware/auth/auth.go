package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/web/session"
)

// Locals keys set for templates.
const (
	LocalsCurrentUser = "CurrentUser"
	LocalsIsAdmin     = "IsAdmin"
)

// Middleware resolves the session of every request and stores it with identity.Put.
func Middleware(r *identity.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/static") {
			return c.Next()
		}

		var (
			userID         uint64
			afterLoginPath string
		)

		if _, data, err := session.FromRequest(c); err == nil {
			userID = data.UserID
			afterLoginPath = data.AfterLoginPath
		}

		sess := r.Resolve(c.UserContext(), userID, afterLoginPath)
		identity.Put(c, sess)

		if sess.Authenticated && sess.User != nil {
			c.Locals(LocalsCurrentUser, *sess.User)
			c.Locals(LocalsIsAdmin, sess.IsAdmin())
		}

		return c.Next()
	}
}

// PathRecorder writes the after login path into the server side session.
// Anonymous visitors get an anonymous session so the path survives until login.
type PathRecorder struct {
	Expiry time.Duration
	Secure bool
}

// RecordAfterLoginPath implements guard.Recorder.
func (p PathRecorder) RecordAfterLoginPath(c *fiber.Ctx, path string) error {
	sessionID, data, err := session.FromRequest(c)
	if err != nil {
		if sessionID, err = session.GenerateSessionID(); err != nil {
			return err
		}

		data = new(session.Data)
		session.SetCookie(c, sessionID, p.Expiry, p.Secure)
	}

	if data.AfterLoginPath == path {
		return nil
	}

	data.AfterLoginPath = path

	log.Trace().Uint64("user_id", data.UserID).Str("path", path).Msg("after login path recorded")

	return data.Write(sessionID, p.Expiry)
}
