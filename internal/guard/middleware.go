package guard

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/identity"
)

// PendingRetryAfter is the Refresh header value sent with a Pending response.
const PendingRetryAfter = "1"

// Recorder remembers the location a visitor asked for before signing in.
type Recorder interface {
	RecordAfterLoginPath(c *fiber.Ctx, path string) error
}

// RequirePublic only lets anonymous visitors through. fallback may be empty.
func RequirePublic(fallback string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := identity.FromCtx(c)

		return respond(c, Public(PublicInput{
			Authenticated:  sess.Authenticated,
			AfterLoginPath: sess.AfterLoginPath,
			Fallback:       fallback,
		}))
	}
}

// RequireAuthenticated records the requested page and then only lets signed
// in visitors through. A nil rec records nothing, for routes scripts call.
func RequireAuthenticated(rec Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := identity.FromCtx(c)

		if rec != nil && PageRequest(c) {
			if err := rec.RecordAfterLoginPath(c, c.OriginalURL()); err != nil {
				log.Warn().Err(err).Msg("failed to record after login path")
			}
		}

		return respond(c, Authenticated(AuthenticatedInput{Authenticated: sess.Authenticated}))
	}
}

// PageRequest reports whether c is a page navigation a browser can return to:
// a GET that is neither an XHR nor asking for JSON.
func PageRequest(c *fiber.Ctx) bool {
	if c.Method() != fiber.MethodGet || c.XHR() {
		return false
	}

	return !strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

// AuthorizedConfig configures RequireRoles.
type AuthorizedConfig struct {
	Roles            []string
	Group            string
	PathAfterFailure string
}

// RequireRoles lets users through that hold one of cfg.Roles in cfg.Group.
// Every request is its own mount.
func RequireRoles(cfg AuthorizedConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := identity.FromCtx(c)
		mount := NewMount()

		d := mount.Step(Authorized(AuthorizedInput{
			UserID:           sess.UserID,
			RolesLoading:     sess.Loading,
			UserRoles:        sess.RolesIn(cfg.Group),
			RequiredRoles:    cfg.Roles,
			RequiredGroup:    cfg.Group,
			PathAfterFailure: cfg.PathAfterFailure,
		}))

		return respond(c, d)
	}
}

func respond(c *fiber.Ctx, d Decision) error {
	d = d.At(c.Path())

	switch d.State {
	case Allow:
		return c.Next()
	case DenyRedirect:
		return c.Redirect(d.Location)
	case Pending:
		c.Set("Refresh", PendingRetryAfter)
		return c.SendStatus(fiber.StatusNoContent)
	default:
		return c.SendStatus(fiber.StatusNoContent)
	}
}
