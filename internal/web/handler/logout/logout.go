// Package logout ends sessions.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/guard"
	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/web/handler"
	"github.com/docket-app/docket/internal/web/session"
)

// Path is the logout route.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if err := handler.Check(app, env); err != nil {
		return err
	}

	s.env = env

	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout deletes the session, which also forgets the after login path, and
// clears the cookie. OIDC sessions continue to the provider's logout.
func (s *Service) Logout(c *fiber.Ctx) error {
	var idToken string

	if sessionID, data, err := session.FromRequest(c); err == nil {
		idToken = data.IDToken

		if err = session.Delete(sessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	session.ClearCookie(c, s.env.SecureCookies())

	if sess := identity.FromCtx(c); sess.Authenticated {
		s.env.Panels.Flush(sess.UserID)
		s.env.Editors.FlushUser(sess.UserID)
		log.Info().Uint64("user_id", sess.UserID).Msg("user logged out")
	}

	if idToken != "" && s.env.OIDC != nil {
		if u := s.env.OIDC.LogoutURL(idToken, s.env.Cfg.Webserver.URL); u != "" {
			return c.Redirect(u)
		}
	}

	return c.Redirect(guard.LoginPath)
}
