package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/docket-app/docket/internal/auth"
	"github.com/docket-app/docket/internal/config"
	userctl "github.com/docket-app/docket/internal/db/controller/user"
	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/editor"
	"github.com/docket-app/docket/internal/gdpr"
	"github.com/docket-app/docket/internal/guard"
	"github.com/docket-app/docket/internal/mail"
	"github.com/docket-app/docket/internal/markdown"
	"github.com/docket-app/docket/internal/panel"
	"github.com/docket-app/docket/internal/web/session"
)

// ErrNilEnv is returned by Init when app or env is missing.
var ErrNilEnv = errors.New(ErrNilACDFatalLogMsg)

// Env carries the shared services every handler needs.
type Env struct {
	Cfg       *config.Config
	DB        *gorm.DB
	Auth      *auth.Service
	Local     *auth.LocalProvider
	LDAP      *auth.LDAPProvider // nil when disabled
	OIDC      *auth.OIDCProvider // nil when disabled
	Tokens    *auth.Tokens
	Accounts  *mail.Accounts
	Panels    *panel.Registry
	Editors   *editor.Registry
	Commands  *editor.Dispatcher
	Gate      *gdpr.Gate
	Markdown  *markdown.Renderer
	Recorder  guard.Recorder
	Validator *validator.Validate
}

// Check returns ErrNilEnv when app or env is nil.
func Check(app *fiber.App, env *Env) error {
	if app == nil || env == nil || env.Cfg == nil || env.DB == nil {
		return ErrNilEnv
	}

	return nil
}

// SecureCookies reports whether cookies get the Secure flag.
func (e *Env) SecureCookies() bool {
	return e.Cfg.Webserver.SecureCookies && !e.Cfg.DevMode
}

// SessionExpiry is the lifetime of a session.
func (e *Env) SessionExpiry() time.Duration {
	return e.Cfg.Webserver.Session.ExpiryTime
}

// StartSession signs userID in.
func (e *Env) StartSession(c *fiber.Ctx, userID uint64, idToken string) error {
	return session.Start(c, userID, idToken, e.SessionExpiry(), e.SecureCookies())
}

// Authenticated guards routes that need a signed in user.
func (e *Env) Authenticated() fiber.Handler {
	return guard.RequireAuthenticated(e.Recorder)
}

// SignedIn guards routes called by scripts or forms. Unlike Authenticated it
// never records them as the place to return to after login.
func (e *Env) SignedIn() fiber.Handler {
	return guard.RequireAuthenticated(nil)
}

// Public guards routes only anonymous visitors may see.
func (e *Env) Public() fiber.Handler {
	return guard.RequirePublic(guard.DefaultAfterLoginPath)
}

// AdminOnly guards the admin console.
func (e *Env) AdminOnly() fiber.Handler {
	return guard.RequireRoles(guard.AuthorizedConfig{
		Roles:            []string{models.RoleAdmin},
		Group:            models.GlobalGroup,
		PathAfterFailure: guard.DefaultFailurePath,
	})
}

// SendVerification mails a verify email link to u.
func (e *Env) SendVerification(ctx context.Context, u *models.User) error {
	token, err := e.Tokens.VerifyEmailToken(u.ID, u.EmailAddress)
	if err != nil {
		return err
	}

	return e.Accounts.SendVerificationEmail(ctx, u, token)
}

// RemoveUser drops the open panels and editors of userID, then deletes the
// user with everything they own.
func (e *Env) RemoveUser(ctx context.Context, userID uint64) error {
	e.Panels.Discard(userID)
	e.Editors.DiscardUser(userID)

	if err := userctl.Delete(e.DB.WithContext(ctx), userID); err != nil {
		return err
	}

	log.Info().Uint64("user_id", userID).Msg("user deleted")

	return nil
}
