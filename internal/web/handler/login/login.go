// Package login provides HTTP handlers and helpers for user authentication.
package login

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/auth"
	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/guard"
	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/web/handler"
	"github.com/docket-app/docket/internal/web/navigation"
)

const (
	// Path is the path to the login page.
	Path = guard.LoginPath

	// TemplateName is the login form.
	TemplateName = "login/index"

	authTypeLocal = "local"
	authTypeLDAP  = "ldap"
)

// Form is the submitted login form.
type Form struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	AuthType string `form:"auth_type"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if err := handler.Check(app, env); err != nil {
		return err
	}

	s.env = env

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, env.Public(), s.Get)
		router.Post(handler.RouterRootPath, env.Public(), s.Post)
	})

	return nil
}

func (s *Service) render(c *fiber.Ctx, status int, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}

	cfg := s.env.Cfg
	data["LocalEnabled"] = cfg.Auth.Local.Enabled
	data["SignupEnabled"] = cfg.Auth.Local.Enabled && cfg.Auth.Local.AllowSignup
	data["LDAPEnabled"] = s.env.LDAP != nil
	data["OIDCEnabled"] = s.env.OIDC != nil

	if s.env.OIDC != nil {
		data["OIDCName"] = s.env.OIDC.Name()
	}

	return handler.Page(c.Status(status), TemplateName, navigation.NewContext("Log In", navigation.SectionAccount), data)
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, nil)
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)
	if err := c.BodyParser(form); err != nil {
		return s.render(c, fiber.StatusBadRequest, fiber.Map{"Error": ErrInvalidFormData.Error()})
	}

	if errs := s.env.Validate(form); errs != nil {
		return s.render(c, fiber.StatusUnprocessableEntity, fiber.Map{"Errors": errs, "Username": form.Username})
	}

	authType, err := s.pickAuthType(form.AuthType)
	if err != nil {
		return s.render(c, fiber.StatusBadRequest, fiber.Map{"Error": err.Error(), "Username": form.Username})
	}

	user, err := s.authenticate(c.UserContext(), authType, form.Username, form.Password)
	if err != nil {
		log.Info().Err(err).Str("username", form.Username).Str("auth_type", authType).Msg("login failed")

		return s.render(c, fiber.StatusUnauthorized, fiber.Map{"Error": err.Error(), "Username": form.Username})
	}

	if err = s.env.StartSession(c, user.ID, ""); err != nil {
		log.Error().Err(err).Msg("failed to start session")

		return s.render(c, fiber.StatusInternalServerError, fiber.Map{"Error": ErrInternalServerError.Error()})
	}

	log.Info().Uint64("user_id", user.ID).Str("auth_type", authType).Msg("user logged in")

	after := identity.FromCtx(c).AfterLoginPath

	return handler.SeeOther(c, handler.SafePath(after, guard.DefaultAfterLoginPath))
}

// pickAuthType resolves the requested method against the enabled ones.
// Without a request local wins over LDAP.
func (s *Service) pickAuthType(requested string) (string, error) {
	localEnabled := s.env.Cfg.Auth.Local.Enabled
	ldapEnabled := s.env.Cfg.Auth.LDAP.Enabled

	switch requested {
	case "":
		switch {
		case localEnabled:
			return authTypeLocal, nil
		case ldapEnabled:
			return authTypeLDAP, nil
		default:
			return "", ErrNoAuthMethod
		}
	case authTypeLocal:
		if !localEnabled {
			return "", ErrLocalAuthDisabled
		}

		return authTypeLocal, nil
	case authTypeLDAP:
		if !ldapEnabled || s.env.LDAP == nil {
			return "", ErrLDAPAuthDisabled
		}

		return authTypeLDAP, nil
	default:
		return "", ErrInvalidAuthMethod
	}
}

func (s *Service) authenticate(ctx context.Context, authType, username, password string) (*models.User, error) {
	switch authType {
	case authTypeLocal:
		user, err := s.env.Local.Authenticate(ctx, username, password)
		if err != nil {
			return nil, credentialsError(err)
		}

		return user, nil
	case authTypeLDAP:
		if s.env.LDAP == nil {
			return nil, ErrLDAPAuthDisabled
		}

		user, groups, err := s.env.LDAP.Authenticate(ctx, username, password)
		if err != nil {
			return nil, credentialsError(err)
		}

		if err = s.env.Auth.SyncAdminRole(ctx, user.ID, groups, s.env.LDAP.AdminGroups()); err != nil {
			log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to sync ldap roles")
		}

		return user, nil
	default:
		return nil, ErrInvalidAuthMethod
	}
}

// credentialsError hides which part of the credentials was wrong.
func credentialsError(err error) error {
	switch {
	case errors.Is(err, auth.ErrUserAccountDisabled):
		return ErrAccountDisabled
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidPassword):
		return ErrInvalidCredentials
	default:
		log.Error().Err(err).Msg("authentication error")
		return ErrInternalServerError
	}
}
