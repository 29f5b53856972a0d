// Package signup creates password accounts.
package signup

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/auth"
	"github.com/docket-app/docket/internal/guard"
	"github.com/docket-app/docket/internal/web/flash"
	"github.com/docket-app/docket/internal/web/handler"
	"github.com/docket-app/docket/internal/web/navigation"
)

const (
	// Path is the signup page.
	Path = handler.RootPath + "signup"

	// TemplateName is the signup form.
	TemplateName = "signup/index"

	// WelcomeText is the notice shown after signing up.
	WelcomeText = "Welcome!"
)

// ErrSignupDisabled is shown when accounts cannot be created.
var ErrSignupDisabled = errors.New("signing up is disabled")

// Form is the signup form.
type Form struct {
	FirstName string `form:"first_name" validate:"required,max=100"`
	LastName  string `form:"last_name" validate:"required,max=100"`
	Email     string `form:"email" validate:"required,email,max=255"`
	Password  string `form:"password" validate:"required,min=6"`
}

// Service is the signup handler service.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the signup handler.
var Handler = Service{}

// Init registers the routes.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if err := handler.Check(app, env); err != nil {
		return err
	}

	s.env = env

	app.Get(Path, env.Public(), s.Get)
	app.Post(Path, env.Public(), s.Post)

	return nil
}

func (s *Service) enabled() bool {
	return s.env.Cfg.Auth.Local.Enabled && s.env.Cfg.Auth.Local.AllowSignup
}

func (s *Service) render(c *fiber.Ctx, status int, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}

	data["Enabled"] = s.enabled()

	return handler.Page(c.Status(status), TemplateName, navigation.NewContext("Sign Up", navigation.SectionAccount), data)
}

// Get renders the form.
func (s *Service) Get(c *fiber.Ctx) error {
	if !s.enabled() {
		return s.render(c, fiber.StatusForbidden, fiber.Map{"Error": ErrSignupDisabled.Error()})
	}

	return s.render(c, fiber.StatusOK, fiber.Map{"Form": Form{}})
}

// Post creates the account, sends the verification mail and signs the user in.
func (s *Service) Post(c *fiber.Ctx) error {
	if !s.enabled() {
		return s.render(c, fiber.StatusForbidden, fiber.Map{"Error": ErrSignupDisabled.Error()})
	}

	form := new(Form)
	if err := c.BodyParser(form); err != nil {
		return s.render(c, fiber.StatusBadRequest, fiber.Map{"Error": "invalid form data", "Form": Form{}})
	}

	form.Email = auth.NormalizeEmail(form.Email)

	if errs := s.env.Validate(form); errs != nil {
		return s.render(c, fiber.StatusUnprocessableEntity, fiber.Map{"Errors": errs, "Form": form})
	}

	user, err := s.env.Local.Signup(c.UserContext(), auth.SignupInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	})

	switch {
	case errors.Is(err, auth.ErrUserNameOrEmailExists):
		return s.render(c, fiber.StatusConflict, fiber.Map{
			"Errors": handler.FieldErrors{"email": err.Error()},
			"Form":   form,
		})
	case err != nil:
		log.Error().Err(err).Msg("signup failed")
		return s.render(c, fiber.StatusInternalServerError, fiber.Map{"Error": "Could not create your account.", "Form": form})
	}

	if err = s.env.SendVerification(c.UserContext(), user); err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to send verification email")
	}

	if err = s.env.StartSession(c, user.ID, ""); err != nil {
		log.Error().Err(err).Msg("failed to start session")
		return handler.SeeOther(c, guard.LoginPath)
	}

	log.Info().Uint64("user_id", user.ID).Msg("user signed up")
	flash.Success(c, WelcomeText)

	return handler.SeeOther(c, guard.DefaultAfterLoginPath)
}
