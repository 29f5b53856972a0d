// Package account serves the mailed account links: email verification and
// password recovery.
package account

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/auth"
	"github.com/docket-app/docket/internal/guard"
	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/web/flash"
	"github.com/docket-app/docket/internal/web/handler"
	"github.com/docket-app/docket/internal/web/navigation"
)

const (
	// VerifyPath is followed from the verification mail.
	VerifyPath = handler.RootPath + "verify-email"
	// ResendPath sends another verification mail.
	ResendPath = VerifyPath + "/resend"
	// RecoverPath asks for a reset mail.
	RecoverPath = handler.RootPath + "recover-password"
	// ResetPath is followed from the reset mail.
	ResetPath = handler.RootPath + "reset-password"

	// TemplateVerify shows the verification result.
	TemplateVerify = "account/verify"
	// TemplateRecover is the recover password form.
	TemplateRecover = "account/recover"
	// TemplateReset is the new password form.
	TemplateReset = "account/reset"

	// VerifiedText is shown once the address is verified.
	VerifiedText = "All set, thanks!"
	// VerifyingText is shown until the page forwards.
	VerifyingText = "Verifying..."
	// ResentText confirms a new verification mail.
	ResentText = "Check your inbox for a verification link!"
	// RecoverSentText is shown whether or not the address exists.
	RecoverSentText = "Check your email for a reset link!"
	// ResetText confirms a new password.
	ResetText = "Password reset!"
)

// RecoverForm asks for the account address.
type RecoverForm struct {
	Email string `form:"email" validate:"required,email"`
}

// ResetForm sets a new password.
type ResetForm struct {
	Password string `form:"password" validate:"required,min=6"`
	Repeat   string `form:"repeat_password" validate:"required,eqfield=Password"`
}

// Service is the account handler service.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the account handler.
var Handler = Service{}

// Init registers the routes.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if err := handler.Check(app, env); err != nil {
		return err
	}

	s.env = env

	app.Post(ResendPath, env.Authenticated(), s.Resend)
	app.Get(VerifyPath+"/:token", s.Verify)

	app.Get(RecoverPath, env.Public(), s.RecoverForm)
	app.Post(RecoverPath, env.Public(), s.Recover)

	app.Get(ResetPath+"/:token", s.ResetForm)
	app.Post(ResetPath+"/:token", s.Reset)

	return nil
}

func nav(title string) *navigation.Context {
	return navigation.NewContext(title, navigation.SectionAccount)
}

// Verify marks the address in the token as verified and forwards to the
// documents after a short delay.
func (s *Service) Verify(c *fiber.Ctx) error {
	ctx := c.UserContext()

	fail := func(err error) error {
		log.Info().Err(err).Msg("email verification failed")

		return handler.Page(c.Status(fiber.StatusBadRequest), TemplateVerify, nav("Verify Email"), fiber.Map{
			"Error": tokenReason(err) + ". Please try again.",
		})
	}

	claims, err := s.env.Tokens.ParseVerifyEmailToken(c.Params("token"))
	if err != nil {
		return fail(err)
	}

	user, err := s.env.Auth.UserByID(ctx, claims.UserID)
	if err != nil {
		return fail(auth.ErrUserNotFound)
	}

	if !auth.EmailStateMatches(claims, user.EmailAddress) {
		return fail(auth.ErrTokenState)
	}

	if !user.EmailVerified {
		if err = s.env.Local.MarkEmailVerified(ctx, user.ID); err != nil {
			log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to mark email verified")
			return fail(err)
		}

		if err = s.env.Accounts.SendWelcomeEmail(ctx, user); err != nil {
			log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to send welcome email")
		}
	}

	flash.Success(c, VerifiedText)

	return handler.Page(c, TemplateVerify, nav("Verify Email"), fiber.Map{
		"Notice":   VerifyingText,
		"Redirect": guard.DefaultAfterLoginPath,
		"DelayMS":  s.env.Cfg.Timing.VerifyRedirectDelay.Milliseconds(),
	})
}

// Resend mails a new verification link to the signed in user.
func (s *Service) Resend(c *fiber.Ctx) error {
	sess := identity.FromCtx(c)
	back := handler.RefererPath(c, guard.DefaultAfterLoginPath)

	if sess.User == nil || sess.User.EmailVerified {
		return handler.SeeOther(c, back)
	}

	if err := s.env.SendVerification(c.UserContext(), sess.User); err != nil {
		log.Error().Err(err).Uint64("user_id", sess.UserID).Msg("failed to resend verification email")
		flash.Error(c, "Could not send the verification email.")

		return handler.SeeOther(c, back)
	}

	flash.Success(c, ResentText)

	return handler.SeeOther(c, back)
}

// RecoverForm renders the recover password form.
func (s *Service) RecoverForm(c *fiber.Ctx) error {
	return handler.Page(c, TemplateRecover, nav("Recover Password"), fiber.Map{})
}

// Recover sends a reset link when a password account has the address. The
// answer is the same either way.
func (s *Service) Recover(c *fiber.Ctx) error {
	form := new(RecoverForm)
	_ = c.BodyParser(form)

	if errs := s.env.Validate(form); errs != nil {
		return handler.Page(c.Status(fiber.StatusUnprocessableEntity), TemplateRecover, nav("Recover Password"), fiber.Map{
			"Errors": errs,
			"Email":  form.Email,
		})
	}

	ctx := c.UserContext()

	user, err := s.env.Local.UserByEmail(ctx, form.Email)
	if err == nil {
		var token string
		if token, err = s.env.Tokens.PasswordResetToken(user.ID, user.Password); err == nil {
			err = s.env.Accounts.SendPasswordReset(ctx, user, token)
		}
	}

	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		log.Error().Err(err).Msg("failed to send password reset")
	}

	return handler.Page(c, TemplateRecover, nav("Recover Password"), fiber.Map{"Notice": RecoverSentText, "Sent": true})
}

// ResetForm renders the new password form.
func (s *Service) ResetForm(c *fiber.Ctx) error {
	return handler.Page(c, TemplateReset, nav("Reset Password"), fiber.Map{"Token": c.Params("token")})
}

// Reset sets the new password and signs the user in. A token works once: the
// new password invalidates it.
func (s *Service) Reset(c *fiber.Ctx) error {
	token := c.Params("token")

	render := func(status int, data fiber.Map) error {
		data["Token"] = token
		return handler.Page(c.Status(status), TemplateReset, nav("Reset Password"), data)
	}

	form := new(ResetForm)
	_ = c.BodyParser(form)

	if errs := s.env.Validate(form); errs != nil {
		return render(fiber.StatusUnprocessableEntity, fiber.Map{"Errors": errs})
	}

	ctx := c.UserContext()

	claims, err := s.env.Tokens.ParsePasswordResetToken(token)
	if err != nil {
		return render(fiber.StatusBadRequest, fiber.Map{"Error": tokenReason(err) + "."})
	}

	user, err := s.env.Auth.UserByID(ctx, claims.UserID)
	if err != nil || !user.UsesPassword() || !auth.PasswordStateMatches(claims, user.Password) {
		return render(fiber.StatusBadRequest, fiber.Map{"Error": tokenReason(auth.ErrTokenState) + "."})
	}

	if err = s.env.Local.SetPassword(ctx, user.ID, form.Password); err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to reset password")
		return render(fiber.StatusInternalServerError, fiber.Map{"Error": "Could not reset your password."})
	}

	if err = s.env.StartSession(c, user.ID, ""); err != nil {
		log.Error().Err(err).Msg("failed to start session")
		return handler.SeeOther(c, guard.LoginPath)
	}

	flash.Success(c, ResetText)

	return handler.SeeOther(c, guard.DefaultAfterLoginPath)
}

// tokenReason turns a token error into a sentence.
func tokenReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "This link has expired"
	case errors.Is(err, auth.ErrTokenState), errors.Is(err, auth.ErrUserNotFound):
		return "This link is no longer valid"
	default:
		msg := err.Error()
		return strings.ToUpper(msg[:1]) + msg[1:]
	}
}
