// Package profile serves the account page of the signed in user: profile,
// settings, export and account removal.
package profile

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/auth"
	"github.com/docket-app/docket/internal/export"
	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/panel"
	"github.com/docket-app/docket/internal/web/flash"
	"github.com/docket-app/docket/internal/web/handler"
	"github.com/docket-app/docket/internal/web/navigation"
	"github.com/docket-app/docket/internal/web/session"
)

const (
	// Path is the profile page.
	Path = handler.RootPath + "profile"
	// SettingsPath receives panel edits.
	SettingsPath = Path + "/settings"
	// ExportPath downloads the documents.
	ExportPath = Path + "/export"
	// DeletePath removes the account.
	DeletePath = Path + "/delete"

	// TemplateName is the profile template.
	TemplateName = "profile/index"

	// UpdatedText is flashed after a profile update.
	UpdatedText = "Profile updated!"
	// VerifyText is flashed when the new address needs verification.
	VerifyText = "Profile updated! Check your inbox to verify your new email address."
	// DeleteQuestion confirms the account removal.
	DeleteQuestion = "Are you sure? This will permanently delete your account and all of its data."
	// DeletedText is flashed once the account is gone.
	DeletedText = "Your account has been deleted."
)

// Form is the profile form. Password users also edit email and password.
type Form struct {
	FirstName       string `form:"first_name" validate:"max=100"`
	LastName        string `form:"last_name" validate:"max=100"`
	Email           string `form:"email" validate:"omitempty,email"`
	CurrentPassword string `form:"current_password"`
	NewPassword     string `form:"new_password" validate:"omitempty,min=6"`
}

// Service is the profile handler service.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the profile handler.
var Handler = Service{}

// Init registers the routes.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if err := handler.Check(app, env); err != nil {
		return err
	}

	s.env = env

	grp := app.Group(Path, env.Authenticated())
	grp.Get("", s.Get)
	grp.Post("", s.Post)
	grp.Post("/settings", s.Settings)
	grp.Get("/export", s.Export)
	grp.Get("/delete", s.DeleteConfirm)
	grp.Post("/delete", s.Delete)

	return nil
}

func nav() *navigation.Context {
	n := navigation.NewContext("Profile", navigation.SectionProfile)
	n.Add("Profile", Path)

	return n
}

func (s *Service) panel(userID uint64) *panel.Panel {
	return s.env.Panels.Get(userID, panel.Owner)
}

func (s *Service) render(c *fiber.Ctx, status int, tab string, data fiber.Map, panelMsg string) error {
	if data == nil {
		data = fiber.Map{}
	}

	user := identity.FromCtx(c).User

	data["Tab"] = tab
	data["Tabs"] = []string{handler.TabProfile, handler.TabSettings}
	data["User"] = user
	data["UsesPassword"] = user.UsesPassword()

	if _, ok := data["Form"]; !ok {
		data["Form"] = Form{FirstName: user.FirstName, LastName: user.LastName, Email: user.EmailAddress}
	}

	if tab == handler.TabSettings {
		data["PanelAction"] = SettingsPath

		if err := handler.PanelData(c, s.panel(user.ID), data, panelMsg); err != nil {
			return err
		}
	}

	return handler.Page(c.Status(status), TemplateName, nav(), data)
}

// Get renders the selected tab.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, handler.Tab(c), nil, "")
}

// Post updates the profile.
func (s *Service) Post(c *fiber.Ctx) error {
	user := identity.FromCtx(c).User

	form := new(Form)
	if err := c.BodyParser(form); err != nil {
		return s.render(c, fiber.StatusBadRequest, handler.TabProfile, fiber.Map{"Error": "Invalid form data."}, "")
	}

	form.Email = auth.NormalizeEmail(form.Email)

	if !user.UsesPassword() {
		// the provider owns address and credentials
		form.Email, form.CurrentPassword, form.NewPassword = user.EmailAddress, "", ""
	}

	fail := func(status int, errs handler.FieldErrors) error {
		return s.render(c, status, handler.TabProfile, fiber.Map{"Errors": errs, "Form": *form}, "")
	}

	errs := s.env.Validate(form)
	if form.Email == "" {
		if errs == nil {
			errs = handler.FieldErrors{}
		}

		errs["email"] = "This field is required."
	}

	if errs != nil {
		return fail(fiber.StatusUnprocessableEntity, errs)
	}

	ctx := c.UserContext()

	emailChanged, err := s.env.Local.UpdateProfile(ctx, user.ID, auth.ProfileInput{
		FirstName:       form.FirstName,
		LastName:        form.LastName,
		Email:           form.Email,
		CurrentPassword: form.CurrentPassword,
		NewPassword:     form.NewPassword,
	})

	switch {
	case errors.Is(err, auth.ErrUserNameOrEmailExists):
		return fail(fiber.StatusConflict, handler.FieldErrors{"email": err.Error()})
	case errors.Is(err, auth.ErrInvalidOldPassword):
		return fail(fiber.StatusUnprocessableEntity, handler.FieldErrors{"current_password": err.Error()})
	case err != nil:
		return err
	}

	log.Info().Uint64("user_id", user.ID).Bool("email_changed", emailChanged).Msg("profile updated")

	if !emailChanged {
		flash.Success(c, UpdatedText)
		return handler.SeeOther(c, Path)
	}

	updated, err := s.env.Auth.UserByID(ctx, user.ID)
	if err == nil {
		err = s.env.SendVerification(ctx, updated)
	}

	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to send verification email")
	}

	flash.Success(c, VerifyText)

	return handler.SeeOther(c, Path)
}

// Settings stages an edit in the owner panel.
func (s *Service) Settings(c *fiber.Ctx) error {
	p := s.panel(identity.FromCtx(c).UserID)

	status, msg, err := handler.EditSetting(c, p)
	if err != nil {
		return err
	}

	if status != 0 {
		return s.render(c, status, handler.TabSettings, nil, msg)
	}

	return handler.SeeOther(c, Path+"?tab="+handler.TabSettings)
}

// Export downloads the documents of the user as a zip archive.
func (s *Service) Export(c *fiber.Ctx) error {
	uid := identity.FromCtx(c).UserID

	payload, err := export.ForUser(s.env.DB.WithContext(c.UserContext()), uid)
	if err != nil {
		return err
	}

	raw, err := payload.Decode()
	if err != nil {
		return err
	}

	c.Attachment(export.Filename(uid))
	c.Set(fiber.HeaderContentType, "application/zip")

	return c.Send(raw)
}

// DeleteConfirm asks before removing the account.
func (s *Service) DeleteConfirm(c *fiber.Ctx) error {
	n := nav()
	n.Add("Delete Account", DeletePath)

	return handler.Confirm(c, n, DeleteQuestion, DeletePath, Path, nil)
}

// Delete removes the account with everything it owns and signs out.
func (s *Service) Delete(c *fiber.Ctx) error {
	if !handler.Confirmed(c) {
		return handler.SeeOther(c, DeletePath)
	}

	uid := identity.FromCtx(c).UserID

	if err := s.env.RemoveUser(c.UserContext(), uid); err != nil {
		return err
	}

	if sessionID, _, err := session.FromRequest(c); err == nil {
		_ = session.Delete(sessionID)
	}

	session.ClearCookie(c, s.env.SecureCookies())
	flash.Success(c, DeletedText)

	return handler.SeeOther(c, handler.RootPath)
}
