// Package user provides the admin console of user accounts.
package user

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/auth"
	userctl "github.com/docket-app/docket/internal/db/controller/user"
	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/panel"
	"github.com/docket-app/docket/internal/web/flash"
	"github.com/docket-app/docket/internal/web/handler"
	"github.com/docket-app/docket/internal/web/navigation"
)

const (
	// Path is the base path for user management.
	Path = handler.RootPath + "admin/users"

	// TemplateList is the template for listing users.
	TemplateList = "admin/user/list"
	// TemplateDetail is the template of one user with its tabs.
	TemplateDetail = "admin/user/detail"

	// NotFoundText is shown for unknown users.
	NotFoundText = "No user here, friend!"
	// UpdatedText is flashed after an update.
	UpdatedText = "User updated!"
	// DeletedText is flashed after removal.
	DeletedText = "User deleted!"
	// DeleteQuestion confirms removal.
	DeleteQuestion = "Are you sure? This is permanent!"
	// DeleteSelfText refuses removing the own account here.
	DeleteSelfText = "You can't delete yourself from here."
	// DeleteAdminText refuses removing administrators.
	DeleteAdminText = "Administrators can't be deleted."
)

// Form is the profile form of the admin console.
type Form struct {
	FirstName   string `form:"first_name" validate:"max=100"`
	LastName    string `form:"last_name" validate:"max=100"`
	Email       string `form:"email" validate:"required,email"`
	Active      bool   `form:"active"`
	NewPassword string `form:"new_password" validate:"omitempty,min=6"`
}

// UserPath returns the console path of id.
func UserPath(id uint64) string {
	return Path + "/" + strconv.FormatUint(id, 10)
}

// Service provides the user console.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if err := handler.Check(app, env); err != nil {
		return err
	}

	s.env = env

	grp := app.Group(Path, env.AdminOnly())
	grp.Get("", s.List)
	grp.Get("/:id<int>", s.Detail)
	grp.Post("/:id<int>", s.Update)
	grp.Post("/:id<int>/settings", s.Settings)
	grp.Get("/:id<int>/delete", s.DeleteConfirm)
	grp.Post("/:id<int>/delete", s.Delete)

	return nil
}

func nav(title string) *navigation.Context {
	n := navigation.NewContext(title, navigation.SectionAdmin)
	n.Add("Users", Path)

	return n
}

// List shows users with search and pagination.
func (s *Service) List(c *fiber.Ctx) error {
	search := c.Query("search")

	page, err := userctl.Search(s.env.DB.WithContext(c.UserContext()), search, c.QueryInt("page", 1))
	if err != nil {
		log.Error().Err(err).Msg("query users failed")

		return handler.Page(c.Status(fiber.StatusInternalServerError), TemplateList, nav("Users"), fiber.Map{
			"Error":  "Failed to load users",
			"Search": search,
		})
	}

	return handler.Page(c, TemplateList, nav("Users"), fiber.Map{
		"Users":         page.Users,
		"CurrentUserID": identity.FromCtx(c).UserID,
		"Search":        search,
		"Page":          page.Page,
		"TotalItems":    page.Total,
		"TotalPages":    page.TotalPages,
		"HasPrev":       page.HasPrev(),
		"HasNext":       page.HasNext(),
		"PrevPage":      page.Page - 1,
		"NextPage":      page.Page + 1,
	})
}

// load returns the user of the :id parameter. A nil user with a nil error
// means the not found page was rendered.
func (s *Service) load(c *fiber.Ctx) (*models.User, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil, handler.Placeholder(c, fiber.StatusNotFound, "Not Found", NotFoundText)
	}

	u, err := userctl.GetByID(s.env.DB.WithContext(c.UserContext()), id)
	if errors.Is(err, userctl.ErrUserNotFound) {
		return nil, handler.Placeholder(c, fiber.StatusNotFound, "Not Found", NotFoundText)
	}

	return u, err
}

func (s *Service) panel(userID uint64) *panel.Panel {
	return s.env.Panels.Get(userID, panel.Admin)
}

func (s *Service) render(c *fiber.Ctx, status int, u *models.User, tab string, data fiber.Map, panelMsg string) error {
	if data == nil {
		data = fiber.Map{}
	}

	data["Tab"] = tab
	data["Tabs"] = []string{handler.TabProfile, handler.TabSettings}
	data["User"] = u
	data["UserIsAdmin"] = userctl.IsAdmin(u)
	data["IsSelf"] = u.ID == identity.FromCtx(c).UserID

	if _, ok := data["Form"]; !ok {
		data["Form"] = Form{FirstName: u.FirstName, LastName: u.LastName, Email: u.EmailAddress, Active: u.Active}
	}

	if tab == handler.TabSettings {
		data["PanelAction"] = UserPath(u.ID) + "/settings"

		if err := handler.PanelData(c, s.panel(u.ID), data, panelMsg); err != nil {
			return err
		}
	}

	n := nav(u.Username)
	n.Add(u.Username, UserPath(u.ID))

	return handler.Page(c.Status(status), TemplateDetail, n, data)
}

// Detail shows one user on the selected tab.
func (s *Service) Detail(c *fiber.Ctx) error {
	u, err := s.load(c)
	if u == nil || err != nil {
		return err
	}

	return s.render(c, fiber.StatusOK, u, handler.Tab(c), nil, "")
}

// Update saves the profile tab.
func (s *Service) Update(c *fiber.Ctx) error {
	u, err := s.load(c)
	if u == nil || err != nil {
		return err
	}

	form := new(Form)
	if err = c.BodyParser(form); err != nil {
		return s.render(c, fiber.StatusBadRequest, u, handler.TabProfile, fiber.Map{"Error": "Invalid form data."}, "")
	}

	form.Email = auth.NormalizeEmail(form.Email)

	if !u.UsesPassword() {
		form.Email, form.NewPassword = u.EmailAddress, ""
	}

	if u.ID == identity.FromCtx(c).UserID {
		// locking oneself out is not an option here
		form.Active = true
	}

	fail := func(status int, errs handler.FieldErrors) error {
		return s.render(c, status, u, handler.TabProfile, fiber.Map{"Errors": errs, "Form": *form}, "")
	}

	if errs := s.env.Validate(form); errs != nil {
		return fail(fiber.StatusUnprocessableEntity, errs)
	}

	ctx := c.UserContext()

	_, err = s.env.Local.UpdateProfile(ctx, u.ID, auth.ProfileInput{
		FirstName:         form.FirstName,
		LastName:          form.LastName,
		Email:             form.Email,
		NewPassword:       form.NewPassword,
		SkipPasswordCheck: true,
	})

	switch {
	case errors.Is(err, auth.ErrUserNameOrEmailExists):
		return fail(fiber.StatusConflict, handler.FieldErrors{"email": err.Error()})
	case err != nil:
		return err
	}

	if form.Active != u.Active {
		if err = s.env.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).Update("active", form.Active).Error; err != nil {
			return err
		}
	}

	log.Info().Uint64("user_id", u.ID).Uint64("admin_id", identity.FromCtx(c).UserID).Msg("user updated by admin")
	flash.Success(c, UpdatedText)

	return handler.SeeOther(c, UserPath(u.ID))
}

// Settings stages an edit in the admin panel of the user. Admin edits never
// count as the owner's acknowledgement.
func (s *Service) Settings(c *fiber.Ctx) error {
	u, err := s.load(c)
	if u == nil || err != nil {
		return err
	}

	status, msg, err := handler.EditSetting(c, s.panel(u.ID))
	if err != nil {
		return err
	}

	if status != 0 {
		return s.render(c, status, u, handler.TabSettings, nil, msg)
	}

	return handler.SeeOther(c, UserPath(u.ID)+"?tab="+handler.TabSettings)
}

// refuseDelete returns why u cannot be deleted by the requester, or "".
func refuseDelete(c *fiber.Ctx, u *models.User) string {
	switch {
	case u.ID == identity.FromCtx(c).UserID:
		return DeleteSelfText
	case userctl.IsAdmin(u):
		return DeleteAdminText
	default:
		return ""
	}
}

// DeleteConfirm asks before removing the user.
func (s *Service) DeleteConfirm(c *fiber.Ctx) error {
	u, err := s.load(c)
	if u == nil || err != nil {
		return err
	}

	if msg := refuseDelete(c, u); msg != "" {
		flash.Error(c, msg)
		return c.Redirect(UserPath(u.ID))
	}

	n := nav(u.Username)
	n.Add("Delete", UserPath(u.ID)+"/delete")

	return handler.Confirm(c, n, DeleteQuestion, UserPath(u.ID)+"/delete", UserPath(u.ID), nil)
}

// Delete removes the confirmed user with all their data.
func (s *Service) Delete(c *fiber.Ctx) error {
	u, err := s.load(c)
	if u == nil || err != nil {
		return err
	}

	if msg := refuseDelete(c, u); msg != "" {
		flash.Error(c, msg)
		return handler.SeeOther(c, UserPath(u.ID))
	}

	if !handler.Confirmed(c) {
		return handler.SeeOther(c, UserPath(u.ID)+"/delete")
	}

	if err = s.env.RemoveUser(c.UserContext(), u.ID); err != nil {
		return err
	}

	flash.Success(c, DeletedText)

	return handler.SeeOther(c, Path)
}
