// Package settings provides the admin registry of user setting definitions.
package settings

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/db/controller/settingdef"
	"github.com/docket-app/docket/internal/db/models"
	usersettings "github.com/docket-app/docket/internal/settings"
	"github.com/docket-app/docket/internal/web/flash"
	"github.com/docket-app/docket/internal/web/handler"
	"github.com/docket-app/docket/internal/web/navigation"
)

const (
	// Path is the registry. It lives below the user console and must be
	// registered before the user routes.
	Path = handler.RootPath + "admin/users/settings"
	// NormalizeKeyPath previews key normalization.
	NormalizeKeyPath = Path + "/normalize-key"

	// TemplateList lists the definitions.
	TemplateList = "admin/settings/list"
	// TemplateForm creates or edits a definition.
	TemplateForm = "admin/settings/form"

	// EmptyText is shown without definitions.
	EmptyText = "No user settings here, friend."
	// NotFoundText is shown for unknown definitions.
	NotFoundText = "No setting here, friend!"

	// AddedText is flashed after create.
	AddedText = "Setting added!"
	// UpdatedText is flashed after update.
	UpdatedText = "Setting updated!"
	// RemovedText is flashed after delete.
	RemovedText = "Setting removed!"

	// UpdateQuestion confirms an update.
	UpdateQuestion = "Are you sure? This will overwrite this setting for all users immediately. " +
		"If you're changing the Key Name or Type, double-check that your UI can support this to avoid rendering errors."
	// DeleteQuestion confirms a delete.
	DeleteQuestion = "Are you sure? Before deleting this setting make sure that it's no longer in use in your application!"
)

// Form is a setting definition as entered by the operator.
type Form struct {
	Key          string `form:"key" validate:"required,max=100"`
	Label        string `form:"label" validate:"required,max=255"`
	Type         string `form:"type" validate:"required,oneof=boolean number string"`
	DefaultValue string `form:"default_value" validate:"max=1024"`
	IsGDPR       bool   `form:"is_gdpr"`
}

func (f Form) input() settingdef.Input {
	return settingdef.Input{Key: f.Key, Label: f.Label, Type: f.Type, DefaultValue: f.DefaultValue, IsGDPR: f.IsGDPR}
}

// fields carries the form through the confirmation page.
func (f Form) fields() map[string]string {
	return map[string]string{
		"key":           f.Key,
		"label":         f.Label,
		"type":          f.Type,
		"default_value": f.DefaultValue,
		"is_gdpr":       strconv.FormatBool(f.IsGDPR),
	}
}

func formOf(def *models.SettingDefinition) Form {
	return Form{Key: def.Key, Label: def.Label, Type: def.Type, DefaultValue: def.DefaultValue, IsGDPR: def.IsGDPR}
}

// DefPath returns the edit path of a definition.
func DefPath(id uint64) string {
	return Path + "/" + strconv.FormatUint(id, 10)
}

// Service is the registry handler.
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
	grp.Post("", s.Create)
	grp.Get("/new", s.New)
	grp.Post("/normalize-key", s.NormalizeKey)
	grp.Get("/:id<int>", s.Edit)
	grp.Post("/:id<int>", s.Update)
	grp.Get("/:id<int>/delete", s.DeleteConfirm)
	grp.Post("/:id<int>/delete", s.Delete)

	return nil
}

func nav(title string) *navigation.Context {
	n := navigation.NewContext(title, navigation.SectionAdmin)
	n.Add("Users", "/admin/users")
	n.Add("Settings", Path)

	return n
}

func (s *Service) load(c *fiber.Ctx) (*models.SettingDefinition, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil, handler.Placeholder(c, fiber.StatusNotFound, "Not Found", NotFoundText)
	}

	def, err := settingdef.GetByID(s.env.DB.WithContext(c.UserContext()), id)
	if errors.Is(err, settingdef.ErrSettingNotFound) {
		return nil, handler.Placeholder(c, fiber.StatusNotFound, "Not Found", NotFoundText)
	}

	return def, err
}

// List shows every definition.
func (s *Service) List(c *fiber.Ctx) error {
	defs, err := settingdef.List(s.env.DB.WithContext(c.UserContext()))
	if err != nil {
		return err
	}

	data := fiber.Map{"Settings": defs}
	if len(defs) == 0 {
		data["Empty"] = EmptyText
	}

	return handler.Page(c, TemplateList, nav("User Settings"), data)
}

func (s *Service) form(c *fiber.Ctx, status int, def *models.SettingDefinition, form Form, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}

	data["Form"] = form
	data["Types"] = usersettings.Types
	data["Action"] = Path
	data["Setting"] = def

	n := nav("New Setting")
	if def != nil {
		data["Action"] = DefPath(def.ID)
		n = nav(def.Label)
		n.Add(def.Label, DefPath(def.ID))
	}

	return handler.Page(c.Status(status), TemplateForm, n, data)
}

// New renders an empty form.
func (s *Service) New(c *fiber.Ctx) error {
	return s.form(c, fiber.StatusOK, nil, Form{Type: string(usersettings.TypeBoolean)}, nil)
}

// parse reads and validates the form. A non-nil FieldErrors was rendered
// by the caller's form function.
func (s *Service) parse(c *fiber.Ctx) (Form, handler.FieldErrors) {
	form := Form{}
	if err := c.BodyParser(&form); err != nil {
		return form, handler.FieldErrors{"form": "Invalid form data."}
	}

	return form, s.env.Validate(&form)
}

// fieldErrors maps registry errors to the field they concern.
func fieldErrors(err error) (int, handler.FieldErrors) {
	switch {
	case errors.Is(err, settingdef.ErrKeyAlreadyExists):
		return fiber.StatusConflict, handler.FieldErrors{"key": err.Error()}
	case errors.Is(err, settingdef.ErrKeyEmpty):
		return fiber.StatusUnprocessableEntity, handler.FieldErrors{"key": err.Error()}
	case errors.Is(err, settingdef.ErrLabelEmpty):
		return fiber.StatusUnprocessableEntity, handler.FieldErrors{"label": err.Error()}
	case errors.Is(err, usersettings.ErrUnknownType):
		return fiber.StatusUnprocessableEntity, handler.FieldErrors{"type": err.Error()}
	case errors.Is(err, usersettings.ErrInvalidBoolean), errors.Is(err, usersettings.ErrInvalidNumber):
		return fiber.StatusUnprocessableEntity, handler.FieldErrors{"default_value": err.Error()}
	default:
		return 0, nil
	}
}

// Create adds a definition.
func (s *Service) Create(c *fiber.Ctx) error {
	form, errs := s.parse(c)
	if errs != nil {
		return s.form(c, fiber.StatusUnprocessableEntity, nil, form, fiber.Map{"Errors": errs})
	}

	def, err := settingdef.Create(s.env.DB.WithContext(c.UserContext()), form.input())
	if status, errs := fieldErrors(err); errs != nil {
		return s.form(c, status, nil, form, fiber.Map{"Errors": errs})
	} else if err != nil {
		return err
	}

	log.Info().Str("key", def.Key).Msg("setting definition added")
	flash.Success(c, AddedText)

	return handler.SeeOther(c, Path)
}

// Edit renders the form of a definition.
func (s *Service) Edit(c *fiber.Ctx) error {
	def, err := s.load(c)
	if def == nil || err != nil {
		return err
	}

	return s.form(c, fiber.StatusOK, def, formOf(def), nil)
}

// Update overwrites a definition once the operator confirmed it.
func (s *Service) Update(c *fiber.Ctx) error {
	def, err := s.load(c)
	if def == nil || err != nil {
		return err
	}

	form, errs := s.parse(c)
	if errs != nil {
		return s.form(c, fiber.StatusUnprocessableEntity, def, form, fiber.Map{"Errors": errs})
	}

	if !handler.Confirmed(c) {
		n := nav(def.Label)
		n.Add(def.Label, DefPath(def.ID))

		return handler.Confirm(c, n, UpdateQuestion, DefPath(def.ID), DefPath(def.ID), form.fields())
	}

	updated, err := settingdef.Update(s.env.DB.WithContext(c.UserContext()), def.ID, form.input())
	if status, errs := fieldErrors(err); errs != nil {
		return s.form(c, status, def, form, fiber.Map{"Errors": errs})
	} else if err != nil {
		return err
	}

	log.Info().Uint64("id", updated.ID).Str("key", updated.Key).Msg("setting definition updated")
	flash.Success(c, UpdatedText)

	return handler.SeeOther(c, Path)
}

// DeleteConfirm asks before removing a definition.
func (s *Service) DeleteConfirm(c *fiber.Ctx) error {
	def, err := s.load(c)
	if def == nil || err != nil {
		return err
	}

	n := nav(def.Label)
	n.Add("Delete", DefPath(def.ID)+"/delete")

	return handler.Confirm(c, n, DeleteQuestion, DefPath(def.ID)+"/delete", Path, nil)
}

// Delete removes a confirmed definition. Stored user values stay.
func (s *Service) Delete(c *fiber.Ctx) error {
	def, err := s.load(c)
	if def == nil || err != nil {
		return err
	}

	if !handler.Confirmed(c) {
		return handler.SeeOther(c, DefPath(def.ID)+"/delete")
	}

	if err = settingdef.Delete(s.env.DB.WithContext(c.UserContext()), def.ID); err != nil {
		return err
	}

	log.Info().Uint64("id", def.ID).Str("key", def.Key).Msg("setting definition removed")
	flash.Success(c, RemovedText)

	return handler.SeeOther(c, Path)
}

// NormalizeKey answers with the normalized form of the submitted key.
func (s *Service) NormalizeKey(c *fiber.Ctx) error {
	key := c.FormValue("key")
	if key == "" {
		key = strings.TrimSpace(c.Query("key"))
	}

	return c.JSON(fiber.Map{"key": usersettings.NormalizeKey(key)})
}
