package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/docket-app/docket/internal/panel"
)

// Tabs of the profile and admin user pages.
const (
	TabProfile  = "profile"
	TabSettings = "settings"
)

// Tab returns the tab selected by ?tab=, TabProfile by default.
func Tab(c *fiber.Ctx) string {
	if c.Query("tab") == TabSettings {
		return TabSettings
	}

	return TabProfile
}

// SettingForm is a single setting edit submitted by a panel control.
type SettingForm struct {
	ID    uint64 `form:"setting_id" validate:"required"`
	Value string `form:"value"`
}

// EditSetting applies the submitted setting edit to p. On rejection it
// returns the status to answer with and the message to show beside the panel.
func EditSetting(c *fiber.Ctx, p *panel.Panel) (status int, msg string, err error) {
	form := new(SettingForm)
	if err = c.BodyParser(form); err != nil || form.ID == 0 {
		return fiber.StatusBadRequest, "Invalid setting.", nil
	}

	s, err := p.Edit(c.UserContext(), form.ID, form.Value)

	switch {
	case err == nil:
		return 0, "", nil
	case errors.Is(err, panel.ErrSettingNotFound):
		return fiber.StatusNotFound, "That setting no longer exists.", nil
	case s.ID != 0:
		return fiber.StatusUnprocessableEntity, s.Label + ": " + err.Error() + ".", nil
	default:
		return 0, "", err
	}
}

// PanelData adds the panel view to data under "Panel". msg replaces the
// error of the view when set.
func PanelData(c *fiber.Ctx, p *panel.Panel, data fiber.Map, msg string) error {
	v, err := p.View(c.UserContext())
	if err != nil {
		return err
	}

	if msg != "" {
		v.Error = msg
	}

	data["Panel"] = v

	if v.Error != "" {
		data["Error"] = v.Error
	}

	if len(v.Settings) == 0 {
		data["Empty"] = v.Empty
	}

	if v.Subtitle != "" {
		data["Subtitle"] = v.Subtitle
	}

	return nil
}
