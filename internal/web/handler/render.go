package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/docket-app/docket/internal/gdpr"
	"github.com/docket-app/docket/internal/settings"
	"github.com/docket-app/docket/internal/web/navigation"
)

const (
	// TemplatePlaceholder renders a single message, used for not found pages.
	TemplatePlaceholder = "pages/placeholder"
	// TemplateConfirm asks the operator to confirm a destructive action.
	TemplateConfirm = "pages/confirm"
	// TemplateConsent is the GDPR consent page.
	TemplateConsent = "consent/index"

	// ConsentFieldPrefix prefixes the setting id in consent form fields.
	ConsentFieldPrefix = "setting_"
)

// Page renders tmpl inside the base layout.
func Page(c *fiber.Ctx, tmpl string, nav *navigation.Context, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}

	data["Navigation"] = nav

	return c.Render(tmpl, data, BaseLayout)
}

// Placeholder renders text alone on a page with the given status.
func Placeholder(c *fiber.Ctx, status int, title, text string) error {
	return Page(c.Status(status), TemplatePlaceholder, navigation.NewContext(title, ""), fiber.Map{
		"Message": text,
	})
}

// Confirm renders a confirmation form that posts back to action with confirm=yes.
// fields are carried as hidden inputs.
func Confirm(c *fiber.Ctx, nav *navigation.Context, question, action, cancel string, fields map[string]string) error {
	return Page(c, TemplateConfirm, nav, fiber.Map{
		"Question": question,
		"Action":   action,
		"Cancel":   cancel,
		"Fields":   fields,
		"Confirm":  ConfirmYes,
	})
}

// Confirmed reports whether the operator confirmed the submitted action.
func Confirmed(c *fiber.Ctx) bool {
	return c.FormValue("confirm") == ConfirmYes
}

// SafePath returns p when it is a path on this site, otherwise fallback.
func SafePath(p, fallback string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return fallback
	}

	return p
}

// SeeOther redirects a form submission.
func SeeOther(c *fiber.Ctx, location string) error {
	return c.Redirect(location, fiber.StatusSeeOther)
}

// RenderConsent renders the consent page for the pending GDPR settings. The
// form returns to the requested location once saved.
func RenderConsent(c *fiber.Ctx, pending []settings.Setting) error {
	return ConsentPage(c, pending, SafePath(c.OriginalURL(), RootPath), "")
}

// ConsentPage renders the consent page returning to ret, with msg as error.
func ConsentPage(c *fiber.Ctx, pending []settings.Setting, ret, msg string) error {
	return Page(c, TemplateConsent, navigation.NewContext("Privacy settings", ""), fiber.Map{
		"Settings": pending,
		"Action":   gdpr.ConsentPath,
		"Return":   ret,
		"Field":    ConsentFieldPrefix,
		"Error":    msg,
	})
}
