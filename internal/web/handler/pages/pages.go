// Package pages serves the static pages of the site and the not found page.
package pages

import (
	"github.com/gofiber/fiber/v2"

	"github.com/docket-app/docket/internal/web/handler"
	"github.com/docket-app/docket/internal/web/navigation"
)

const (
	// TemplateHome is the landing page.
	TemplateHome = "pages/home"
	// TemplateTerms is the terms of service page.
	TemplateTerms = "pages/terms"
	// TemplatePrivacy is the privacy policy page.
	TemplatePrivacy = "pages/privacy"

	// NotFoundText is shown for unknown paths.
	NotFoundText = "Sorry, we couldn't find that page."
)

// Service serves the static pages.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the pages handler.
var Handler = Service{}

// Init registers the routes.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if err := handler.Check(app, env); err != nil {
		return err
	}

	s.env = env

	app.Get(handler.RootPath, s.page(TemplateHome, env.Cfg.Title, navigation.SectionHome))
	app.Get("/terms", s.page(TemplateTerms, "Terms of Service", ""))
	app.Get("/privacy", s.page(TemplatePrivacy, "Privacy Policy", ""))

	return nil
}

func (s *Service) page(tmpl, title, section string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return handler.Page(c, tmpl, navigation.NewContext(title, section), fiber.Map{
			"Title": s.env.Cfg.Title,
		})
	}
}

// NotFound renders the not found page. Register it after every route.
func NotFound(c *fiber.Ctx) error {
	return handler.Placeholder(c, fiber.StatusNotFound, "Not found", NotFoundText)
}
