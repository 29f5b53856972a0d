// Package consent records the GDPR acknowledgements the gate asks for.
package consent

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/gdpr"
	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/web/handler"
)

// FieldPrefix prefixes the setting id in the names of the form fields.
const FieldPrefix = handler.ConsentFieldPrefix

// Service is the consent handler service.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the consent handler.
var Handler = Service{}

// Init registers the routes.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if err := handler.Check(app, env); err != nil {
		return err
	}

	s.env = env

	app.Get(gdpr.ConsentPath, env.Authenticated(), s.Get)
	app.Post(gdpr.ConsentPath, env.Authenticated(), s.Post)

	return nil
}

func returnPath(c *fiber.Ctx) string {
	ret := c.FormValue("return")
	if ret == "" {
		ret = c.Query("return")
	}

	if strings.HasPrefix(ret, gdpr.ConsentPath) {
		ret = ""
	}

	return handler.SafePath(ret, handler.RootPath)
}

// Get renders the consent page, or returns when nothing is owed.
func (s *Service) Get(c *fiber.Ctx) error {
	complete, pending, err := s.env.Gate.Status(c.UserContext(), identity.FromCtx(c).UserID)
	if err != nil {
		return err
	}

	if complete {
		return c.Redirect(returnPath(c))
	}

	return handler.ConsentPage(c, pending, returnPath(c), "")
}

// Values collects the submitted setting values keyed by setting id. A field
// sent twice keeps the last value, so a checkbox after a hidden default wins.
func Values(c *fiber.Ctx) (map[uint64]string, error) {
	values := make(map[uint64]string)

	var err error

	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		name := string(k)
		if err != nil || !strings.HasPrefix(name, FieldPrefix) {
			return
		}

		id, perr := strconv.ParseUint(strings.TrimPrefix(name, FieldPrefix), 10, 64)
		if perr != nil {
			err = gdpr.ErrUnknownSetting
			return
		}

		values[id] = string(v)
	})

	return values, err
}

// Post saves the acknowledgements and returns to where the user was going.
func (s *Service) Post(c *fiber.Ctx) error {
	ctx := c.UserContext()
	uid := identity.FromCtx(c).UserID

	values, err := Values(c)
	if err == nil {
		err = s.env.Gate.Save(ctx, uid, values)
	}

	if err != nil {
		log.Info().Err(err).Uint64("user_id", uid).Msg("consent rejected")

		_, pending, serr := s.env.Gate.Status(ctx, uid)
		if serr != nil {
			return serr
		}

		status := fiber.StatusUnprocessableEntity
		if errors.Is(err, gdpr.ErrUnknownSetting) {
			status = fiber.StatusBadRequest
		}

		return handler.ConsentPage(c.Status(status), pending, returnPath(c), err.Error()+".")
	}

	log.Info().Uint64("user_id", uid).Msg("consent recorded")

	return handler.SeeOther(c, returnPath(c))
}
