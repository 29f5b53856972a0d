package handler

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/guard"
	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/web/flash"
)

// ErrorTitle is the page title of a failed request that has nowhere to go
// back to, and the message shown for server errors.
const ErrorTitle = "Something went wrong"

// RefererPath returns the path of the Referer header when it points at this
// site, otherwise fallback.
func RefererPath(c *fiber.Ctx, fallback string) string {
	ref := c.Get(fiber.HeaderReferer)
	if strings.HasPrefix(ref, "/") {
		return SafePath(ref, fallback)
	}

	u, err := url.Parse(ref)
	if err != nil || u.Host == "" || u.Host != c.Hostname() {
		return fallback
	}

	return SafePath(u.RequestURI(), fallback)
}

// WantsJSON reports whether the caller is a script expecting JSON.
func WantsJSON(c *fiber.Ctx) bool {
	return c.XHR() || strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

// ErrorHandler is the fiber error handler. The failure is logged; scripts get
// JSON, pages get the message as a flash notice on the page they came from.
// A GET that would return to itself renders the message instead. Server
// errors are reported as ErrorTitle; their detail only reaches the log.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	ev := log.Error()
	if code < fiber.StatusInternalServerError {
		ev = log.Warn()
	}

	ev.Err(err).
		Int("status", code).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Uint64("user_id", identity.FromCtx(c).UserID).
		Msg("request failed")

	msg := ErrorTitle
	if code < fiber.StatusInternalServerError {
		msg = err.Error()
	}

	if WantsJSON(c) {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}

	back := RefererPath(c, guard.DefaultAfterLoginPath)
	if c.Method() == fiber.MethodGet && back == c.OriginalURL() {
		return Placeholder(c, code, ErrorTitle, msg)
	}

	flash.Error(c, msg)

	return SeeOther(c, back)
}
