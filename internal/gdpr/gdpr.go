// Package gdpr holds back the application until a user acknowledged every
// GDPR-flagged setting.
package gdpr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/metrics"
	"github.com/docket-app/docket/internal/panel"
	"github.com/docket-app/docket/internal/settings"
)

// ConsentPath is where the consent form is served and submitted.
const ConsentPath = "/consent"

// ExemptPaths are reachable while consent is missing. A path matches itself
// and everything below it.
var ExemptPaths = []string{ //nolint:gochecknoglobals
	ConsentPath, "/logout", "/static", "/terms", "/privacy", "/checkalive", "/metrics",
}

// ErrUnknownSetting is returned when a submitted value names no GDPR setting.
var ErrUnknownSetting = errors.New("unknown consent setting")

// Flusher writes or drops the pending panel edits of a user.
type Flusher interface {
	Flush(userID uint64)
}

// Gate decides whether a user still owes consent and records it.
type Gate struct {
	store  panel.Store
	panels Flusher
	now    func() time.Time
}

// NewGate returns a gate. panels may be nil.
func NewGate(store panel.Store, panels Flusher) *Gate {
	return &Gate{store: store, panels: panels, now: time.Now}
}

// Status reloads the settings of userID and returns the GDPR settings with
// whether all of them were acknowledged.
func (g *Gate) Status(ctx context.Context, userID uint64) (complete bool, pending []settings.Setting, err error) {
	list, err := g.store.Load(ctx, userID)
	if err != nil {
		return false, nil, err
	}

	for _, s := range list {
		if s.IsGDPR {
			pending = append(pending, s)
		}
	}

	return settings.GDPRComplete(list), pending, nil
}

// Save applies values (keyed by setting id) to the GDPR settings of userID,
// marks every GDPR setting as acknowledged and writes the list. Pending panel
// edits are written first so they are not lost.
func (g *Gate) Save(ctx context.Context, userID uint64, values map[uint64]string) error {
	if g.panels != nil {
		g.panels.Flush(userID)
	}

	list, err := g.store.Load(ctx, userID)
	if err != nil {
		return err
	}

	index := make(map[uint64]int, len(list))
	for i, s := range list {
		if s.IsGDPR {
			index[s.ID] = i
		}
	}

	for id, raw := range values {
		i, ok := index[id]
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownSetting, id)
		}

		v, err := settings.Parse(list[i].Type, raw)
		if err != nil {
			return fmt.Errorf("%s: %w", list[i].Label, err)
		}

		list[i].Value = v.String()
	}

	return g.store.Save(ctx, userID, settings.StampGDPR(list, g.now()))
}

// Exempt reports whether path stays reachable without consent.
func Exempt(path string) bool {
	for _, p := range ExemptPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}

	return false
}

// Config configures the gate middleware.
type Config struct {
	Gate *Gate
	// Render writes the consent page for the pending settings.
	Render func(c *fiber.Ctx, pending []settings.Setting) error
}

// Middleware intercepts requests of authenticated users who owe consent.
// GET requests get the consent page, every other method 428.
func Middleware(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := identity.FromCtx(c)
		if !sess.Authenticated || Exempt(c.Path()) {
			return c.Next()
		}

		complete, pending, err := cfg.Gate.Status(c.UserContext(), sess.UserID)
		if err != nil {
			return err
		}

		if complete {
			return c.Next()
		}

		metrics.GateInterceptions.WithLabelValues(c.Method()).Inc()

		if c.Method() != fiber.MethodGet {
			return c.SendStatus(fiber.StatusPreconditionRequired)
		}

		return cfg.Render(c, pending)
	}
}
