package oidc

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/auth"
	"github.com/docket-app/docket/internal/guard"
	"github.com/docket-app/docket/internal/identity"
	"github.com/docket-app/docket/internal/web/handler"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = handler.RootPath + "auth/oidc/login"

	// CallbackPath is the path for OIDC callback.
	CallbackPath = handler.RootPath + "auth/oidc/callback"

	// StateTTL bounds the time between login and callback.
	StateTTL = 5 * time.Minute
)

var (
	// ErrUnavailable is returned when OIDC is not configured.
	ErrUnavailable = errors.New("OIDC authentication is not available")
	// ErrInvalidState is returned for unknown, reused or expired states.
	ErrInvalidState = errors.New("invalid state token")
	// ErrInvalidCallback is returned when code or state is missing.
	ErrInvalidCallback = errors.New("invalid callback parameters")
)

// States holds the state tokens of logins in flight.
type States struct {
	mu     sync.Mutex
	expiry map[string]time.Time
	now    func() time.Time
}

// NewStates returns an empty state store.
func NewStates() *States {
	return &States{expiry: make(map[string]time.Time), now: time.Now}
}

// Put registers state for ttl and drops expired states.
func (s *States) Put(state string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	for k, exp := range s.expiry {
		if now.After(exp) {
			delete(s.expiry, k)
		}
	}

	s.expiry[state] = now.Add(ttl)
}

// Take consumes state. It reports false for unknown or expired states.
func (s *States) Take(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expiry[state]
	if !ok {
		return false
	}

	delete(s.expiry, state)

	return !s.now().After(exp)
}

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	env    *handler.Env
	states *States
}

// Handler is the OIDC handler.
var Handler = Service{}

// Init registers the routes. Without a configured provider the routes answer
// with 503.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if err := handler.Check(app, env); err != nil {
		return err
	}

	s.env = env
	s.states = NewStates()

	app.Get(LoginPath, env.Public(), s.Login)
	app.Get(CallbackPath, s.Callback)

	return nil
}

// Login initiates the OIDC login flow.
func (s *Service) Login(c *fiber.Ctx) error {
	if s.env.OIDC == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString(ErrUnavailable.Error())
	}

	state, err := auth.GenerateStateToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate state token")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	s.states.Put(state, StateTTL)

	return c.Redirect(s.env.OIDC.AuthURL(state))
}

// Callback handles the OIDC callback.
func (s *Service) Callback(c *fiber.Ctx) error {
	if s.env.OIDC == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString(ErrUnavailable.Error())
	}

	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).SendString(ErrInvalidCallback.Error())
	}

	if !s.states.Take(state) {
		log.Warn().Msg("OIDC callback with unknown or expired state")
		return c.Status(fiber.StatusBadRequest).SendString(ErrInvalidState.Error())
	}

	ctx := c.UserContext()

	id, err := s.env.OIDC.HandleCallback(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("OIDC authentication failed")
		return c.Status(fiber.StatusUnauthorized).SendString("Authentication failed")
	}

	if !id.User.Active {
		return c.Status(fiber.StatusForbidden).SendString("Account is disabled")
	}

	if err = s.env.Auth.SyncAdminRole(ctx, id.User.ID, id.Groups, s.env.OIDC.AdminGroups()); err != nil {
		log.Error().Err(err).Uint64("user_id", id.User.ID).Msg("failed to sync OIDC roles")
	}

	if err = s.env.StartSession(c, id.User.ID, id.IDToken); err != nil {
		log.Error().Err(err).Msg("failed to start session")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	log.Info().Uint64("user_id", id.User.ID).Msg("user logged in via OIDC")

	after := identity.FromCtx(c).AfterLoginPath

	return handler.SeeOther(c, handler.SafePath(after, guard.DefaultAfterLoginPath))
}
