package web

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/docket-app/docket/internal/auth"
	"github.com/docket-app/docket/internal/config"
	"github.com/docket-app/docket/internal/db/controller/usersetting"
	"github.com/docket-app/docket/internal/editor"
	"github.com/docket-app/docket/internal/gdpr"
	"github.com/docket-app/docket/internal/identity"
	fiberlog "github.com/docket-app/docket/internal/logger/adapter/fiber"
	"github.com/docket-app/docket/internal/mail"
	"github.com/docket-app/docket/internal/markdown"
	"github.com/docket-app/docket/internal/metrics"
	"github.com/docket-app/docket/internal/panel"
	"github.com/docket-app/docket/internal/web/flash"
	"github.com/docket-app/docket/internal/web/handler"
	"github.com/docket-app/docket/internal/web/handler/account"
	adminsettings "github.com/docket-app/docket/internal/web/handler/admin/settings"
	adminuser "github.com/docket-app/docket/internal/web/handler/admin/user"
	oidchandler "github.com/docket-app/docket/internal/web/handler/auth/oidc"
	"github.com/docket-app/docket/internal/web/handler/consent"
	"github.com/docket-app/docket/internal/web/handler/document"
	"github.com/docket-app/docket/internal/web/handler/login"
	"github.com/docket-app/docket/internal/web/handler/logout"
	"github.com/docket-app/docket/internal/web/handler/pages"
	"github.com/docket-app/docket/internal/web/handler/profile"
	"github.com/docket-app/docket/internal/web/handler/signup"
	authmw "github.com/docket-app/docket/internal/web/middleware/auth"
)

// CheckAlivePath answers load balancer health checks.
const CheckAlivePath = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	Env          *handler.Env
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for a termination signal, drains the load balancer and
// stops the server. Waiting settings and autosaves are written before exit.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown

	s.Close()
	log.Info().Msg("http server was stopped ... good bye...")
}

// Close writes pending panel edits and autosaves.
func (s *Service) Close() {
	s.Env.Panels.Close()
	s.Env.Editors.Close()
}

// NewEnv builds the services the handlers share. LDAP and OIDC providers are
// only created when enabled; a failing OIDC discovery disables OIDC.
func NewEnv(ctx context.Context, cfg *config.Config, db *gorm.DB) (*handler.Env, error) {
	mailer, err := mail.New(cfg.Mail)
	if err != nil {
		return nil, err
	}

	store := usersetting.NewStore(db)
	panels := panel.NewRegistry(store, cfg.Timing.SettingsDebounce)
	commands := editor.NewDispatcher(editor.NewDBStore(db))

	env := &handler.Env{
		Cfg:       cfg,
		DB:        db,
		Auth:      auth.NewService(db),
		Local:     auth.NewLocalProvider(db),
		Tokens:    auth.NewTokens(cfg.Tokens.Secret, cfg.Tokens.VerifyEmailTTL, cfg.Tokens.PasswordResetTTL),
		Accounts:  mail.NewAccounts(mailer, cfg.Webserver.URL, cfg.Title),
		Panels:    panels,
		Editors:   editor.NewRegistry(commands, cfg.Timing.AutosaveDebounce, cfg.Timing.SavingClearDelay),
		Commands:  commands,
		Gate:      gdpr.NewGate(store, panels),
		Markdown:  markdown.New(),
		Recorder:  authmw.PathRecorder{Expiry: cfg.Webserver.Session.ExpiryTime, Secure: cfg.Webserver.SecureCookies && !cfg.DevMode},
		Validator: handler.NewValidator(),
	}

	if cfg.Auth.LDAP.Enabled {
		if env.LDAP, err = auth.NewLDAPProvider(&cfg.Auth.LDAP, db); err != nil {
			return nil, err
		}

		log.Info().Str("host", cfg.Auth.LDAP.Host).Msg("LDAP authentication enabled")
	}

	if cfg.Auth.OIDC.Enabled {
		if env.OIDC, err = auth.NewOIDCProvider(ctx, &cfg.Auth.OIDC, db); err != nil {
			log.Warn().Err(err).Msg("failed to initialize OIDC provider - OIDC authentication will be disabled")
			env.OIDC = nil
		} else {
			log.Info().Str("provider", env.OIDC.Name()).Msg("OIDC authentication enabled")
		}
	}

	return env, nil
}

func newTemplateEngine(cfg *config.Config) *html.Engine {
	engine := html.NewFileSystem(templateFS(cfg.DevMode), ".gohtml")

	if cfg.DevMode {
		engine.ShouldReload = true

		log.Warn().Msg("dev mode enabled: using local filesystem for templates")
	}

	engine.AddFunc("add", func(a, b int) int { return a + b })
	engine.AddFunc("sub", func(a, b int) int { return a - b })
	engine.AddFunc("date", func(t time.Time) string {
		if t.IsZero() {
			return ""
		}

		return t.Format("Jan 2, 2006 15:04")
	})
	engine.AddFunc("datetime", func(t time.Time) string { return t.UTC().Format(time.RFC3339) })
	engine.AddFunc("fieldError", func(errs handler.FieldErrors, name string) string { return errs[name] })

	return engine
}

// New creates the web service: the fiber app with the request middleware
// chain and every handler.
func New(cfg *config.Config, env *handler.Env) (*Service, error) {
	if cfg == nil || env == nil {
		return nil, handler.ErrNilEnv
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize:    8192,
			AppName:           cfg.Title,
			CaseSensitive:     true,
			Prefork:           false,
			Immutable:         true,
			Views:             newTemplateEngine(cfg),
			PassLocalsToViews: true,
			ErrorHandler:      handler.ErrorHandler,
		},
	)

	service := &Service{cfg: cfg, App: app, Env: env}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(fiberlog.New(fiberlog.Config{Config: cfg.Log}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:   staticFS(),
				Browse: cfg.Webserver.BrowseStatic,
			},
		),
	)

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})
	app.Get(metrics.Path, metrics.Handler())

	resolver := identity.NewResolver(env.Auth, env.Auth, cfg.Webserver.Session.RoleLookupTimeout)

	app.Use(authmw.Middleware(resolver))
	app.Use(flash.Middleware)
	app.Use(gdpr.Middleware(gdpr.Config{Gate: env.Gate, Render: handler.RenderConsent}))

	// the settings registry shares the /admin/users prefix and goes first
	services := []handler.Service{
		&pages.Handler,
		&login.Handler,
		&signup.Handler,
		&logout.Handler,
		&account.Handler,
		&oidchandler.Handler,
		&consent.Handler,
		&document.Handler,
		&profile.Handler,
		&adminsettings.Handler,
		&adminuser.Handler,
	}

	for _, s := range services {
		if err := s.Init(app, env); err != nil {
			return nil, err
		}
	}

	app.Use(pages.NotFound)

	return service, nil
}
