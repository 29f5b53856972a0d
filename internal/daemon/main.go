// Package daemon wires the database, session storage and web service together.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/docket-app/docket/internal/config"
	"github.com/docket-app/docket/internal/db/dsn"
	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/logger/adapter/stdlogger"
	"github.com/docket-app/docket/internal/web"
	"github.com/docket-app/docket/internal/web/session"
)

// sessionTable holds the server side sessions in MySQL and Postgres.
const sessionTable = "sessions"

// ErrNilConfig is returned when no configuration is passed.
var ErrNilConfig = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start runs the web service until a termination signal arrives.
func (d *Daemon) Start() error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- d.webService.Start(":" + strconv.Itoa(d.cfg.Webserver.Port))
	}()

	d.webService.WaitShutdown()

	select {
	case err := <-errCh:
		return err
	case <-time.After(time.Second):
		return nil
	}
}

// Dialector returns the gorm dialector of the configured engine.
func Dialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return gormmysql.Open(dsn.Create(cfg))
	case config.EnginePostgres:
		return gormpostgres.Open(dsn.Create(cfg))
	default:
		return sqlite.Open(dsn.Create(cfg))
	}
}

// OpenDB connects to the database and logs slow or failing queries through zerolog.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.DevMode {
		level = gormlogger.Info
	}

	db, err := gorm.Open(Dialector(cfg), &gorm.Config{
		Logger: gormlogger.New(stdlogger.New(), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond, //nolint:mnd
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the schema and seeds the system roles and the
// configured admin account.
func Migrate(cfg *config.Config, db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return seed(cfg, db)
}

// sessionStorage returns the shared session storage of the engine. SQLite
// keeps sessions in memory.
func sessionStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.SessionURI(cfg),
			Table:         sessionTable,
		})
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.SessionURI(cfg),
			Table:         sessionTable,
		})
	default:
		return nil
	}
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	if err = Migrate(cfg, db); err != nil {
		return nil, err
	}

	session.Init(sessionStorage(cfg))

	env, err := web.NewEnv(context.Background(), cfg, db)
	if err != nil {
		return nil, err
	}

	svc, err := web.New(cfg, env)
	if err != nil {
		return nil, err
	}

	log.Info().Str("engine", cfg.DB.GormEngine).Int("port", cfg.Webserver.Port).Msg("daemon ready")

	return &Daemon{cfg: cfg, webService: svc}, nil
}
