// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/docket-app/docket/internal/config"
)

// Create builds the gorm Data Source Name of the configured engine.
func Create(cfg *config.Config) string {
	db := cfg.DB

	switch db.GormEngine {
	case config.EnginePostgres:
		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			db.Host,
			db.Port,
			db.User,
			db.Password,
			db.Name,
		)
		if db.Extras != "" {
			out += " " + db.Extras
		}

		return out
	case config.EngineMySQL:
		return mysql(db)
	default:
		return db.Name
	}
}

// SessionURI builds the connection string used by the session storage. MySQL
// shares the gorm format, Postgres needs a URL. SQLite has no session table.
func SessionURI(cfg *config.Config) string {
	db := cfg.DB

	switch db.GormEngine {
	case config.EnginePostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(db.User, db.Password),
			Host:     net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
			Path:     "/" + db.Name,
			RawQuery: db.Extras,
		}

		return u.String()
	case config.EngineMySQL:
		return mysql(db)
	default:
		return ""
	}
}

func mysql(db config.DB) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.Extras,
	)
}
