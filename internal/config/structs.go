package config

import (
	"time"

	"github.com/docket-app/docket/internal/auth"
	"github.com/docket-app/docket/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
	// RoleLookupTimeout bounds the role lookup of a request. When it expires
	// the session is treated as still loading.
	RoleLookupTimeout time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	Mail      Mail
	Tokens    Tokens
	Timing    Timing
	Admin     Admin
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic   bool    // enable static file browsing (for development purposes only)
	DisableRecover bool    // disable recover middleware
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown in seconds
	URL            string  // base url used in mails and OIDC redirects
	SecureCookies  bool    // mark cookies secure, forced off in dev mode
	Session        Session // session settings
}

// Auth selects the enabled authentication methods.
type Auth struct {
	Local LocalAuth
	LDAP  auth.LDAPConfig
	OIDC  auth.OIDCConfig
}

// LocalAuth configures password accounts.
type LocalAuth struct {
	Enabled     bool
	AllowSignup bool
}

// Mail configures outgoing mail. When Enabled is false mails are only logged.
type Mail struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLS requires STARTTLS, otherwise it is used opportunistically.
	TLS bool
}

// Tokens configures the signed links sent by mail.
type Tokens struct {
	Secret           string
	VerifyEmailTTL   time.Duration
	PasswordResetTTL time.Duration
}

// Timing holds the debounce and delay intervals of the UI.
type Timing struct {
	SettingsDebounce    time.Duration
	AutosaveDebounce    time.Duration
	SavingClearDelay    time.Duration
	VerifyRedirectDelay time.Duration
}

// Admin is the account seeded on first start.
type Admin struct {
	Username string
	Email    string
	Password string
}
