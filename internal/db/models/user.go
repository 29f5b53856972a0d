package models

import (
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// AuthSource represents the authentication source for a user account.
// It indicates how the user authenticates (local database, LDAP, or OIDC).
type AuthSource string

const (
	// AuthSourceLocal indicates the user authenticates with a local database password.
	AuthSourceLocal AuthSource = "local"
	// AuthSourceOIDC indicates the user authenticates via OpenID Connect (OIDC).
	AuthSourceOIDC AuthSource = "oidc"
	// AuthSourceLDAP indicates the user authenticates via LDAP or Active Directory.
	AuthSourceLDAP AuthSource = "ldap"
)

// User represents an account that can own documents and carry settings.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the user account is active and can log in.
	Active bool
	// Username is the unique login name. Signup uses the email address.
	Username string `gorm:"uniqueIndex;size:255;not null"`
	// EmailAddress is the user's email address.
	EmailAddress string `gorm:"column:email;uniqueIndex;size:255;not null"`
	// EmailVerified is set once the verification link was followed.
	EmailVerified bool
	// Password is the Argon2id hashed password (only used for local authentication).
	Password string `gorm:"size:255" json:"-"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100"`
	// AuthSource indicates how this user authenticates (local, oidc, or ldap).
	AuthSource AuthSource `gorm:"type:varchar(20);not null;default:'local'"`
	// OAuthProvider names the external identity provider for OIDC users.
	OAuthProvider string `gorm:"column:oauth_provider;size:50"`
	// ExternalID is the external identifier for OIDC (sub claim) or LDAP (DN) users.
	ExternalID string `gorm:"size:255"`
	// Roles are the role grants of this user.
	Roles []UserRole `gorm:"foreignKey:UserID"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UsesPassword reports whether the account signs in with a local password.
func (u *User) UsesPassword() bool {
	return u.AuthSource == AuthSourceLocal
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
func (u *User) VerifyPassword(password string) bool {
	if u.Password == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
