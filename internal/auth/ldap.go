package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/docket-app/docket/internal/db/models"
)

// ErrLDAPDisabled is returned when LDAP authentication is disabled via configuration.
var ErrLDAPDisabled = errors.New("ldap authentication is disabled")

// LDAPConfig holds LDAP/Active Directory configuration for authentication.
type LDAPConfig struct {
	Enabled bool
	Host    string
	// Port is typically 389 for LDAP and 636 for LDAPS.
	Port int
	// UseSSL dials ldaps://.
	UseSSL bool
	// UseTLS upgrades a plain connection with StartTLS.
	UseTLS bool
	// SkipVerify skips TLS certificate verification (insecure, for testing only).
	SkipVerify   bool
	BindDN       string
	BindPassword string
	BaseDN       string
	// UserFilter finds the user, {username} is replaced, e.g. "(uid={username})".
	UserFilter  string
	GroupBaseDN string
	// GroupFilter finds the user's groups, {userdn} is replaced, e.g. "(member={userdn})".
	GroupFilter   string
	UsernameAttr  string
	EmailAttr     string
	FirstNameAttr string
	LastNameAttr  string
	GroupNameAttr string
	// AdminGroups are group DNs whose members receive the admin role.
	AdminGroups []string
	// Timeout is the connection timeout in seconds.
	Timeout int
}

// LDAPProvider handles LDAP authentication.
type LDAPProvider struct {
	config *LDAPConfig
	db     *gorm.DB
}

// NewLDAPProvider creates a new LDAP provider.
func NewLDAPProvider(config *LDAPConfig, db *gorm.DB) (*LDAPProvider, error) {
	if !config.Enabled {
		return nil, ErrLDAPDisabled
	}

	def := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}

	def(&config.UsernameAttr, "uid")
	def(&config.EmailAttr, "mail")
	def(&config.FirstNameAttr, "givenName")
	def(&config.LastNameAttr, "sn")
	def(&config.GroupNameAttr, "cn")

	if config.Timeout == 0 {
		config.Timeout = 10
	}

	return &LDAPProvider{config: config, db: db}, nil
}

// AdminGroups returns the configured admin group DNs.
func (p *LDAPProvider) AdminGroups() []string {
	return p.config.AdminGroups
}

// Connect establishes a connection to the LDAP server.
func (p *LDAPProvider) Connect() (*ldap.Conn, error) {
	hostPort := net.JoinHostPort(p.config.Host, strconv.Itoa(p.config.Port))

	scheme := "ldap://"
	if p.config.UseSSL {
		scheme = "ldaps://"
	}

	var tlsConfig *tls.Config
	if p.config.UseSSL || p.config.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: p.config.SkipVerify, //nolint:gosec // opt-in for test directories
			ServerName:         p.config.Host,
		}
	}

	conn, err := ldap.DialURL(scheme+hostPort, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	if !p.config.UseSSL && p.config.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			p.close(conn)
			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	conn.SetTimeout(time.Duration(p.config.Timeout) * time.Second)

	return conn, nil
}

func (p *LDAPProvider) close(conn *ldap.Conn) {
	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close LDAP connection")
	}
}

// Authenticate authenticates a user against LDAP and returns the local user and their group DNs.
func (p *LDAPProvider) Authenticate(ctx context.Context, username, password string) (*models.User, []string, error) {
	if password == "" {
		return nil, nil, ErrInvalidPassword
	}

	conn, err := p.Connect()
	if err != nil {
		return nil, nil, err
	}
	defer p.close(conn)

	if err = p.bindService(conn); err != nil {
		return nil, nil, err
	}

	entry, err := p.searchUserEntry(conn, username)
	if err != nil {
		return nil, nil, err
	}

	if err = conn.Bind(entry.DN, password); err != nil {
		return nil, nil, fmt.Errorf("authentication failed: %w", err)
	}

	// group search runs with the service account again
	if err = p.bindService(conn); err != nil {
		return nil, nil, err
	}

	groups, err := p.userGroups(conn, entry.DN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user groups: %w", err)
	}

	user, err := p.upsertUser(ctx, username, entry)
	if err != nil {
		return nil, nil, err
	}

	return user, groups, nil
}

func (p *LDAPProvider) bindService(conn *ldap.Conn) error {
	if p.config.BindDN == "" {
		return nil
	}

	if err := conn.Bind(p.config.BindDN, p.config.BindPassword); err != nil {
		return fmt.Errorf("failed to bind with service account: %w", err)
	}

	return nil
}

func (p *LDAPProvider) searchUserEntry(conn *ldap.Conn, username string) (*ldap.Entry, error) {
	filter := strings.ReplaceAll(p.config.UserFilter, "{username}", ldap.EscapeFilter(username))

	result, err := conn.Search(ldap.NewSearchRequest(
		p.config.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		p.config.Timeout,
		false,
		filter,
		[]string{p.config.UsernameAttr, p.config.EmailAttr, p.config.FirstNameAttr, p.config.LastNameAttr, "dn"},
		nil,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to search for user: %w", err)
	}

	switch len(result.Entries) {
	case 0:
		return nil, ErrUserNotFound
	case 1:
		return result.Entries[0], nil
	default:
		return nil, ErrMultipleUsersFound
	}
}

// upsertUser creates or refreshes the local copy of a directory user.
// Directory entries without a mail attribute get a placeholder address.
func (p *LDAPProvider) upsertUser(ctx context.Context, username string, entry *ldap.Entry) (*models.User, error) {
	email := NormalizeEmail(entry.GetAttributeValue(p.config.EmailAttr))
	if email == "" {
		email = strings.ToLower(username) + "@ldap.invalid"
	}

	var user models.User

	err := p.db.WithContext(ctx).
		Where("external_id = ? AND auth_source = ?", entry.DN, models.AuthSourceLDAP).
		First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Active:        true,
			Username:      username,
			EmailAddress:  email,
			EmailVerified: true,
			AuthSource:    models.AuthSourceLDAP,
			ExternalID:    entry.DN,
		}
	case err != nil:
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user.EmailAddress = email
	user.FirstName = entry.GetAttributeValue(p.config.FirstNameAttr)
	user.LastName = entry.GetAttributeValue(p.config.LastNameAttr)

	if err = p.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	return &user, nil
}

func (p *LDAPProvider) userGroups(conn *ldap.Conn, userDN string) ([]string, error) {
	if p.config.GroupBaseDN == "" {
		return nil, nil
	}

	filter := strings.ReplaceAll(p.config.GroupFilter, "{userdn}", ldap.EscapeFilter(userDN))

	result, err := conn.Search(ldap.NewSearchRequest(
		p.config.GroupBaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		p.config.Timeout,
		false,
		filter,
		[]string{p.config.GroupNameAttr, "dn"},
		nil,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to search for groups: %w", err)
	}

	groups := make([]string, len(result.Entries))
	for i, entry := range result.Entries {
		groups[i] = entry.DN
	}

	return groups, nil
}

// TestConnection connects and binds with the service account.
func (p *LDAPProvider) TestConnection() error {
	conn, err := p.Connect()
	if err != nil {
		return err
	}
	defer p.close(conn)

	return p.bindService(conn)
}
