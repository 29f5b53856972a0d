package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/docket-app/docket/internal/db/models"
)

// ErrOIDCDisabled is returned when OIDC is disabled via configuration.
var ErrOIDCDisabled = errors.New("oidc authentication is disabled")

// OIDCConfig holds OpenID Connect (OIDC) configuration for authentication.
type OIDCConfig struct {
	Enabled bool
	// Name is shown on the login button and stored as the user's OAuth provider.
	Name string
	// ProviderURL is the issuer URL used for discovery (e.g., "https://accounts.google.com").
	ProviderURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Scopes default to openid, profile and email.
	Scopes []string
	// GroupsClaim is the ID token claim holding the user's groups.
	GroupsClaim string
	// AdminGroups are groups whose members receive the admin role.
	AdminGroups []string
}

// OIDCIdentity is the result of a successful callback.
type OIDCIdentity struct {
	User    *models.User
	Groups  []string
	IDToken string
}

// OIDCProvider handles OIDC authentication.
type OIDCProvider struct {
	config   *OIDCConfig
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
	db       *gorm.DB
}

// NewOIDCProvider discovers the provider and creates a new OIDC provider.
func NewOIDCProvider(ctx context.Context, config *OIDCConfig, db *gorm.DB) (*OIDCProvider, error) {
	if !config.Enabled {
		return nil, ErrOIDCDisabled
	}

	provider, err := oidc.NewProvider(ctx, config.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	if config.Name == "" {
		config.Name = "OpenID Connect"
	}

	if config.GroupsClaim == "" {
		config.GroupsClaim = "groups"
	}

	return &OIDCProvider{
		config:   config,
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: config.ClientID}),
		oauth2: oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		db: db,
	}, nil
}

// Name returns the display name of the provider.
func (p *OIDCProvider) Name() string {
	return p.config.Name
}

// AdminGroups returns the configured admin groups.
func (p *OIDCProvider) AdminGroups() []string {
	return p.config.AdminGroups
}

// GenerateStateToken generates a random state token for CSRF protection.
func GenerateStateToken() (string, error) {
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

// AuthURL returns the authorization URL for state.
func (p *OIDCProvider) AuthURL(state string) string {
	return p.oauth2.AuthCodeURL(state)
}

// HandleCallback exchanges code, verifies the ID token and upserts the user.
func (p *OIDCProvider) HandleCallback(ctx context.Context, code string) (*OIDCIdentity, error) {
	token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
	}

	if err = idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	user, err := p.upsertUser(ctx, claims.Sub, NormalizeEmail(claims.Email), claims.EmailVerified, claims.GivenName, claims.FamilyName)
	if err != nil {
		return nil, err
	}

	return &OIDCIdentity{
		User:    user,
		Groups:  p.groupsFromToken(idToken),
		IDToken: rawIDToken,
	}, nil
}

func (p *OIDCProvider) upsertUser(ctx context.Context, sub, email string, verified bool, first, last string) (*models.User, error) {
	var user models.User

	err := p.db.WithContext(ctx).
		Where("external_id = ? AND auth_source = ?", sub, models.AuthSourceOIDC).
		First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Active:     true,
			Username:   email,
			AuthSource: models.AuthSourceOIDC,
			ExternalID: sub,
		}
	case err != nil:
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user.EmailAddress = email
	user.EmailVerified = verified
	user.FirstName = first
	user.LastName = last
	user.OAuthProvider = p.config.Name

	if err = p.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	return &user, nil
}

// groupsFromToken reads the configured groups claim, accepting a list or a single string.
func (p *OIDCProvider) groupsFromToken(idToken *oidc.IDToken) []string {
	var all map[string]any
	if err := idToken.Claims(&all); err != nil {
		return nil
	}

	switch v := all[p.config.GroupsClaim].(type) {
	case string:
		return []string{v}
	case []any:
		groups := make([]string, 0, len(v))
		for _, g := range v {
			if s, ok := g.(string); ok {
				groups = append(groups, s)
			}
		}

		return groups
	default:
		return nil
	}
}

// LogoutURL returns the provider's end session URL, or "" when the provider has none.
func (p *OIDCProvider) LogoutURL(idToken, postLogoutRedirectURI string) string {
	var claims struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}

	if err := p.provider.Claims(&claims); err != nil || claims.EndSessionEndpoint == "" {
		return ""
	}

	q := url.Values{}
	q.Set("id_token_hint", idToken)
	q.Set("post_logout_redirect_uri", postLogoutRedirectURI)

	return claims.EndSessionEndpoint + "?" + q.Encode()
}
