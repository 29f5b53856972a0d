// Package auth authenticates users and manages their role grants.
//
// Three authentication sources are supported:
//   - LocalProvider: email or username with an Argon2id hashed password,
//     plus signup, profile edits and password resets
//   - LDAPProvider: LDAP or Active Directory bind with group lookup
//   - OIDCProvider: OAuth2/OIDC code flow against an external identity provider
//
// Service loads users and their role grants for session resolution
// (identity.UserLoader and identity.RoleLoader) and grants or revokes roles.
// LDAP and OIDC users receive the admin role when one of their directory
// groups is configured as an admin group.
//
// Tokens signs the links sent by mail (email verification, password reset)
// as HS256 JWTs bound to the account state they were issued for.
//
// Example usage:
//
//	authService := auth.NewService(db)
//	resolver := identity.NewResolver(authService, authService, 2*time.Second)
//
//	user, err := auth.NewLocalProvider(db).Authenticate(ctx, "ada@example.com", password)
package auth
