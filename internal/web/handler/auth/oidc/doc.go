// Package oidc provides the OpenID Connect sign in flow.
//
// The flow includes:
//   - login initiation with CSRF protection via single use state tokens
//   - the authorization callback with ID token verification
//   - user provisioning from the token claims
//   - admin role synchronization from the groups claim
//
// Routes:
//
//	GET /auth/oidc/login    - redirect to the provider
//	GET /auth/oidc/callback - handle the provider callback
package oidc
