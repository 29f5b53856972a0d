// Package auth provides the session middleware of the web application.
//
// Middleware reads the session cookie, resolves the visitor into an
// identity.Session and stores it on the request, so route guards and
// handlers receive it explicitly instead of consulting global state.
// The current user and the admin flag are also put into fiber.Locals
// for templates.
//
// PathRecorder remembers the protected location a visitor asked for, so
// the Public guard can send them back there after signing in.
//
// Usage:
//
//	app.Use(authmiddleware.Middleware(identity.NewResolver(users, roles, timeout)))
package auth
