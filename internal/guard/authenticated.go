package guard

// LoginPath is where anonymous visitors of protected pages are sent.
const LoginPath = "/login"

// AuthenticatedInput feeds the Authenticated guard.
type AuthenticatedInput struct {
	Authenticated bool
}

// Authenticated lets signed in visitors through and sends everyone else to login.
// Recording the requested path is the caller's job and happens first.
func Authenticated(in AuthenticatedInput) Decision {
	if in.Authenticated {
		return allow()
	}

	return redirect(LoginPath)
}
