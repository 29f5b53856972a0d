package guard

// DefaultAfterLoginPath is where signed in visitors of public pages go when
// no other location was recorded.
const DefaultAfterLoginPath = "/documents"

// PublicInput feeds the Public guard.
type PublicInput struct {
	Authenticated  bool
	AfterLoginPath string
	// Fallback replaces DefaultAfterLoginPath when set.
	Fallback string
}

// Public lets anonymous visitors through and redirects signed in ones to the
// recorded after login path.
func Public(in PublicInput) Decision {
	if !in.Authenticated {
		return allow()
	}

	if in.AfterLoginPath != "" {
		return redirect(in.AfterLoginPath)
	}

	if in.Fallback != "" {
		return redirect(in.Fallback)
	}

	return redirect(DefaultAfterLoginPath)
}
