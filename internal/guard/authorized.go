package guard

import "slices"

// DefaultFailurePath is where the Authorized guard sends visitors it rejects.
const DefaultFailurePath = "/"

// AuthorizedInput feeds the Authorized guard.
type AuthorizedInput struct {
	UserID       uint64
	RolesLoading bool
	// UserRoles are the roles the user holds within RequiredGroup.
	UserRoles     []string
	RequiredRoles []string
	RequiredGroup string
	// PathAfterFailure replaces DefaultFailurePath when set.
	PathAfterFailure string
}

// Authorized lets a user through when they hold one of the required roles.
func Authorized(in AuthorizedInput) Decision {
	failure := in.PathAfterFailure
	if failure == "" {
		failure = DefaultFailurePath
	}

	if in.UserID == 0 {
		return redirect(failure)
	}

	if in.RolesLoading {
		return Decision{State: Pending}
	}

	for _, role := range in.UserRoles {
		if slices.Contains(in.RequiredRoles, role) {
			return allow()
		}
	}

	return redirect(failure)
}
