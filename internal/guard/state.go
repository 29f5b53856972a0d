// Package guard decides whether a route may render for a session.
//
// Guards are pure functions from their inputs to a Decision. The fiber
// middleware in this package feeds them the Session resolved for the request
// and turns the Decision into a response.
package guard

import "strings"

// State is the outcome of a guard.
type State int

const (
	// Pending renders nothing while inputs are still loading.
	Pending State = iota
	// Allow renders the protected route.
	Allow
	// DenyRedirect sends the visitor elsewhere.
	DenyRedirect
	// DenyBlank renders nothing and stays put.
	DenyBlank
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Allow:
		return "ALLOW"
	case DenyRedirect:
		return "DENY-REDIRECT"
	case DenyBlank:
		return "DENY-BLANK"
	default:
		return "UNKNOWN"
	}
}

// Decision is a guard outcome with the redirect target for DenyRedirect.
type Decision struct {
	State    State
	Location string
}

func allow() Decision { return Decision{State: Allow} }

func redirect(location string) Decision {
	return Decision{State: DenyRedirect, Location: location}
}

// At converts a redirect back to currentPath into DenyBlank, so a guard can
// never send a visitor in a loop.
func (d Decision) At(currentPath string) Decision {
	if d.State != DenyRedirect {
		return d
	}

	target, _, _ := strings.Cut(d.Location, "?")
	if target == currentPath {
		return Decision{State: DenyBlank}
	}

	return d
}

// Mount is a single guard instance. It starts Pending and, once it allowed,
// keeps allowing even if later inputs would deny.
type Mount struct {
	decision Decision
}

// NewMount returns a Pending mount.
func NewMount() *Mount {
	return &Mount{decision: Decision{State: Pending}}
}

// Step feeds a fresh decision into the mount and returns the effective one.
func (m *Mount) Step(d Decision) Decision {
	if m.decision.State == Allow {
		return m.decision
	}

	m.decision = d

	return d
}

// Decision returns the current decision.
func (m *Mount) Decision() Decision {
	return m.decision
}
