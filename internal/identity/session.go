// Package identity resolves who is making a request and carries the result
// through the request context.
package identity

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/docket-app/docket/internal/db/models"
)

const localsKey = "identity.session"

// RoleGrant is one role a user holds within a group. GlobalGroup grants apply everywhere.
type RoleGrant struct {
	Role  string
	Group string
}

// Session describes the requester. The zero value is an anonymous visitor.
type Session struct {
	UserID        uint64
	Authenticated bool
	// Loading is set while role memberships are not known yet.
	Loading bool
	Roles   []RoleGrant
	// AfterLoginPath is the last protected location the visitor asked for.
	AfterLoginPath string
	User           *models.User
}

// RolesIn returns the roles the user holds in group, global grants included.
func (s Session) RolesIn(group string) []string {
	out := make([]string, 0, len(s.Roles))

	for _, g := range s.Roles {
		if g.Group == group || g.Group == models.GlobalGroup {
			if !slices.Contains(out, g.Role) {
				out = append(out, g.Role)
			}
		}
	}

	return out
}

// HasRole reports whether the user holds role in group.
func (s Session) HasRole(role, group string) bool {
	return slices.Contains(s.RolesIn(group), role)
}

// IsAdmin reports whether the user holds the global admin role.
func (s Session) IsAdmin() bool {
	return s.HasRole(models.RoleAdmin, models.GlobalGroup)
}

// Put stores the session on the request.
func Put(c *fiber.Ctx, s Session) {
	c.Locals(localsKey, s)
}

// FromCtx returns the session stored by Put, or an anonymous session.
func FromCtx(c *fiber.Ctx) Session {
	if s, ok := c.Locals(localsKey).(Session); ok {
		return s
	}

	return Session{}
}
