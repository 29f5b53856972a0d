package identity

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/db/models"
)

// DefaultRoleLookupTimeout bounds the role lookup of a request.
const DefaultRoleLookupTimeout = 2 * time.Second

// UserLoader loads a user account.
type UserLoader interface {
	UserByID(ctx context.Context, id uint64) (*models.User, error)
}

// RoleLoader loads the role grants of a user.
type RoleLoader interface {
	RolesForUser(ctx context.Context, userID uint64) ([]RoleGrant, error)
}

// Resolver turns a session cookie's user id into a Session.
type Resolver struct {
	users   UserLoader
	roles   RoleLoader
	timeout time.Duration
}

// NewResolver returns a Resolver. A zero timeout uses DefaultRoleLookupTimeout.
func NewResolver(users UserLoader, roles RoleLoader, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultRoleLookupTimeout
	}

	return &Resolver{users: users, roles: roles, timeout: timeout}
}

// Resolve builds the session for userID. Unknown or inactive users resolve
// to an anonymous session. When the role lookup runs out of time the session
// is returned with Loading set.
func (r *Resolver) Resolve(ctx context.Context, userID uint64, afterLoginPath string) Session {
	sess := Session{AfterLoginPath: afterLoginPath}
	if userID == 0 {
		return sess
	}

	user, err := r.users.UserByID(ctx, userID)
	if err != nil {
		log.Debug().Err(err).Uint64("user_id", userID).Msg("session user not loadable")
		return sess
	}

	if !user.Active {
		return sess
	}

	sess.UserID = user.ID
	sess.Authenticated = true
	sess.User = user

	roleCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	grants, err := r.roles.RolesForUser(roleCtx, user.ID)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		sess.Loading = true
	case err != nil:
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to load roles")
	default:
		sess.Roles = grants
	}

	return sess
}
