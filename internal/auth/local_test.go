package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-app/docket/internal/db/dbtest"
	"github.com/docket-app/docket/internal/db/models"
)

func TestSignupAndAuthenticate(t *testing.T) {
	db := dbtest.Open(t)
	p := NewLocalProvider(db)
	ctx := context.Background()

	user, err := p.Signup(ctx, SignupInput{
		FirstName: " Ada ",
		LastName:  "Lovelace",
		Email:     "Ada@Example.com",
		Password:  "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.EmailAddress)
	assert.Equal(t, "ada@example.com", user.Username)
	assert.Equal(t, "Ada", user.FirstName)
	assert.False(t, user.EmailVerified)

	ok, err := NewService(db).UserIsInRoles(ctx, user.ID, []string{models.RoleUser}, "")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = p.Signup(ctx, SignupInput{Email: "ada@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrUserNameOrEmailExists)

	got, err := p.Authenticate(ctx, "ADA@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = p.Authenticate(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = p.Authenticate(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("active", false).Error)
	_, err = p.Authenticate(ctx, "ada@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUserAccountDisabled)
}

func TestUpdateProfile(t *testing.T) {
	db := dbtest.Open(t)
	p := NewLocalProvider(db)
	ctx := context.Background()

	user := dbtest.User(t, db, "ada")
	require.NoError(t, p.MarkEmailVerified(ctx, user.ID))
	dbtest.User(t, db, "grace")

	changed, err := p.UpdateProfile(ctx, user.ID, ProfileInput{FirstName: "Ada", LastName: "L", Email: user.EmailAddress})
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = p.UpdateProfile(ctx, user.ID, ProfileInput{Email: "grace@example.com"})
	assert.ErrorIs(t, err, ErrUserNameOrEmailExists)

	_, err = p.UpdateProfile(ctx, user.ID, ProfileInput{Email: user.EmailAddress, NewPassword: "newpass", CurrentPassword: "bad"})
	assert.ErrorIs(t, err, ErrInvalidOldPassword)

	changed, err = p.UpdateProfile(ctx, user.ID, ProfileInput{
		FirstName:       "Ada",
		Email:           "countess@example.com",
		CurrentPassword: "secret123",
		NewPassword:     "newpass",
	})
	require.NoError(t, err)
	assert.True(t, changed)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, "countess@example.com", reloaded.EmailAddress)
	assert.False(t, reloaded.EmailVerified)
	assert.True(t, reloaded.VerifyPassword("newpass"))
}

func TestSetPasswordAndLookup(t *testing.T) {
	db := dbtest.Open(t)
	p := NewLocalProvider(db)
	ctx := context.Background()

	user := dbtest.User(t, db, "ada")

	found, err := p.UserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = p.UserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, p.SetPassword(ctx, user.ID, "another1"))
	_, err = p.Authenticate(ctx, "ada", "another1")
	require.NoError(t, err)

	assert.ErrorIs(t, p.SetPassword(ctx, 999, "x"), ErrUserNotFound)
}
