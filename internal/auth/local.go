package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/docket-app/docket/internal/db/models"
)

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db *gorm.DB
}

const (
	whereIDAndAuthSource = "id = ? AND auth_source = ?"

	whereID = "id = ?"
)

// SignupInput is the data of a new password account.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// ProfileInput is an edit of a user's profile. A non-empty NewPassword
// requires CurrentPassword to match unless SkipPasswordCheck is set.
type ProfileInput struct {
	FirstName         string
	LastName          string
	Email             string
	CurrentPassword   string
	NewPassword       string
	SkipPasswordCheck bool
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// NormalizeEmail lower cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate checks a password against the account named by login, which
// may be a username or an email address.
func (p *LocalProvider) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	var user models.User

	login = strings.TrimSpace(login)

	err := p.db.WithContext(ctx).
		Where("(username = ? OR email = ?) AND auth_source = ?", login, NormalizeEmail(login), models.AuthSourceLocal).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	return &user, nil
}

// Signup creates an active password account holding the user role.
// The email address doubles as the username.
func (p *LocalProvider) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)

	user := models.User{
		Active:       true,
		Username:     email,
		EmailAddress: email,
		Password:     models.HashPassword(in.Password),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		AuthSource:   models.AuthSourceLocal,
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).
			Where("username = ? OR email = ?", email, email).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}

		if count > 0 {
			return ErrUserNameOrEmailExists
		}

		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		return addUserToRoles(tx, user.ID, []string{models.RoleUser}, models.GlobalGroup)
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// UpdateProfile applies in to the user. It reports whether the email address
// changed, in which case the address is no longer verified.
func (p *LocalProvider) UpdateProfile(ctx context.Context, userID uint64, in ProfileInput) (bool, error) {
	var emailChanged bool

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("user not found: %w", err)
		}

		email := NormalizeEmail(in.Email)
		updates := map[string]any{
			"first_name": strings.TrimSpace(in.FirstName),
			"last_name":  strings.TrimSpace(in.LastName),
		}

		if email != "" && email != user.EmailAddress {
			var count int64
			if err := tx.Model(&models.User{}).
				Where("email = ? AND id <> ?", email, userID).
				Count(&count).Error; err != nil {
				return err
			}

			if count > 0 {
				return ErrUserNameOrEmailExists
			}

			updates["email"] = email
			updates["email_verified"] = false
			emailChanged = true

			if user.UsesPassword() && user.Username == user.EmailAddress {
				updates["username"] = email
			}
		}

		if in.NewPassword != "" {
			if !user.UsesPassword() {
				return ErrNoPasswordAccount
			}

			if !in.SkipPasswordCheck && !user.VerifyPassword(in.CurrentPassword) {
				return ErrInvalidOldPassword
			}

			updates["password"] = models.HashPassword(in.NewPassword)
		}

		return tx.Model(&user).Updates(updates).Error
	})

	return emailChanged, err
}

// SetPassword replaces the password of a local account.
func (p *LocalProvider) SetPassword(ctx context.Context, userID uint64, newPassword string) error {
	res := p.db.WithContext(ctx).Model(&models.User{}).
		Where(whereIDAndAuthSource, userID, models.AuthSourceLocal).
		Update("password", models.HashPassword(newPassword))
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// MarkEmailVerified flags the address of a user as verified.
func (p *LocalProvider) MarkEmailVerified(ctx context.Context, userID uint64) error {
	return p.db.WithContext(ctx).Model(&models.User{}).
		Where(whereID, userID).
		Update("email_verified", true).Error
}

// UserByEmail finds an active local account by email address.
func (p *LocalProvider) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	err := p.db.WithContext(ctx).
		Where("email = ? AND auth_source = ? AND active = ?", NormalizeEmail(email), models.AuthSourceLocal, true).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	return &user, nil
}
