// Package user lists and removes user accounts.
package user

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/docket-app/docket/internal/db/controller/document"
	"github.com/docket-app/docket/internal/db/controller/usersetting"
	"github.com/docket-app/docket/internal/db/models"
)

// PageSize is the number of users on one page of the admin list.
const PageSize = 10

var (
	// ErrUserNotFound is returned when no user has the given id.
	ErrUserNotFound = errors.New("user not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Page is one page of a user search.
type Page struct {
	Users      []models.User
	Total      int64
	Page       int
	TotalPages int
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// Search returns the page-th page of users whose name, username or email
// contains query. Pages start at 1; out of range pages are clamped.
func Search(db *gorm.DB, query string, page int) (Page, error) {
	if db == nil {
		return Page{}, ErrDBNil
	}

	filter := func(tx *gorm.DB) *gorm.DB { return tx }

	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		filter = func(tx *gorm.DB) *gorm.DB {
			return tx.Where(
				"LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
				like, like, like, like,
			)
		}
	}

	var total int64
	if err := db.Model(&models.User{}).Scopes(filter).Count(&total).Error; err != nil {
		return Page{}, err
	}

	totalPages := max(int((total+PageSize-1)/PageSize), 1)
	page = min(max(page, 1), totalPages)

	var users []models.User
	if err := db.Scopes(filter).Preload("Roles.Role").Order("id ASC").Limit(PageSize).Offset((page - 1) * PageSize).Find(&users).Error; err != nil {
		return Page{}, err
	}

	return Page{Users: users, Total: total, Page: page, TotalPages: totalPages}, nil
}

// GetByID returns a user with their role grants.
func GetByID(db *gorm.DB, id uint64) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var u models.User

	err := db.Preload("Roles.Role").First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	return &u, nil
}

// IsAdmin reports whether u holds the global admin role. u must be loaded by GetByID.
func IsAdmin(u *models.User) bool {
	for _, g := range u.Roles {
		if g.Role.Name == models.RoleAdmin && g.Group == models.GlobalGroup {
			return true
		}
	}

	return false
}

// Delete removes a user together with their documents, comments, setting
// values and role grants.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := document.DeleteForOwner(tx, id); err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := usersetting.DeleteForUser(tx, id); err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}
