// Package usersetting loads and stores the settings of a user.
package usersetting

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/settings"
)

// ErrDBNil is returned when the database connection is nil.
var ErrDBNil = errors.New("database connection is nil")

// Store implements the settings store of panels and the consent gate.
type Store struct {
	db *gorm.DB
}

// NewStore returns a Store on db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Load implements the panel store.
func (s *Store) Load(ctx context.Context, userID uint64) ([]settings.Setting, error) {
	return LoadForUser(s.db.WithContext(ctx), userID)
}

// Save implements the panel store.
func (s *Store) Save(ctx context.Context, userID uint64, list []settings.Setting) error {
	return SaveForUser(s.db.WithContext(ctx), userID, list)
}

// LoadForUser returns every defined setting with the user's value, or the
// definition default where the user has none.
func LoadForUser(db *gorm.DB, userID uint64) ([]settings.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var defs []models.SettingDefinition
	if err := db.Order("label, id").Find(&defs).Error; err != nil {
		return nil, err
	}

	var values []models.UserSetting
	if err := db.Where("user_id = ?", userID).Find(&values).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint64]models.UserSetting, len(values))
	for _, v := range values {
		byID[v.SettingID] = v
	}

	out := make([]settings.Setting, 0, len(defs))

	for _, d := range defs {
		s := settings.Setting{
			ID:     d.ID,
			Key:    d.Key,
			Label:  d.Label,
			Type:   settings.Type(d.Type),
			Value:  d.DefaultValue,
			IsGDPR: d.IsGDPR,
		}

		if v, ok := byID[d.ID]; ok {
			s.Value = v.Value
			s.LastUpdatedByUser = v.LastUpdatedByUser
		}

		out = append(out, s)
	}

	return out, nil
}

// SaveForUser stores the full list of a user's settings in one transaction.
func SaveForUser(db *gorm.DB, userID uint64, list []settings.Setting) error {
	if db == nil {
		return ErrDBNil
	}

	if len(list) == 0 {
		return nil
	}

	rows := make([]models.UserSetting, 0, len(list))
	for _, s := range list {
		rows = append(rows, models.UserSetting{
			UserID:            userID,
			SettingID:         s.ID,
			Value:             s.Value,
			LastUpdatedByUser: s.LastUpdatedByUser,
		})
	}

	return db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "setting_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "last_updated_by_user", "updated_at"}),
		}).Create(&rows).Error
	})
}

// DeleteForUser removes every stored value of a user.
func DeleteForUser(db *gorm.DB, userID uint64) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("user_id = ?", userID).Delete(&models.UserSetting{}).Error
}
