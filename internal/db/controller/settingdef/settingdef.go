// Package settingdef provides CRUD operations for the user settings schema.
package settingdef

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/settings"
)

const keyQueryPattern = "setting_key = ?"

var (
	// ErrSettingNotFound is returned when a definition is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrKeyEmpty is returned when the key normalizes to nothing.
	ErrKeyEmpty = errors.New("setting key cannot be empty")
	// ErrLabelEmpty is returned when the label is blank.
	ErrLabelEmpty = errors.New("setting label cannot be empty")
	// ErrKeyAlreadyExists is returned when another definition uses the key.
	ErrKeyAlreadyExists = errors.New("a setting with this key already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Input is the editable part of a definition.
type Input struct {
	Key          string
	Label        string
	Type         string
	DefaultValue string
	IsGDPR       bool
}

// normalize checks in and returns it in stored form.
func (in Input) normalize() (Input, error) {
	in.Key = settings.NormalizeKey(in.Key)
	if in.Key == "" {
		return in, ErrKeyEmpty
	}

	in.Label = strings.TrimSpace(in.Label)
	if in.Label == "" {
		return in, ErrLabelEmpty
	}

	t, err := settings.ParseType(in.Type)
	if err != nil {
		return in, err
	}

	in.Type = string(t)

	if in.DefaultValue, err = settings.DefaultFor(t, in.DefaultValue); err != nil {
		return in, fmt.Errorf("default value: %w", err)
	}

	return in, nil
}

// List returns every definition ordered by label.
func List(db *gorm.DB) ([]models.SettingDefinition, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var defs []models.SettingDefinition
	if err := db.Order("label, id").Find(&defs).Error; err != nil {
		return nil, err
	}

	return defs, nil
}

// GetByID retrieves a definition by its ID.
func GetByID(db *gorm.DB, id uint64) (*models.SettingDefinition, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var def models.SettingDefinition
	if err := db.First(&def, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, err
	}

	return &def, nil
}

// Create adds a definition. The key is normalized first.
func Create(db *gorm.DB, in Input) (*models.SettingDefinition, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	if err = ensureKeyFree(db, in.Key, 0); err != nil {
		return nil, err
	}

	def := &models.SettingDefinition{
		Key:          in.Key,
		Label:        in.Label,
		Type:         in.Type,
		DefaultValue: in.DefaultValue,
		IsGDPR:       in.IsGDPR,
	}

	if err = db.Create(def).Error; err != nil {
		return nil, err
	}

	return def, nil
}

// Update overwrites a definition for all users.
func Update(db *gorm.DB, id uint64, in Input) (*models.SettingDefinition, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	def, err := GetByID(db, id)
	if err != nil {
		return nil, err
	}

	if in, err = in.normalize(); err != nil {
		return nil, err
	}

	if err = ensureKeyFree(db, in.Key, id); err != nil {
		return nil, err
	}

	def.Key = in.Key
	def.Label = in.Label
	def.Type = in.Type
	def.DefaultValue = in.DefaultValue
	def.IsGDPR = in.IsGDPR

	if err = db.Save(def).Error; err != nil {
		return nil, err
	}

	return def, nil
}

// Delete removes a definition. Values users stored for it are kept.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.SettingDefinition{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

func ensureKeyFree(db *gorm.DB, key string, exceptID uint64) error {
	var count int64

	q := db.Model(&models.SettingDefinition{}).Where(keyQueryPattern, key)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	if err := q.Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return ErrKeyAlreadyExists
	}

	return nil
}
