// Package document stores documents and their comments.
package document

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/uniuri"
)

// DefaultTitle is the title of a freshly created document.
const DefaultTitle = "Untitled Document"

var (
	// ErrDocumentNotFound is returned when no document has the given id.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrCommentEmpty is returned for a comment without text.
	ErrCommentEmpty = errors.New("comment is empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Order sorts comments by creation time.
type Order string

const (
	// NewestFirst lists the latest comment first.
	NewestFirst Order = "newestFirst"
	// OldestFirst lists the earliest comment first.
	OldestFirst Order = "oldestFirst"
)

// ParseOrder returns the order named by s, NewestFirst when s is unknown.
func ParseOrder(s string) Order {
	if Order(s) == OldestFirst {
		return OldestFirst
	}

	return NewestFirst
}

// Patch is a partial update. Nil fields are left alone.
type Patch struct {
	Title    *string
	Body     *string
	IsPublic *bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Body == nil && p.IsPublic == nil
}

// Create inserts an empty private document owned by ownerID.
func Create(db *gorm.DB, ownerID uint64) (*models.Document, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	doc := &models.Document{
		ID:      uniuri.New(),
		OwnerID: ownerID,
		Title:   DefaultTitle,
	}

	if err := db.Create(doc).Error; err != nil {
		return nil, err
	}

	return doc, nil
}

// GetByID returns a document.
func GetByID(db *gorm.DB, id string) (*models.Document, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if !uniuri.Valid(id) {
		return nil, ErrDocumentNotFound
	}

	var doc models.Document

	err := db.First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}

	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// ListByOwner returns the documents of ownerID, most recently changed first.
func ListByOwner(db *gorm.DB, ownerID uint64) ([]models.Document, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var docs []models.Document
	if err := db.Where("owner_id = ?", ownerID).Order("updated_at DESC, id").Find(&docs).Error; err != nil {
		return nil, err
	}

	return docs, nil
}

// Update applies p to the document and returns the stored result.
func Update(db *gorm.DB, id string, p Patch) (*models.Document, error) {
	doc, err := GetByID(db, id)
	if err != nil {
		return nil, err
	}

	if p.Empty() {
		return doc, nil
	}

	changes := make(map[string]any, 3)
	if p.Title != nil {
		changes["title"] = *p.Title
	}

	if p.Body != nil {
		changes["body"] = *p.Body
	}

	if p.IsPublic != nil {
		changes["is_public"] = *p.IsPublic
	}

	if err = db.Model(doc).Updates(changes).Error; err != nil {
		return nil, err
	}

	return GetByID(db, id)
}

// Delete removes a document and its comments.
func Delete(db *gorm.DB, id string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&models.Document{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return ErrDocumentNotFound
		}

		return nil
	})
}

// DeleteForOwner removes every document of ownerID with its comments.
func DeleteForOwner(tx *gorm.DB, ownerID uint64) error {
	if tx == nil {
		return ErrDBNil
	}

	owned := tx.Model(&models.Document{}).Select("id").Where("owner_id = ?", ownerID)
	if err := tx.Where("document_id IN (?)", owned).Delete(&models.Comment{}).Error; err != nil {
		return err
	}

	return tx.Where("owner_id = ?", ownerID).Delete(&models.Document{}).Error
}

// AddComment stores a comment by userID on a document.
func AddComment(db *gorm.DB, documentID string, userID uint64, body string) (*models.Comment, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrCommentEmpty
	}

	if _, err := GetByID(db, documentID); err != nil {
		return nil, err
	}

	c := &models.Comment{DocumentID: documentID, UserID: userID, Body: body}
	if err := db.Create(c).Error; err != nil {
		return nil, err
	}

	return c, nil
}

// Comments returns the comments of a document with their authors.
func Comments(db *gorm.DB, documentID string, order Order) ([]models.Comment, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	dir := "created_at DESC"
	if order == OldestFirst {
		dir = "created_at ASC"
	}

	var out []models.Comment
	if err := db.Preload("User").Where("document_id = ?", documentID).Order(dir).Find(&out).Error; err != nil {
		return nil, err
	}

	return out, nil
}
