// Package export packs a user's documents into a zip archive.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/docket-app/docket/internal/db/controller/document"
	"github.com/docket-app/docket/internal/db/models"
)

// Payload is the export of one user. Zip holds the base64 encoded archive.
type Payload struct {
	Zip string `json:"zip"`
}

// Filename is the download name of the archive of userID.
func Filename(userID uint64) string {
	return fmt.Sprintf("%d.zip", userID)
}

// ForUser exports every document owned by userID.
func ForUser(db *gorm.DB, userID uint64) (Payload, error) {
	docs, err := document.ListByOwner(db, userID)
	if err != nil {
		return Payload{}, err
	}

	raw, err := Archive(docs)
	if err != nil {
		return Payload{}, err
	}

	return Payload{Zip: base64.StdEncoding.EncodeToString(raw)}, nil
}

// Decode returns the archive bytes of p.
func (p Payload) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(p.Zip)
}

// Archive writes one .txt file per document, named after its title.
func Archive(docs []models.Document) ([]byte, error) {
	var (
		buf  bytes.Buffer
		w    = zip.NewWriter(&buf)
		used = make(map[string]struct{}, len(docs))
	)

	for _, d := range docs {
		name := fileName(d)
		if _, dup := used[name]; dup {
			name = strings.TrimSuffix(name, ".txt") + "-" + d.ID + ".txt"
		}

		used[name] = struct{}{}

		f, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: d.UpdatedAt})
		if err != nil {
			return nil, err
		}

		if _, err = f.Write([]byte(d.Body)); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func fileName(d models.Document) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == ' ', r == '.':
			return r
		default:
			return -1
		}
	}, d.Title)

	name = strings.Trim(strings.TrimSpace(name), ".")
	if name == "" {
		name = d.ID
	}

	return name + ".txt"
}
