// Package backup reads and writes the zhishi-v1 backup document.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/zhishi/internal/apperr"
	"github.com/starford/zhishi/internal/models"
)

// Version identifies the document format.
const Version = "zhishi-v1"

// Document is a full export of notes and settings.
type Document struct {
	Version    string          `json:"version"`
	ExportedAt string          `json:"exportedAt"`
	Notes      []models.Note   `json:"notes"`
	Settings   models.Settings `json:"settings"`
}

// New builds a document stamped with t.
func New(notes []models.Note, settings models.Settings, t time.Time) Document {
	if notes == nil {
		notes = []models.Note{}
	}
	return Document{
		Version:    Version,
		ExportedAt: t.UTC().Format("2006-01-02T15:04:05.000Z"),
		Notes:      notes,
		Settings:   settings,
	}
}

// FileName returns the suggested download name for a backup taken at t.
func FileName(t time.Time) string {
	return "zhishi-backup-" + t.Format("2006-01-02") + ".json"
}

// Encode renders d as indented JSON.
func Encode(d Document) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("backup: encode: %w", err)
	}
	return data, nil
}

// Decode parses and validates a backup. notes must be a JSON array and
// settings a JSON object; anything else fails with ErrImportValidation and
// nothing is returned.
func Decode(data []byte) (Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("backup: not a JSON object: %w", apperr.ErrImportValidation)
	}
	if !isJSON(raw["notes"], '[') {
		return Document{}, fmt.Errorf("backup: notes must be an array: %w", apperr.ErrImportValidation)
	}
	if !isJSON(raw["settings"], '{') {
		return Document{}, fmt.Errorf("backup: settings must be an object: %w", apperr.ErrImportValidation)
	}

	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("backup: %v: %w", err, apperr.ErrImportValidation)
	}
	if err := d.Validate(); err != nil {
		return Document{}, fmt.Errorf("backup: %v: %w", err, apperr.ErrImportValidation)
	}
	d.Settings = d.Settings.WithDefaults()
	for i := range d.Notes {
		if d.Notes[i].Tags == nil {
			d.Notes[i].Tags = []string{}
		}
	}
	return d, nil
}

// Validate checks that every note carries a unique id.
func (d Document) Validate() error {
	if err := validation.ValidateStruct(&d,
		validation.Field(&d.Notes, validation.NotNil),
	); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(d.Notes))
	for i, n := range d.Notes {
		if err := validation.Validate(n.ID, validation.Required); err != nil {
			return fmt.Errorf("notes[%d].id: %w", i, err)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("notes[%d].id: duplicate %q", i, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}

func isJSON(raw json.RawMessage, open byte) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == open
}
