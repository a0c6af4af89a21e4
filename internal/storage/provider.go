// Package storage persists the note list and settings as opaque JSON blobs.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/zhishi/internal/models"
)

// Blob keys. They match the keys used by the browser build so that data
// can be copied between the two.
const (
	NotesKey    = "zhishi_notes_v1"
	SettingsKey = "zhishi_settings_v1"
)

// ErrNoBlob is returned by a BlobStore when a key has never been written.
var ErrNoBlob = errors.New("storage: no blob")

// Gateway loads and saves the whole note list and the settings.
type Gateway interface {
	Load(ctx context.Context) ([]models.Note, models.Settings, error)
	SaveNotes(ctx context.Context, notes []models.Note) error
	SaveSettings(ctx context.Context, s models.Settings) error
	Close() error
}

// BlobStore is a key/value store of opaque bytes.
type BlobStore interface {
	// Get returns ErrNoBlob when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Close() error
}

// Blobs implements Gateway on top of a BlobStore. Unreadable blobs are
// logged and treated as empty so the app can still start.
type Blobs struct {
	store BlobStore
	log   *slog.Logger
}

// NewBlobs wraps store.
func NewBlobs(store BlobStore, log *slog.Logger) *Blobs {
	if log == nil {
		log = slog.Default()
	}
	return &Blobs{store: store, log: log}
}

// Load returns the stored notes and settings. Missing settings come back as
// defaults; missing or corrupt notes as an empty list.
func (b *Blobs) Load(ctx context.Context) ([]models.Note, models.Settings, error) {
	notes := []models.Note{}
	settings := models.DefaultSettings()

	data, err := b.store.Get(ctx, NotesKey)
	switch {
	case errors.Is(err, ErrNoBlob):
	case err != nil:
		return nil, settings, fmt.Errorf("storage: load notes: %w", err)
	default:
		var decoded []models.Note
		if err := json.Unmarshal(data, &decoded); err != nil {
			b.log.Warn("discarding unreadable notes blob", slog.String("error", err.Error()))
		} else if decoded != nil {
			notes = decoded
		}
	}

	data, err = b.store.Get(ctx, SettingsKey)
	switch {
	case errors.Is(err, ErrNoBlob):
	case err != nil:
		return nil, settings, fmt.Errorf("storage: load settings: %w", err)
	default:
		var decoded models.Settings
		if err := json.Unmarshal(data, &decoded); err != nil {
			b.log.Warn("discarding unreadable settings blob", slog.String("error", err.Error()))
		} else {
			settings = decoded.WithDefaults()
		}
	}
	return notes, settings, nil
}

// SaveNotes replaces the stored note list.
func (b *Blobs) SaveNotes(ctx context.Context, notes []models.Note) error {
	if notes == nil {
		notes = []models.Note{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("storage: encode notes: %w", err)
	}
	if err := b.store.Put(ctx, NotesKey, data); err != nil {
		return fmt.Errorf("storage: save notes: %w", err)
	}
	return nil
}

// SaveSettings replaces the stored settings.
func (b *Blobs) SaveSettings(ctx context.Context, s models.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("storage: encode settings: %w", err)
	}
	if err := b.store.Put(ctx, SettingsKey, data); err != nil {
		return fmt.Errorf("storage: save settings: %w", err)
	}
	return nil
}

// Close closes the underlying store.
func (b *Blobs) Close() error {
	return b.store.Close()
}

var _ Gateway = (*Blobs)(nil)
