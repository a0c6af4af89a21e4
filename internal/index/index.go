package index

import (
	"log/slog"

	"github.com/starford/zhishi/internal/models"
)

// NoteIndex defines the interface for note indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	UpsertNote(n NoteRow, body string) error
	DeleteNote(id string) error
	GetFingerprint(id string) (string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Categories() ([]models.Category, error)
	Tags() ([]TagCount, error)
	AllFingerprints() (map[string]string, error)
	Sync(notes []models.Note, logger *slog.Logger) (SyncStats, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
