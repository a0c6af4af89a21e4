package index

import (
	"log/slog"
	"strconv"

	"github.com/starford/zhishi/internal/history"
	"github.com/starford/zhishi/internal/models"
)

// SyncStats reports what a Sync pass changed.
type SyncStats struct {
	Indexed int
	Removed int
}

// Fingerprint identifies one indexed state of a note.
func Fingerprint(n *models.Note) string {
	return strconv.FormatUint(history.Key(n), 16) + "-" + strconv.FormatInt(n.UpdatedAt, 36)
}

// Sync brings the index up to date with notes:
//   - new/changed notes are upserted
//   - notes no longer present are deleted from the index
func (db *DB) Sync(notes []models.Note, logger *slog.Logger) (SyncStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats SyncStats
	fingerprints, err := db.AllFingerprints()
	if err != nil {
		return stats, err
	}

	live := make(map[string]struct{}, len(notes))
	for i := range notes {
		n := &notes[i]
		live[n.ID] = struct{}{}

		fp := Fingerprint(n)
		if fingerprints[n.ID] == fp {
			continue
		}
		row := NoteRow{
			ID:          n.ID,
			Title:       n.Title,
			Category:    n.Category,
			Fingerprint: fp,
			Tags:        n.Tags,
			UpdatedAt:   n.UpdatedAt,
		}
		if err := db.UpsertNote(row, n.Content); err != nil {
			logger.Warn("sync: index failed", slog.String("note_id", n.ID), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
	}

	for id := range fingerprints {
		if _, ok := live[id]; ok {
			continue
		}
		if err := db.DeleteNote(id); err != nil {
			logger.Warn("sync: delete failed", slog.String("note_id", id), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
	}

	if stats.Indexed > 0 || stats.Removed > 0 {
		logger.Debug("sync: index updated", slog.Int("indexed", stats.Indexed), slog.Int("removed", stats.Removed))
	}
	return stats, nil
}
