package noteservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/zhishi/internal/backup"
	"github.com/starford/zhishi/internal/models"
)

// ExportBackup returns a zhishi-v1 document of every note, unsaved edits of
// the active note included, and its suggested file name.
func (s *Service) ExportBackup() (name string, data []byte, err error) {
	s.mu.Lock()
	notes := s.viewLocked()
	settings := s.settings
	now := s.clock.Now()
	s.mu.Unlock()

	models.SortByUpdated(notes)
	data, err = backup.Encode(backup.New(notes, settings, now))
	if err != nil {
		return "", nil, err
	}
	return backup.FileName(now), data, nil
}

// ImportBackup replaces every note and the settings with the content of a
// backup document. An invalid document changes nothing. The first note of
// the imported list is opened.
func (s *Service) ImportBackup(ctx context.Context, data []byte) (int, error) {
	doc, err := backup.Decode(data)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimersLocked()
	s.active = nil
	s.dirty = false
	clear(s.selections)

	s.notes = doc.Notes
	s.settings = doc.Settings
	if len(s.notes) > 0 {
		s.activateLocked(s.notes[0])
	} else {
		s.deactivateLocked()
	}

	errNotes := s.commitLocked(ctx)
	errSettings := s.persistSettingsLocked(ctx)
	s.log.Info("backup imported", slog.Int("notes", len(s.notes)))
	s.notify.Publish(EventDataImported, map[string]int{"notes": len(s.notes)})
	return len(s.notes), errors.Join(errNotes, errSettings)
}
