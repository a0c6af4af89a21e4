package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/zhishi/internal/apperr"
	"github.com/starford/zhishi/internal/attachment"
	"github.com/starford/zhishi/internal/clipboard"
	"github.com/starford/zhishi/internal/export"
	"github.com/starford/zhishi/internal/models"
)

// ErrStale is returned when the active note changed while a slow operation
// (image encoding, an AI request) was running for it.
var ErrStale = fmt.Errorf("%w: active note changed", apperr.ErrNoActiveNote)

// ImageResult describes an inserted image.
type ImageResult struct {
	ID      string             `json:"id"`
	Image   attachment.Encoded `json:"image"`
	Note    models.Note        `json:"note"`
	Caption string             `json:"caption"`
}

// InsertImage encodes data and inserts a reference to it at the selection.
// Selected text becomes the alt caption. Encoding runs without the lock;
// the result is dropped if another note was opened meanwhile.
func (s *Service) InsertImage(ctx context.Context, data []byte, filename string) (ImageResult, error) {
	return s.insertImage(ctx, data, filename, false)
}

// AttachImage opens noteID and appends an image at the end of its content.
func (s *Service) AttachImage(ctx context.Context, noteID string, data []byte, filename string) (ImageResult, error) {
	if _, err := s.Select(ctx, noteID); err != nil {
		return ImageResult{}, err
	}
	return s.insertImage(ctx, data, filename, true)
}

func (s *Service) insertImage(ctx context.Context, data []byte, filename string, atEnd bool) (ImageResult, error) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return ImageResult{}, apperr.ErrNoActiveNote
	}
	epoch, noteID := s.epoch, s.active.ID
	opts := s.cfg.Attachments
	s.mu.Unlock()

	enc, err := attachment.Encode(data, opts)
	if err != nil {
		return ImageResult{}, fmt.Errorf("noteservice: encode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return ImageResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.epoch != epoch {
		s.log.Warn("image dropped, note changed", slog.String("note_id", noteID))
		return ImageResult{}, ErrStale
	}

	if s.active.Attachments == nil {
		s.active.Attachments = map[string]string{}
	}
	id := attachment.NewID()
	for s.active.Attachments[id] != "" {
		id = attachment.NewID()
	}
	s.active.Attachments[id] = enc.DataURI

	length := runeLen(s.active.Content)
	sel := s.sel.Clamp(length)
	prefix := ""
	if atEnd {
		sel = Selection{Start: length, End: length}
		if length > 0 && !strings.HasSuffix(s.active.Content, "\n") {
			prefix = "\n\n"
		}
	}
	alt := attachment.AltText(selected(s.active.Content, sel), filename)
	s.active.Content, s.sel = splice(s.active.Content, sel, prefix+attachment.Reference(alt, id))
	s.touchLocked()

	s.log.Info("image attached", slog.String("note_id", noteID), slog.String("attachment", id),
		slog.Int("size", enc.Size), slog.Bool("reencoded", enc.Reencoded))
	return ImageResult{ID: id, Image: enc, Note: s.active.Clone(), Caption: alt}, nil
}

// Resolved returns the content of note id with attachment references
// replaced by their data URIs.
func (s *Service) Resolved(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.noteLocked(id)
	if err != nil {
		return "", err
	}
	return attachment.Resolve(n.Content, n.Attachments), nil
}

// ExportMarkdown returns a self-contained Markdown file for note id.
func (s *Service) ExportMarkdown(id string) (name string, content []byte, err error) {
	n, err := s.Note(id)
	if err != nil {
		return "", nil, err
	}
	name, content = export.Markdown(n)
	return name, content, nil
}

// Copy writes the resolved active note to cb. It reports false when no
// clipboard is available, which is not an error.
func (s *Service) Copy(cb clipboard.Clipboard) (bool, error) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return false, apperr.ErrNoActiveNote
	}
	text := attachment.Resolve(s.active.Content, s.active.Attachments)
	s.mu.Unlock()

	if err := cb.WriteText(text); err != nil {
		if errors.Is(err, apperr.ErrClipboardUnavailable) {
			s.log.Warn("copy skipped", slog.String("error", err.Error()))
			return false, nil
		}
		return false, fmt.Errorf("noteservice: copy: %w", err)
	}
	return true, nil
}

// Paste inserts the clipboard text at the selection. It reports false when
// no clipboard is available.
func (s *Service) Paste(cb clipboard.Clipboard) (bool, error) {
	text, err := cb.ReadText()
	if err != nil {
		if errors.Is(err, apperr.ErrClipboardUnavailable) {
			s.log.Warn("paste skipped", slog.String("error", err.Error()))
			return false, nil
		}
		return false, fmt.Errorf("noteservice: paste: %w", err)
	}
	if _, _, err := s.InsertText(text); err != nil {
		return false, err
	}
	return true, nil
}
