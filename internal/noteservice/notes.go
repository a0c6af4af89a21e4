package noteservice

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/starford/zhishi/internal/apperr"
	"github.com/starford/zhishi/internal/index"
	"github.com/starford/zhishi/internal/models"
)

// Category filters understood by List besides a category name.
const (
	CategoryAll           = "all"
	CategoryUncategorized = "uncategorized"
)

// UntitledTitle is the title given to new notes.
const UntitledTitle = "Untitled"

// Filter selects notes for List. The zero value lists everything.
type Filter struct {
	Category string
	Query    string
}

func (f Filter) match(n models.Note) bool {
	switch f.Category {
	case "", CategoryAll:
	case CategoryUncategorized:
		if n.Category != "" {
			return false
		}
	default:
		if n.Category != f.Category {
			return false
		}
	}
	return n.Matches(f.Query)
}

// viewLocked returns a copy of the store with the working copy in place of
// its stored version.
func (s *Service) viewLocked() []models.Note {
	out := make([]models.Note, 0, len(s.notes)+1)
	found := false
	for _, n := range s.notes {
		if s.active != nil && n.ID == s.active.ID {
			n = *s.active
			found = true
		}
		out = append(out, n.Clone())
	}
	if s.active != nil && !found {
		out = append([]models.Note{s.active.Clone()}, out...)
	}
	return out
}

// Notes returns every note, including unsaved edits of the active note.
func (s *Service) Notes() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// List returns the notes matching f, most recently updated first.
func (s *Service) List(f Filter) []models.Note {
	s.mu.Lock()
	view := s.viewLocked()
	s.mu.Unlock()

	out := view[:0]
	for _, n := range view {
		if f.match(n) {
			out = append(out, n)
		}
	}
	models.SortByUpdated(out)
	return out
}

// Note returns the note with id. The active note is returned with its
// unsaved edits.
func (s *Service) Note(id string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noteLocked(id)
}

func (s *Service) noteLocked(id string) (models.Note, error) {
	if s.active != nil && s.active.ID == id {
		return s.active.Clone(), nil
	}
	if i := s.positionLocked(id); i >= 0 {
		return s.notes[i].Clone(), nil
	}
	return models.Note{}, fmt.Errorf("noteservice: note %q: %w", id, apperr.ErrNotFound)
}

// Active returns the working copy of the open note.
func (s *Service) Active() (models.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return models.Note{}, false
	}
	return s.active.Clone(), true
}

// Categories returns the distinct non-empty categories in name order.
func (s *Service) Categories() []models.Category {
	s.mu.Lock()
	view := s.viewLocked()
	s.mu.Unlock()

	counts := make(map[string]int)
	for _, n := range view {
		if n.Category != "" {
			counts[n.Category]++
		}
	}
	out := make([]models.Category, 0, len(counts))
	for name, c := range counts {
		out = append(out, models.Category{Name: name, Count: c})
	}
	slices.SortFunc(out, func(a, b models.Category) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// PaletteItem is one command-palette hit.
type PaletteItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Score   int    `json:"score"`
	Matched []int  `json:"matched,omitempty"`
}

type titles []models.Note

func (t titles) String(i int) string { return t[i].Title }
func (t titles) Len() int            { return len(t) }

// Palette fuzzy-matches query against note titles. An empty query returns
// the most recently updated notes.
func (s *Service) Palette(query string, limit int) []PaletteItem {
	notes := s.List(Filter{})
	if limit <= 0 {
		limit = 20
	}
	var out []PaletteItem
	if strings.TrimSpace(query) == "" {
		for _, n := range notes[:min(limit, len(notes))] {
			out = append(out, PaletteItem{ID: n.ID, Title: n.Title})
		}
		return out
	}
	for _, m := range fuzzy.FindFrom(query, titles(notes)) {
		n := notes[m.Index]
		out = append(out, PaletteItem{ID: n.ID, Title: n.Title, Score: m.Score, Matched: m.MatchedIndexes})
		if len(out) == limit {
			break
		}
	}
	return out
}

// Search runs a full-text query against the index, which is refreshed on
// every commit. Without an index it falls back to substring matching.
func (s *Service) Search(query string, limit int) ([]index.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.idx != nil {
		// The index only sees committed notes.
		res, err := s.idx.Search(query, limit)
		if err != nil {
			return nil, fmt.Errorf("noteservice: search: %w", err)
		}
		return res, nil
	}
	if strings.TrimSpace(query) == "" {
		return []index.SearchResult{}, nil
	}
	out := []index.SearchResult{}
	for _, n := range s.List(Filter{Query: query}) {
		out = append(out, index.SearchResult{ID: n.ID, Title: n.Title})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Create adds an empty note and opens it. A category of "all" or
// "uncategorized" leaves the note without category.
func (s *Service) Create(ctx context.Context, category string) (models.Note, error) {
	if category == CategoryAll || category == CategoryUncategorized {
		category = ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushLocked(ctx)
	n := s.newNoteLocked(UntitledTitle, "", category, nil)
	s.notes = append([]models.Note{n}, s.notes...)
	s.activateLocked(n)
	err := s.commitLocked(ctx)
	s.notify.Publish(EventNoteCreated, NoteRef{ID: n.ID, Title: n.Title})
	return s.active.Clone(), err
}

// ImportMarkdown stores a new note without changing the active note.
func (s *Service) ImportMarkdown(ctx context.Context, title, content, category string, tags []string) (models.Note, error) {
	if strings.TrimSpace(title) == "" {
		title = UntitledTitle
	}
	if category == CategoryAll || category == CategoryUncategorized {
		category = ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.newNoteLocked(title, content, category, slices.Clone(tags))
	s.notes = append([]models.Note{n}, s.notes...)
	err := s.commitLocked(ctx)
	s.notify.Publish(EventNoteCreated, NoteRef{ID: n.ID, Title: n.Title})
	return n.Clone(), err
}

// Select opens the note with id. Unsaved edits of the previously open note
// are committed first; its pending snapshot is dropped. An unknown id
// closes the active note and returns apperr.ErrNotFound.
func (s *Service) Select(ctx context.Context, id string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(ctx, id)
}

func (s *Service) selectLocked(ctx context.Context, id string) (models.Note, error) {
	if s.active != nil && s.active.ID == id {
		return s.active.Clone(), nil
	}
	s.flushLocked(ctx)
	i := s.positionLocked(id)
	if i < 0 {
		s.deactivateLocked()
		return models.Note{}, fmt.Errorf("noteservice: select %q: %w", id, apperr.ErrNotFound)
	}
	s.activateLocked(s.notes[i])
	return s.active.Clone(), nil
}

// Deselect closes the active note after committing its edits.
func (s *Service) Deselect(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked(ctx)
	s.deactivateLocked()
}

// Delete removes a note. When it was open, the next note in the list is
// opened, or the previous one when it was the last.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.positionLocked(id)
	wasActive := s.active != nil && s.active.ID == id
	if i < 0 && !wasActive {
		return fmt.Errorf("noteservice: delete %q: %w", id, apperr.ErrNotFound)
	}

	var title string
	var next *models.Note
	if wasActive {
		title = s.active.Title
		s.cancelTimersLocked()
		s.dirty = false
	}
	if i >= 0 {
		title = s.notes[i].Title
		switch {
		case i+1 < len(s.notes):
			next = &s.notes[i+1]
		case i > 0:
			next = &s.notes[i-1]
		}
		if wasActive && next != nil {
			n := next.Clone()
			next = &n
		}
		s.notes = slices.Delete(s.notes, i, i+1)
	}
	delete(s.selections, id)

	if wasActive {
		s.active = nil
		if next != nil {
			s.activateLocked(*next)
		} else {
			s.deactivateLocked()
		}
	}
	err := s.commitLocked(ctx)
	s.notify.Publish(EventNoteDeleted, NoteRef{ID: id, Title: title})
	return err
}
