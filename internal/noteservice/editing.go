package noteservice

import (
	"context"
	"math"
	"regexp"
	"slices"
	"time"

	"github.com/starford/zhishi/internal/apperr"
	"github.com/starford/zhishi/internal/history"
	"github.com/starford/zhishi/internal/models"
)

// Patch is a partial update of the active note. Nil fields are unchanged.
type Patch struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Category *string   `json:"category,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

// Update applies p to the working copy immediately. The snapshot and the
// autosave are debounced and restart on every call.
func (s *Service) Update(p Patch) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return models.Note{}, apperr.ErrNoActiveNote
	}
	if p.Title != nil {
		s.active.Title = *p.Title
	}
	if p.Content != nil {
		s.active.Content = *p.Content
	}
	if p.Category != nil {
		s.active.Category = *p.Category
	}
	if p.Tags != nil {
		s.active.Tags = slices.Clone(*p.Tags)
		if s.active.Tags == nil {
			s.active.Tags = []string{}
		}
	}
	s.touchLocked()
	return s.active.Clone(), nil
}

// SetSelection records the editor selection, clamped to the content.
func (s *Service) SetSelection(sel Selection) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Selection{}, apperr.ErrNoActiveNote
	}
	s.sel = sel.Clamp(runeLen(s.active.Content))
	return s.sel, nil
}

// Selection returns the current selection.
func (s *Service) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// InsertText replaces the selection with text and puts the caret after it.
func (s *Service) InsertText(text string) (models.Note, Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return models.Note{}, Selection{}, apperr.ErrNoActiveNote
	}
	s.active.Content, s.sel = splice(s.active.Content, s.sel, text)
	s.touchLocked()
	return s.active.Clone(), s.sel, nil
}

// InsertSnippet wraps the selection in prefix and suffix, as the toolbar
// does for bold or links. The wrapped text stays selected.
func (s *Service) InsertSnippet(prefix, suffix string) (models.Note, Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return models.Note{}, Selection{}, apperr.ErrNoActiveNote
	}
	sel := s.sel.Clamp(runeLen(s.active.Content))
	inner := selected(s.active.Content, sel)
	s.active.Content, _ = splice(s.active.Content, sel, prefix+inner+suffix)
	start := sel.Start + runeLen(prefix)
	s.sel = Selection{Start: start, End: start + runeLen(inner)}
	s.touchLocked()
	return s.active.Clone(), s.sel, nil
}

// Undo restores the previous snapshot. It reports false when there is
// nothing to undo.
func (s *Service) Undo() (models.Note, bool, error) {
	return s.step((*history.Engine).Undo)
}

// Redo restores the next snapshot. It reports false when there is nothing
// to redo.
func (s *Service) Redo() (models.Note, bool, error) {
	return s.step((*history.Engine).Redo)
}

func (s *Service) step(move func(*history.Engine) (history.Snapshot, bool)) (models.Note, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return models.Note{}, false, apperr.ErrNoActiveNote
	}
	snap, ok := move(s.hist)
	if !ok {
		return s.active.Clone(), false, nil
	}
	// A restore is not an edit: no snapshot is pending afterwards.
	s.sched.Cancel(keyHistory)
	snap.Apply(s.active)
	s.active.Touch(s.clock.Now())
	s.dirty = true
	s.sel = s.sel.Clamp(runeLen(s.active.Content))
	s.scheduleAutosaveLocked()
	s.notify.Publish(EventHistoryChanged, s.hist.State())
	return s.active.Clone(), true, nil
}

// History returns the undo cursor of the active note.
func (s *Service) History() history.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.State()
}

// Save commits immediately. The last saved time is updated before the write
// so that it reflects the moment the user asked, even if persisting fails.
func (s *Service) Save(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSaved = s.clock.Now()
	s.sched.Cancel(keyAutosave)
	err := s.commitLocked(ctx)
	return s.lastSaved, err
}

var (
	statsMarkup = regexp.MustCompile("[#*`>]")
	statsWord   = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]|\w+`)
)

// WordsPerMinute is the reading speed used for ReadingTime.
const WordsPerMinute = 300

// ComputeStats counts words and characters of Markdown content. Every CJK
// ideograph counts as a word.
func ComputeStats(content string) models.Stats {
	text := statsMarkup.ReplaceAllString(content, "")
	words := len(statsWord.FindAllStringIndex(text, -1))
	return models.Stats{
		Words:       words,
		Chars:       runeLen(text),
		ReadingTime: int(math.Ceil(float64(words) / WordsPerMinute)),
	}
}

// Stats returns the counters of the active note.
func (s *Service) Stats() (models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return models.Stats{}, apperr.ErrNoActiveNote
	}
	return ComputeStats(s.active.Content), nil
}
