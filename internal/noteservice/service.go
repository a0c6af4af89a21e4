// Package noteservice is the editing core: the note store, the active
// working copy, its undo history, the debounced autosave and the staging
// of AI proposals.
//
// All state is guarded by one mutex. Debounced actions run on scheduler
// goroutines and carry the epoch of the note activation they were scheduled
// for; an action whose epoch is stale does nothing.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/zhishi/internal/ai"
	"github.com/starford/zhishi/internal/assist"
	"github.com/starford/zhishi/internal/attachment"
	"github.com/starford/zhishi/internal/history"
	"github.com/starford/zhishi/internal/index"
	"github.com/starford/zhishi/internal/models"
	"github.com/starford/zhishi/internal/scheduler"
	"github.com/starford/zhishi/internal/storage"
)

// Timer keys. One pending action per concern.
const (
	keyHistory  = "history"
	keyAutosave = "autosave"
)

// Config holds the editor timings.
type Config struct {
	HistoryDelay    time.Duration
	AutosaveDelay   time.Duration
	HistoryCapacity int
	Attachments     attachment.Options
}

// DefaultConfig returns 300ms snapshots, 600ms autosave and 30 entries.
func DefaultConfig() Config {
	return Config{
		HistoryDelay:    300 * time.Millisecond,
		AutosaveDelay:   600 * time.Millisecond,
		HistoryCapacity: history.DefaultCapacity,
		Attachments:     attachment.DefaultOptions(),
	}
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

// WithScheduler replaces the wall-clock timers, typically with a
// scheduler.Manual in tests.
func WithScheduler(sc scheduler.Scheduler) Option { return func(s *Service) { s.sched = sc } }

// WithClock sets the time source for timestamps.
func WithClock(c scheduler.Clock) Option { return func(s *Service) { s.clock = c } }

// WithNotifier sets the event sink.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notify = n } }

// WithAI sets the AI backend. Without one every AI request reports
// apperr.ErrConfigurationRequired.
func WithAI(c ai.Client) Option { return func(s *Service) { s.ai = c } }

// WithIndex keeps idx in sync after every commit.
func WithIndex(idx index.NoteIndex) Option { return func(s *Service) { s.idx = idx } }

// WithConfig overrides the editor timings. Zero fields keep their defaults.
func WithConfig(c Config) Option {
	return func(s *Service) {
		if c.HistoryDelay > 0 {
			s.cfg.HistoryDelay = c.HistoryDelay
		}
		if c.AutosaveDelay > 0 {
			s.cfg.AutosaveDelay = c.AutosaveDelay
		}
		if c.HistoryCapacity > 0 {
			s.cfg.HistoryCapacity = c.HistoryCapacity
		}
		s.cfg.Attachments = c.Attachments
	}
}

// Service owns the note store and the active note.
type Service struct {
	mu sync.Mutex

	gw       storage.Gateway
	idx      index.NoteIndex
	ai       ai.Client
	sched    scheduler.Scheduler
	ownSched bool
	clock    scheduler.Clock
	notify   Notifier
	log      *slog.Logger
	cfg      Config

	loaded     bool
	notes      []models.Note // canonical store, updatedAt descending after each commit
	settings   models.Settings
	active     *models.Note // working copy, nil when no note is open
	dirty      bool         // active differs from its store entry
	hist       *history.Engine
	sel        Selection
	selections map[string]Selection
	epoch      uint64
	lastSaved  time.Time

	assist *assist.Pipeline
	chat   assist.Transcript
}

// New creates a service on top of gw. Call Load before anything else.
func New(gw storage.Gateway, opts ...Option) *Service {
	s := &Service{
		gw:         gw,
		cfg:        DefaultConfig(),
		settings:   models.DefaultSettings(),
		selections: make(map[string]Selection),
		assist:     assist.NewPipeline(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.sched == nil {
		s.sched = scheduler.NewTimers()
		s.ownSched = true
	}
	if s.clock == nil {
		s.clock = scheduler.SystemClock{}
	}
	if s.notify == nil {
		s.notify = nopNotifier{}
	}
	s.hist = history.New(s.cfg.HistoryCapacity)
	return s
}

// Load reads notes and settings once. An empty store is seeded with the
// welcome note, which becomes active. Otherwise no note is opened.
func (s *Service) Load(ctx context.Context) error {
	notes, settings, err := s.gw.Load(ctx)
	if err != nil {
		return fmt.Errorf("noteservice: load: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	s.loaded = true
	s.settings = settings.WithDefaults()
	models.SortByUpdated(notes)
	s.notes = notes

	if len(s.notes) == 0 {
		welcome := s.newNoteLocked(WelcomeTitle, welcomeContent, "Getting Started", []string{"Guide", "Welcome"})
		s.notes = []models.Note{welcome}
		if err := s.gw.SaveNotes(ctx, s.notes); err != nil {
			s.saveFailedLocked(err)
		} else {
			s.lastSaved = s.clock.Now()
		}
		s.activateLocked(welcome)
	}
	s.reindexLocked()
	s.log.Info("notes loaded", slog.Int("count", len(s.notes)))
	return nil
}

// Close cancels pending timers and flushes an unsaved working copy.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.dirty {
		err = s.commitLocked(ctx)
	}
	s.cancelTimersLocked()
	s.epoch++
	if s.ownSched {
		s.sched.Stop()
	}
	return err
}

// newNoteLocked builds a note stamped with the current time.
func (s *Service) newNoteLocked(title, content, category string, tags []string) models.Note {
	now := s.clock.Now()
	if tags == nil {
		tags = []string{}
	}
	return models.Note{
		ID:          newNoteID(now),
		Title:       title,
		Content:     content,
		Category:    category,
		Tags:        tags,
		CreatedAt:   now.UnixMilli(),
		UpdatedAt:   now.UnixMilli(),
		Attachments: map[string]string{},
	}
}

// newNoteID returns a time-based id with a random suffix.
func newNoteID(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 36) + uuid.NewString()[:8]
}

// activateLocked makes a copy of n the working copy and restarts its
// history. Timers of the previous note are cancelled and its staged
// proposals dropped.
func (s *Service) activateLocked(n models.Note) {
	s.cancelTimersLocked()
	s.rememberSelectionLocked()
	s.epoch++
	c := n.Clone()
	s.active = &c
	s.dirty = false
	s.hist.Reset(s.active)
	s.sel = s.selections[c.ID].Clamp(runeLen(c.Content))
	s.assist.DiscardAll()
	s.notify.Publish(EventHistoryChanged, s.hist.State())
}

// deactivateLocked closes the working copy without saving it.
func (s *Service) deactivateLocked() {
	s.cancelTimersLocked()
	s.rememberSelectionLocked()
	s.epoch++
	s.active = nil
	s.dirty = false
	s.sel = Selection{}
	s.hist.Clear()
	s.assist.DiscardAll()
	s.notify.Publish(EventHistoryChanged, s.hist.State())
}

func (s *Service) rememberSelectionLocked() {
	if s.active != nil {
		s.selections[s.active.ID] = s.sel
	}
}

func (s *Service) cancelTimersLocked() {
	s.sched.Cancel(keyHistory)
	s.sched.Cancel(keyAutosave)
}

// flushLocked commits the working copy if it has unsaved edits. Failures
// are logged and published but do not stop the caller.
func (s *Service) flushLocked(ctx context.Context) {
	s.cancelTimersLocked()
	if s.dirty {
		_ = s.commitLocked(ctx)
	}
}

// touchLocked stamps the working copy after a mutation and restarts both
// debounce timers.
func (s *Service) touchLocked() {
	s.active.Touch(s.clock.Now())
	s.dirty = true
	s.sel = s.sel.Clamp(runeLen(s.active.Content))
	s.scheduleSnapshotLocked()
	s.scheduleAutosaveLocked()
}

func (s *Service) scheduleSnapshotLocked() {
	epoch := s.epoch
	s.sched.Schedule(keyHistory, s.cfg.HistoryDelay, func() { s.recordSnapshot(epoch) })
}

func (s *Service) scheduleAutosaveLocked() {
	epoch := s.epoch
	s.sched.Schedule(keyAutosave, s.cfg.AutosaveDelay, func() { s.autosave(epoch) })
}

func (s *Service) recordSnapshot(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.active == nil {
		return
	}
	if s.hist.Record(s.active) {
		s.log.Debug("history snapshot", slog.String("note_id", s.active.ID), slog.Int("length", s.hist.Len()))
		s.notify.Publish(EventHistoryChanged, s.hist.State())
	}
}

func (s *Service) autosave(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.log.Debug("autosave")
	_ = s.commitLocked(context.Background())
}

// commitLocked merges the working copy into the store, re-sorts it by
// updatedAt and persists the whole list.
func (s *Service) commitLocked(ctx context.Context) error {
	if s.active != nil {
		s.mergeLocked()
	}
	models.SortByUpdated(s.notes)
	s.dirty = false

	if err := s.gw.SaveNotes(ctx, s.notes); err != nil {
		s.saveFailedLocked(err)
		return fmt.Errorf("noteservice: save notes: %w", err)
	}
	s.lastSaved = s.clock.Now()
	s.reindexLocked()

	info := SaveInfo{SavedAt: s.lastSaved.UnixMilli(), Count: len(s.notes)}
	if s.active != nil {
		info.NoteID = s.active.ID
	}
	s.notify.Publish(EventNoteSaved, info)
	return nil
}

// mergeLocked replaces the store entry of the working copy, or prepends it
// when the store does not have it yet.
func (s *Service) mergeLocked() {
	c := s.active.Clone()
	if i := s.positionLocked(c.ID); i >= 0 {
		s.notes[i] = c
		return
	}
	s.notes = append([]models.Note{c}, s.notes...)
}

func (s *Service) saveFailedLocked(err error) {
	s.log.Warn("save failed", slog.String("error", err.Error()))
	s.notify.Publish(EventSaveFailed, map[string]string{"error": err.Error()})
}

func (s *Service) persistSettingsLocked(ctx context.Context) error {
	if err := s.gw.SaveSettings(ctx, s.settings); err != nil {
		s.saveFailedLocked(err)
		return fmt.Errorf("noteservice: save settings: %w", err)
	}
	return nil
}

func (s *Service) reindexLocked() {
	if s.idx == nil {
		return
	}
	if _, err := s.idx.Sync(s.notes, s.log); err != nil {
		s.log.Warn("index sync failed", slog.String("error", err.Error()))
	}
}

func (s *Service) positionLocked(id string) int {
	for i := range s.notes {
		if s.notes[i].ID == id {
			return i
		}
	}
	return -1
}

// LastSaved returns the time of the last commit, zero if none happened.
func (s *Service) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

// Settings returns the current settings.
func (s *Service) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings replaces and persists the settings. The in-memory copy is
// kept even when persisting fails.
func (s *Service) UpdateSettings(ctx context.Context, settings models.Settings) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings.WithDefaults()
	err := s.persistSettingsLocked(ctx)
	s.notify.Publish(EventSettingsUpdated, s.settings)
	return s.settings, err
}
