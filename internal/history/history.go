// Package history keeps the bounded undo/redo sequence of an active note.
package history

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/starford/zhishi/internal/models"
)

// DefaultCapacity is the number of snapshots kept per note.
const DefaultCapacity = 30

// Key fingerprints the fields that make two states of a note materially
// different: id, title, content, category, joined tags and attachment count.
// Timestamps are not part of the key.
func Key(n *models.Note) uint64 {
	d := xxhash.New()
	for _, part := range []string{
		n.ID,
		n.Title,
		n.Content,
		n.Category,
		strings.Join(n.Tags, ","),
		strconv.Itoa(len(n.Attachments)),
	} {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// Snapshot is an immutable copy of a note's editable fields.
type Snapshot struct {
	title       string
	content     string
	category    string
	tags        []string
	attachments map[string]string
	key         uint64
}

// Take captures the editable fields of n.
func Take(n *models.Note) Snapshot {
	return Snapshot{
		title:       n.Title,
		content:     n.Content,
		category:    n.Category,
		tags:        slices.Clone(n.Tags),
		attachments: maps.Clone(n.Attachments),
		key:         Key(n),
	}
}

// Key returns the snapshot key recorded when the snapshot was taken.
func (s Snapshot) Key() uint64 { return s.key }

// Content returns the recorded content.
func (s Snapshot) Content() string { return s.content }

// Title returns the recorded title.
func (s Snapshot) Title() string { return s.title }

// Apply restores the recorded fields onto n. The id and timestamps of n are
// left alone.
func (s Snapshot) Apply(n *models.Note) {
	n.Title = s.title
	n.Content = s.content
	n.Category = s.category
	n.Tags = slices.Clone(s.tags)
	n.Attachments = maps.Clone(s.attachments)
}

// State describes the cursor position for toolbars.
type State struct {
	Length  int  `json:"length"`
	Index   int  `json:"index"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

// Engine is the undo/redo sequence. Index is -1 iff the sequence is empty.
// It is not safe for concurrent use; the owner serialises access.
type Engine struct {
	capacity int
	entries  []Snapshot
	index    int
	lastKey  uint64
	hasKey   bool
}

// New returns an empty engine holding at most capacity snapshots.
func New(capacity int) *Engine {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Engine{capacity: capacity, index: -1}
}

// Reset discards the sequence and starts over with a single snapshot of n.
func (e *Engine) Reset(n *models.Note) {
	s := Take(n)
	e.entries = []Snapshot{s}
	e.index = 0
	e.lastKey = s.key
	e.hasKey = true
}

// Clear empties the sequence.
func (e *Engine) Clear() {
	e.entries = nil
	e.index = -1
	e.lastKey = 0
	e.hasKey = false
}

// Record appends a snapshot of n unless its key equals the last recorded
// key. Any redo tail is dropped, and the oldest entries are evicted once
// capacity is exceeded. It reports whether a snapshot was appended.
func (e *Engine) Record(n *models.Note) bool {
	key := Key(n)
	if e.hasKey && key == e.lastKey {
		return false
	}
	next := append(e.entries[:e.index+1:e.index+1], Take(n))
	if over := len(next) - e.capacity; over > 0 {
		next = slices.Clone(next[over:])
	}
	e.entries = next
	e.index = len(next) - 1
	e.lastKey = key
	e.hasKey = true
	return true
}

// Undo moves the cursor back one entry and returns the snapshot to restore.
func (e *Engine) Undo() (Snapshot, bool) {
	if e.index <= 0 {
		return Snapshot{}, false
	}
	e.index--
	return e.restore(), true
}

// Redo moves the cursor forward one entry and returns the snapshot to restore.
func (e *Engine) Redo() (Snapshot, bool) {
	if e.index < 0 || e.index >= len(e.entries)-1 {
		return Snapshot{}, false
	}
	e.index++
	return e.restore(), true
}

func (e *Engine) restore() Snapshot {
	s := e.entries[e.index]
	e.lastKey = s.key
	e.hasKey = true
	return s
}

// Len returns the number of snapshots.
func (e *Engine) Len() int { return len(e.entries) }

// Index returns the cursor, -1 when empty.
func (e *Engine) Index() int { return e.index }

// CanUndo reports whether Undo would move the cursor.
func (e *Engine) CanUndo() bool { return e.index > 0 }

// CanRedo reports whether Redo would move the cursor.
func (e *Engine) CanRedo() bool { return e.index >= 0 && e.index < len(e.entries)-1 }

// Current returns the snapshot under the cursor.
func (e *Engine) Current() (Snapshot, bool) {
	if e.index < 0 {
		return Snapshot{}, false
	}
	return e.entries[e.index], true
}

// State returns the cursor summary.
func (e *Engine) State() State {
	return State{Length: len(e.entries), Index: e.index, CanUndo: e.CanUndo(), CanRedo: e.CanRedo()}
}
