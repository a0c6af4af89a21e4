// Package assist stages AI results as proposals that the user explicitly
// applies or discards. Nothing in here mutates a note by itself.
package assist

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Kind is the AI operation a proposal belongs to.
type Kind string

const (
	KindAnalyze Kind = "analyze"
	KindPolish  Kind = "polish"
	KindChat    Kind = "chat"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindAnalyze, KindPolish, KindChat:
		return true
	}
	return false
}

// State is the per-kind request lifecycle:
// idle → requesting → ready | failed → idle.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// Analysis is the structured result of an analyze request.
type Analysis struct {
	Tags    []string `json:"tags"`
	Summary string   `json:"summary"`
}

// Proposal is a staged AI result for one note.
type Proposal struct {
	Kind      Kind      `json:"kind"`
	NoteID    string    `json:"noteId"`
	Analysis  *Analysis `json:"analysis,omitempty"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type slot struct {
	state    State
	noteID   string
	proposal *Proposal
	err      error
}

// Pipeline tracks one slot per kind. A new result replaces the previous
// one of the same kind.
type Pipeline struct {
	mu    sync.Mutex
	slots map[Kind]*slot
	group singleflight.Group
}

// NewPipeline returns a pipeline with every kind idle.
func NewPipeline() *Pipeline {
	return &Pipeline{slots: make(map[Kind]*slot)}
}

func (p *Pipeline) slot(k Kind) *slot {
	s, ok := p.slots[k]
	if !ok {
		s = &slot{state: StateIdle}
		p.slots[k] = s
	}
	return s
}

// Begin marks kind as requesting on behalf of noteID.
func (p *Pipeline) Begin(k Kind, noteID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.slot(k)
	s.state = StateRequesting
	s.noteID = noteID
	s.err = nil
}

// Succeed stages prop as the pending proposal of its kind.
func (p *Pipeline) Succeed(prop Proposal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.slot(prop.Kind)
	s.state = StateReady
	s.noteID = prop.NoteID
	s.proposal = &prop
	s.err = nil
}

// Fail records err for kind. Any earlier proposal of that kind is dropped.
func (p *Pipeline) Fail(k Kind, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.slot(k)
	s.state = StateFailed
	s.proposal = nil
	s.err = err
}

// Pending returns the staged proposal of kind, if any.
func (p *Pipeline) Pending(k Kind) (Proposal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.slot(k)
	if s.state != StateReady || s.proposal == nil {
		return Proposal{}, false
	}
	return *s.proposal, true
}

// Take removes and returns the staged proposal of kind.
func (p *Pipeline) Take(k Kind) (Proposal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.slot(k)
	if s.state != StateReady || s.proposal == nil {
		return Proposal{}, false
	}
	prop := *s.proposal
	*s = slot{state: StateIdle}
	return prop, true
}

// Discard drops whatever kind holds and returns it to idle.
func (p *Pipeline) Discard(k Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.slot(k) = slot{state: StateIdle}
}

// DiscardAll resets every kind except chat, whose transcript is not tied to
// a note.
func (p *Pipeline) DiscardAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, s := range p.slots {
		if k == KindChat {
			continue
		}
		*s = slot{state: StateIdle}
	}
}

// State returns the lifecycle state of kind.
func (p *Pipeline) State(k Kind) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slot(k).state
}

// Err returns the failure recorded for kind, if it is in the failed state.
func (p *Pipeline) Err(k Kind) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.slot(k)
	if s.state != StateFailed {
		return nil
	}
	return s.err
}

// Do runs fn once for concurrent callers asking for the same kind on the
// same note. Different kinds, or different notes, run independently.
func (p *Pipeline) Do(k Kind, noteID string, fn func() (any, error)) (v any, err error, shared bool) {
	r := <-p.DoChan(k, noteID, fn)
	return r.Val, r.Err, r.Shared
}

// DoChan is like Do but returns at once. A caller arriving while the call
// for the same kind and note is in flight has joined it when DoChan returns.
func (p *Pipeline) DoChan(k Kind, noteID string, fn func() (any, error)) <-chan singleflight.Result {
	return p.group.DoChan(string(k)+"/"+noteID, fn)
}
