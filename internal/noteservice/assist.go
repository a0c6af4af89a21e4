package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/zhishi/internal/ai"
	"github.com/starford/zhishi/internal/apperr"
	"github.com/starford/zhishi/internal/assist"
	"github.com/starford/zhishi/internal/models"
)

// AIStatus reports one AI operation for the toolbar.
type AIStatus struct {
	Kind     assist.Kind      `json:"kind"`
	State    assist.State     `json:"state"`
	Error    string           `json:"error,omitempty"`
	Proposal *assist.Proposal `json:"proposal,omitempty"`
}

// Analyze asks for tags and a summary of the active note and stages them.
func (s *Service) Analyze(ctx context.Context) (assist.Proposal, error) {
	return s.propose(ctx, assist.KindAnalyze)
}

// Polish asks for a rewritten version of the active note and stages it.
func (s *Service) Polish(ctx context.Context) (assist.Proposal, error) {
	return s.propose(ctx, assist.KindPolish)
}

// AIConfigured reports whether an AI request can be attempted.
func (s *Service) AIConfigured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ai != nil && assist.HasCredential(s.settings)
}

// credentialLocked returns apperr.ErrConfigurationRequired when no AI
// request can be attempted.
func (s *Service) credentialLocked() error {
	if s.ai == nil || !assist.HasCredential(s.settings) {
		s.notify.Publish(EventConfigRequired, map[string]string{"reason": "missing api key"})
		return apperr.ErrConfigurationRequired
	}
	return nil
}

func (s *Service) propose(ctx context.Context, kind assist.Kind) (assist.Proposal, error) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return assist.Proposal{}, apperr.ErrNoActiveNote
	}
	if err := s.credentialLocked(); err != nil {
		s.mu.Unlock()
		return assist.Proposal{}, err
	}
	noteID, content := s.active.ID, s.active.Content
	settings := s.settings
	s.mu.Unlock()

	s.assist.Begin(kind, noteID)
	v, err, _ := s.assist.Do(kind, noteID, func() (any, error) {
		if kind == assist.KindAnalyze {
			a, err := s.ai.Analyze(ctx, content, settings.CustomAnalyzePrompt)
			return a, err
		}
		text, err := s.ai.Polish(ctx, content, settings.CustomPolishPrompt)
		return text, err
	})
	if err != nil {
		return assist.Proposal{}, s.aiFailed(kind, noteID, err)
	}

	prop := assist.Proposal{Kind: kind, NoteID: noteID, CreatedAt: s.clock.Now()}
	switch r := v.(type) {
	case assist.Analysis:
		prop.Analysis = &r
	case string:
		prop.Text = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.ID != noteID {
		s.log.Warn("ai result dropped, note changed", slog.String("kind", string(kind)), slog.String("note_id", noteID))
		return assist.Proposal{}, ErrStale
	}
	s.assist.Succeed(prop)
	s.notify.Publish(EventProposalReady, prop)
	return prop, nil
}

// aiFailed records a failed request. A failure for a note that is no longer
// active leaves the state of the now active note alone. Chat passes no note.
func (s *Service) aiFailed(kind assist.Kind, noteID string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if noteID != "" && (s.active == nil || s.active.ID != noteID) {
		s.log.Warn("ai failure dropped, note changed", slog.String("kind", string(kind)), slog.String("note_id", noteID), slog.String("error", err.Error()))
		return fmt.Errorf("noteservice: %s: %v: %w", kind, err, ErrStale)
	}
	if errors.Is(err, ai.ErrMissingCredential) {
		s.assist.Fail(kind, apperr.ErrConfigurationRequired)
		s.notify.Publish(EventConfigRequired, map[string]string{"reason": err.Error()})
		return fmt.Errorf("noteservice: %s: %w", kind, apperr.ErrConfigurationRequired)
	}
	s.log.Warn("ai request failed", slog.String("kind", string(kind)), slog.String("note_id", noteID), slog.String("error", err.Error()))
	s.assist.Fail(kind, err)
	s.notify.Publish(EventProposalFailed, map[string]string{"kind": string(kind), "error": err.Error()})
	return fmt.Errorf("noteservice: %s: %v: %w", kind, err, apperr.ErrAIRequestFailed)
}

// Proposal returns the staged proposal of kind.
func (s *Service) Proposal(kind assist.Kind) (assist.Proposal, bool) {
	return s.assist.Pending(kind)
}

// AIState reports the lifecycle of kind.
func (s *Service) AIState(kind assist.Kind) AIStatus {
	st := AIStatus{Kind: kind, State: s.assist.State(kind)}
	if err := s.assist.Err(kind); err != nil {
		st.Error = err.Error()
	}
	if p, ok := s.assist.Pending(kind); ok {
		st.Proposal = &p
	}
	return st
}

// CancelProposal discards whatever kind holds.
func (s *Service) CancelProposal(kind assist.Kind) {
	s.assist.Discard(kind)
}

// ApplyAnalyze merges the staged analysis into the active note.
func (s *Service) ApplyAnalyze() (models.Note, error) {
	return s.apply(assist.KindAnalyze, func(n *models.Note, p assist.Proposal) {
		if p.Analysis != nil {
			assist.MergeAnalysis(n, *p.Analysis)
		}
	})
}

// ApplyPolish replaces the content of the active note with the staged text.
func (s *Service) ApplyPolish() (models.Note, error) {
	return s.apply(assist.KindPolish, func(n *models.Note, p assist.Proposal) {
		n.Content = p.Text
	})
}

func (s *Service) apply(kind assist.Kind, merge func(*models.Note, assist.Proposal)) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prop, ok := s.assist.Pending(kind)
	if !ok {
		return models.Note{}, fmt.Errorf("noteservice: no %s proposal: %w", kind, apperr.ErrNotFound)
	}
	if s.active == nil || s.active.ID != prop.NoteID {
		return models.Note{}, ErrStale
	}
	s.assist.Take(kind)
	merge(s.active, prop)
	s.touchLocked()
	return s.active.Clone(), nil
}

// Chat sends message with the transcript so far. The user message stays in
// the transcript when the request fails; the reply is appended on success.
func (s *Service) Chat(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("noteservice: chat: empty message: %w", apperr.ErrInvalidInput)
	}
	s.mu.Lock()
	if err := s.credentialLocked(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()

	history := s.chat.Messages()
	s.chat.Append(assist.Message{Role: assist.RoleUser, Content: message})
	s.assist.Begin(assist.KindChat, "")

	reply, err := s.ai.Chat(ctx, message, history)
	if err != nil {
		return "", s.aiFailed(assist.KindChat, "", err)
	}
	msg := assist.Message{Role: assist.RoleAssistant, Content: reply}
	s.chat.Append(msg)
	s.assist.Discard(assist.KindChat)
	s.notify.Publish(EventChatReply, msg)
	return reply, nil
}

// Transcript returns the chat so far.
func (s *Service) Transcript() []assist.Message {
	return s.chat.Messages()
}

// ResetChat clears the transcript.
func (s *Service) ResetChat() {
	s.chat.Reset()
	s.assist.Discard(assist.KindChat)
}

// ChatContext returns a prompt carrying the beginning of the active note,
// for the "insert context" action of the chat panel.
func (s *Service) ChatContext() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return "", apperr.ErrNoActiveNote
	}
	return assist.NoteContext(s.active.Title, s.active.Content), nil
}
