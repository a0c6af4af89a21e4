package assist

import (
	"slices"
	"strings"
	"sync"
)

// Roles used in a transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ContextLimit is how many characters of a note are offered as chat context.
const ContextLimit = 1500

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript is the linear chat history. It is independent of notes.
type Transcript struct {
	mu   sync.Mutex
	msgs []Message
}

// Append adds a message.
func (t *Transcript) Append(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, m)
}

// Messages returns a copy of the history.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.msgs)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.msgs)
}

// Reset starts a new conversation.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = nil
}

// NoteContext builds the chat preamble quoting the first ContextLimit
// characters of a note.
func NoteContext(title, content string) string {
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}
	r := []rune(content)
	if len(r) > ContextLimit {
		r = r[:ContextLimit]
	}
	return "Answer with the current note \"" + title + "\" in mind and keep its context:\n" + string(r)
}
