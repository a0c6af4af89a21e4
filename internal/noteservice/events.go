package noteservice

// Event names published through the Notifier.
const (
	EventNoteSaved       = "note.saved"
	EventNoteCreated     = "note.created"
	EventNoteDeleted     = "note.deleted"
	EventHistoryChanged  = "history.changed"
	EventSaveFailed      = "save.failed"
	EventProposalReady   = "proposal.ready"
	EventProposalFailed  = "proposal.failed"
	EventConfigRequired  = "config.required"
	EventChatReply       = "chat.reply"
	EventSettingsUpdated = "settings.updated"
	EventDataImported    = "data.imported"
)

// Notifier receives service events. Publish may be called with the service
// lock held, so implementations must not block or call back into the Service.
type Notifier interface {
	Publish(event string, data any)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, any) {}

// SaveInfo is the payload of EventNoteSaved.
type SaveInfo struct {
	NoteID  string `json:"noteId,omitempty"`
	SavedAt int64  `json:"savedAt"`
	Count   int    `json:"count"`
}

// NoteRef is the payload of note created/deleted events.
type NoteRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// WelcomeTitle is the title of the note seeded into an empty store.
const WelcomeTitle = "Welcome to Zhishi"

const welcomeContent = "# Welcome to Zhishi\n\n" +
	"A Markdown notebook for fast capture, AI polish and export.\n\n" +
	"## Quick start\n\n" +
	"1. **Configure AI**: open Settings and add a provider key (Gemini, OpenAI, DeepSeek or a local Ollama endpoint).\n" +
	"2. **Create**: click \"+ New Note\".\n" +
	"3. **AI help**: \"Analyze\" suggests tags and a summary, \"Polish\" refines the wording.\n\n" +
	"## Shortcuts\n\n" +
	"- `Cmd/Ctrl + K`: command palette and search\n" +
	"- `Cmd/Ctrl + S`: save\n" +
	"- `Cmd/Ctrl + Shift + P`: export\n" +
	"- `Cmd/Ctrl + Enter`: AI polish\n" +
	"- `Cmd/Ctrl + Z` / `Cmd/Ctrl + Shift + Z`: undo and redo\n\n" +
	"```mermaid\n" +
	"graph LR\n" +
	"    A[Idea] --> B(Draft)\n" +
	"    B --> C{AI Assistant}\n" +
	"    C -- Analyze --> D[Auto Tags]\n" +
	"    C -- Polish --> E[Refine Text]\n" +
	"```\n\n" +
	"Happy writing!"
