package api

import (
	"time"

	"github.com/starford/zhishi/internal/history"
	"github.com/starford/zhishi/internal/index"
	"github.com/starford/zhishi/internal/models"
	"github.com/starford/zhishi/internal/noteservice"
)

// CreateNoteRequest is the request body for creating an empty note.
type CreateNoteRequest struct {
	Category string `json:"category" example:"work"`
}

// ImportNoteRequest is the request body for importing a Markdown note
// without opening it.
type ImportNoteRequest struct {
	Title    string   `json:"title" example:"Meeting" validate:"required"`
	Content  string   `json:"content" example:"# Meeting\nAgenda"`
	Category string   `json:"category" example:"work"`
	Tags     []string `json:"tags" example:"go,notes"`
}

// SelectRequest opens a note in the editor.
type SelectRequest struct {
	ID string `json:"id" example:"m7x2k1ab-3f9c2d1e" validate:"required"`
}

// PatchRequest edits the active note. Absent fields are left unchanged.
type PatchRequest struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Category *string   `json:"category,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

func (p PatchRequest) patch() noteservice.Patch {
	return noteservice.Patch{Title: p.Title, Content: p.Content, Category: p.Category, Tags: p.Tags}
}

// InsertRequest inserts Text at the selection, or wraps the selection in
// Prefix and Suffix when either is set.
type InsertRequest struct {
	Text   string `json:"text,omitempty" example:"hello"`
	Prefix string `json:"prefix,omitempty" example:"**"`
	Suffix string `json:"suffix,omitempty" example:"**"`
}

// ChatRequest is one user message.
type ChatRequest struct {
	Message string `json:"message" example:"Summarise my week" validate:"required"`
}

// KeyRequest carries a keyboard combo such as "Ctrl+S".
type KeyRequest struct {
	Combo string `json:"combo" example:"mod+s" validate:"required"`
}

// EditorState is the active note together with its editing state.
type EditorState struct {
	Note      models.Note           `json:"note" validate:"required"`
	Selection noteservice.Selection `json:"selection" validate:"required"`
	History   history.State         `json:"history" validate:"required"`
	Stats     models.Stats          `json:"stats" validate:"required"`
	LastSaved *time.Time            `json:"lastSaved,omitempty"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// PaletteResponse wraps command-palette hits.
type PaletteResponse struct {
	Items []noteservice.PaletteItem `json:"items" validate:"required"`
}

// InsertResponse is the active note after a text insertion.
type InsertResponse struct {
	Note      models.Note           `json:"note" validate:"required"`
	Selection noteservice.Selection `json:"selection" validate:"required"`
}

// StepResponse is returned by undo and redo. Moved is false at either end
// of the history.
type StepResponse struct {
	Note    models.Note   `json:"note" validate:"required"`
	Moved   bool          `json:"moved"`
	History history.State `json:"history" validate:"required"`
}

// SaveResponse reports an explicit save.
type SaveResponse struct {
	SavedAt time.Time `json:"savedAt" validate:"required"`
}

// ImageUploadResponse is returned after an image was embedded in the
// active note.
type ImageUploadResponse struct {
	ID        string      `json:"id" example:"att-m7x2k1ab-3f9c" validate:"required"`
	Caption   string      `json:"caption" example:"diagram"`
	Width     int         `json:"width" example:"800"`
	Height    int         `json:"height" example:"600"`
	Reencoded bool        `json:"reencoded"`
	Note      models.Note `json:"note" validate:"required"`
}

// ClipboardResponse reports whether the system clipboard was reachable.
type ClipboardResponse struct {
	OK   bool         `json:"ok"`
	Note *models.Note `json:"note,omitempty"`
}

// ChatResponse is the assistant reply.
type ChatResponse struct {
	Reply string `json:"reply" validate:"required"`
}

// ImportResponse reports how many notes a backup restored.
type ImportResponse struct {
	Count int `json:"count" example:"12" validate:"required"`
}

// KeyResponse reports the action a combo triggered and its result.
type KeyResponse struct {
	Action string `json:"action" example:"save" validate:"required"`
	Result any    `json:"result,omitempty"`
}
