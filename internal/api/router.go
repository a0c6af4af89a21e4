package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/zhishi/internal/clipboard"
	"github.com/starford/zhishi/internal/keymap"
	"github.com/starford/zhishi/internal/noteservice"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// AuthEnabled controls whether Bearer token auth is enforced.
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events         http.Handler
	Keymap         *keymap.Keymap
	Clipboard      clipboard.Clipboard
	MaxUploadBytes int64
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *noteservice.Service, cfg RouterConfig) chi.Router {
	h := NewHandler(svc, cfg.Keymap, cfg.Clipboard, cfg.MaxUploadBytes)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/import", h.ImportNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Get("/notes/{id}/export", h.Export)
	r.Get("/categories", h.Categories)
	r.Get("/themes", h.Themes)

	// Search and palette.
	r.Get("/search", h.Search)
	r.Get("/palette", h.Palette)

	// Editor.
	r.Route("/active", func(r chi.Router) {
		r.Get("/", h.GetActive)
		r.Put("/", h.SelectNote)
		r.Patch("/", h.UpdateActive)
		r.Delete("/", h.Deselect)
		r.Put("/selection", h.SetSelection)
		r.Post("/insert", h.Insert)
		r.Post("/undo", h.Undo)
		r.Post("/redo", h.Redo)
		r.Post("/save", h.Save)
		r.Get("/stats", h.Stats)
		r.Post("/images", h.UploadImage)
		r.Post("/copy", h.Copy)
		r.Post("/paste", h.Paste)
	})
	r.Get("/keys", h.Keys)
	r.Post("/keys", h.PressKey)

	// AI.
	r.Get("/ai", h.AIStatus)
	r.Post("/ai/{kind}", h.Propose)
	r.Get("/ai/{kind}", h.ProposalState)
	r.Delete("/ai/{kind}", h.CancelProposal)
	r.Post("/ai/{kind}/apply", h.ApplyProposal)
	r.Get("/chat", h.Transcript)
	r.Post("/chat", h.Chat)
	r.Delete("/chat", h.ResetChat)
	r.Get("/chat/context", h.ChatContext)

	// Settings and backup.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)
	r.Get("/backup", h.ExportBackup)
	r.Post("/backup", h.ImportBackup)

	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
