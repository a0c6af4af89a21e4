package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/zhishi/internal/apperr"
	"github.com/starford/zhishi/internal/clipboard"
	"github.com/starford/zhishi/internal/keymap"
	"github.com/starford/zhishi/internal/models"
	"github.com/starford/zhishi/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc       *noteservice.Service
	keys      *keymap.Keymap
	clip      clipboard.Clipboard
	maxUpload int64
}

// NewHandler creates a new Handler. A nil keymap means the stock one, a nil
// clipboard means the system clipboard.
func NewHandler(svc *noteservice.Service, keys *keymap.Keymap, clip clipboard.Clipboard, maxUpload int64) *Handler {
	if keys == nil {
		keys = keymap.Default()
	}
	if clip == nil {
		clip = clipboard.System{}
	}
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &Handler{svc: svc, keys: keys, clip: clip, maxUpload: maxUpload}
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, most recently updated first
//	@Tags			notes
//	@Produce		json
//	@Param			category	query		string	false	"Category, or all / uncategorized"
//	@Param			q			query		string	false	"Substring filter over title, content and tags"
//	@Success		200			{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	notes := h.svc.List(noteservice.Filter{Category: q.Get("category"), Query: q.Get("q")})
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note ID"
//	@Success		200	{object}	models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Note(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// CreateNote handles POST /api/notes. The new note becomes the active one.
//
//	@Summary		Create an empty note and open it
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	false	"Category of the new note"
//	@Success		201		{object}	models.Note
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	n, err := h.svc.Create(r.Context(), req.Category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// ImportNote handles POST /api/notes/import.
//
//	@Summary		Import a Markdown note without opening it
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportNoteRequest	true	"Note fields"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/import [post]
func (h *Handler) ImportNote(w http.ResponseWriter, r *http.Request) {
	var req ImportNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.svc.ImportMarkdown(r.Context(), req.Title, req.Content, req.Category, req.Tags)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	string	true	"Note ID"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Categories handles GET /api/categories.
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Categories())
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search over saved notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	res, err := h.svc.Search(q, queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: res})
}

// Palette handles GET /api/palette.
func (h *Handler) Palette(w http.ResponseWriter, r *http.Request) {
	items := h.svc.Palette(r.URL.Query().Get("q"), queryInt(r, "limit"))
	if items == nil {
		items = []noteservice.PaletteItem{}
	}
	writeJSON(w, http.StatusOK, PaletteResponse{Items: items})
}

func (h *Handler) editorState() (EditorState, error) {
	n, ok := h.svc.Active()
	if !ok {
		return EditorState{}, apperr.ErrNoActiveNote
	}
	st := EditorState{
		Note:      n,
		Selection: h.svc.Selection(),
		History:   h.svc.History(),
		Stats:     noteservice.ComputeStats(n.Content),
	}
	if t := h.svc.LastSaved(); !t.IsZero() {
		st.LastSaved = &t
	}
	return st, nil
}

// GetActive handles GET /api/active.
//
//	@Summary		The note open in the editor
//	@Tags			editor
//	@Produce		json
//	@Success		200	{object}	EditorState
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/active [get]
func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	st, err := h.editorState()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SelectNote handles PUT /api/active. Unsaved edits of the previous note
// are committed first.
func (h *Handler) SelectNote(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.svc.Select(r.Context(), req.ID); err != nil {
		writeError(w, r, err)
		return
	}
	h.GetActive(w, r)
}

// Deselect handles DELETE /api/active.
func (h *Handler) Deselect(w http.ResponseWriter, r *http.Request) {
	h.svc.Deselect(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// UpdateActive handles PATCH /api/active.
//
//	@Summary		Edit the active note
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PatchRequest	true	"Fields to change"
//	@Success		200		{object}	models.Note
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/active [patch]
func (h *Handler) UpdateActive(w http.ResponseWriter, r *http.Request) {
	var req PatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.svc.Update(req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// SetSelection handles PUT /api/active/selection.
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var sel noteservice.Selection
	if err := decodeJSON(w, r, &sel); err != nil {
		writeError(w, r, err)
		return
	}
	got, err := h.svc.SetSelection(sel)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

// Insert handles POST /api/active/insert.
func (h *Handler) Insert(w http.ResponseWriter, r *http.Request) {
	var req InsertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	insert := func() (InsertResponse, error) {
		if req.Prefix != "" || req.Suffix != "" {
			n, sel, err := h.svc.InsertSnippet(req.Prefix, req.Suffix)
			return InsertResponse{Note: n, Selection: sel}, err
		}
		n, sel, err := h.svc.InsertText(req.Text)
		return InsertResponse{Note: n, Selection: sel}, err
	}
	resp, err := insert()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Undo handles POST /api/active/undo.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	n, moved, err := h.svc.Undo()
	h.writeStep(w, r, n, moved, err)
}

// Redo handles POST /api/active/redo.
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	n, moved, err := h.svc.Redo()
	h.writeStep(w, r, n, moved, err)
}

func (h *Handler) writeStep(w http.ResponseWriter, r *http.Request, n models.Note, moved bool, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StepResponse{Note: n, Moved: moved, History: h.svc.History()})
}

// Save handles POST /api/active/save.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Save(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SaveResponse{SavedAt: t})
}

// Stats handles GET /api/active/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
