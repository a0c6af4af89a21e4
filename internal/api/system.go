package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/starford/zhishi/internal/apperr"
	"github.com/starford/zhishi/internal/keymap"
	"github.com/starford/zhishi/internal/models"
)

const maxBackupBytes = 64 << 20

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings())
}

// UpdateSettings handles PUT /api/settings.
//
//	@Summary		Replace the user settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Settings	true	"Settings"
//	@Success		200		{object}	models.Settings
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var s models.Settings
	if err := decodeJSON(w, r, &s); err != nil {
		writeError(w, r, err)
		return
	}
	got, err := h.svc.UpdateSettings(r.Context(), s)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

// ExportBackup handles GET /api/backup.
//
//	@Summary		Download a zhishi-v1 backup of every note and the settings
//	@Tags			backup
//	@Produce		json
//	@Success		200
//	@Security		BearerAuth
//	@Router			/backup [get]
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.svc.ExportBackup()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDownload(w, name, "application/json; charset=utf-8", data)
}

// ImportBackup handles POST /api/backup. The body is a backup document;
// an invalid one is rejected with 422 and changes nothing.
//
//	@Summary		Restore a backup, replacing every note
//	@Tags			backup
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	ImportResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backup [post]
func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("backup too large"))
		return
	}
	n, err := h.svc.ImportBackup(r.Context(), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Count: n})
}

// Keys handles GET /api/keys.
func (h *Handler) Keys(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.keys.Bindings())
}

// PressKey handles POST /api/keys. The combo is resolved through the
// keymap and the bound action runs against the active note.
//
//	@Summary		Run the action bound to a keyboard shortcut
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			body	body		KeyRequest	true	"Combo"
//	@Success		200		{object}	KeyResponse
//	@Failure		404		{object}	errResponse	"Combo not bound"
//	@Security		BearerAuth
//	@Router			/keys [post]
func (h *Handler) PressKey(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	action, ok := h.keys.Lookup(req.Combo)
	if !ok {
		writeError(w, r, fmt.Errorf("%w: no binding for %q", apperr.ErrNotFound, req.Combo))
		return
	}
	result, err := h.run(r, action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, KeyResponse{Action: string(action), Result: result})
}

func (h *Handler) run(r *http.Request, action keymap.Action) (any, error) {
	switch action {
	case keymap.ActionPalette:
		return PaletteResponse{Items: h.svc.Palette("", 0)}, nil
	case keymap.ActionSave:
		t, err := h.svc.Save(r.Context())
		return SaveResponse{SavedAt: t}, err
	case keymap.ActionExport:
		n, ok := h.svc.Active()
		if !ok {
			return nil, apperr.ErrNoActiveNote
		}
		name, content, err := h.svc.ExportMarkdown(n.ID)
		return map[string]string{"name": name, "content": string(content)}, err
	case keymap.ActionPolish:
		return h.svc.Polish(r.Context())
	case keymap.ActionUndo:
		n, moved, err := h.svc.Undo()
		return StepResponse{Note: n, Moved: moved, History: h.svc.History()}, err
	case keymap.ActionRedo:
		n, moved, err := h.svc.Redo()
		return StepResponse{Note: n, Moved: moved, History: h.svc.History()}, err
	}
	return nil, fmt.Errorf("%w: unknown action %q", apperr.ErrInvalidInput, action)
}
