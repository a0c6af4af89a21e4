package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/starford/zhishi/internal/apperr"
	"github.com/starford/zhishi/internal/export"
)

const defaultMaxUpload = 20 << 20 // 20 MB

// UploadImage handles POST /api/active/images (multipart/form-data, field
// "file"). The image is re-encoded and embedded at the selection.
//
//	@Summary		Embed an image in the active note
//	@Tags			editor
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image file"
//	@Success		201		{object}	ImageUploadResponse
//	@Failure		409		{object}	errResponse
//	@Failure		415		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/active/images [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	res, err := h.svc.InsertImage(r.Context(), data, filepath.Base(header.Filename))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ImageUploadResponse{
		ID:        res.ID,
		Caption:   res.Caption,
		Width:     res.Image.Width,
		Height:    res.Image.Height,
		Reencoded: res.Image.Reencoded,
		Note:      res.Note,
	})
}

// Export handles GET /api/notes/{id}/export?format=md|html|terminal.
// Markdown and HTML are sent as downloads; attachments are inlined.
//
//	@Summary		Export a note
//	@Tags			notes
//	@Produce		text/markdown,text/html,text/plain
//	@Param			id		path	string	true	"Note ID"
//	@Param			format	query	string	false	"md (default), html or terminal"
//	@Param			theme	query	string	false	"Preview theme, defaults to the settings theme"
//	@Success		200
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	theme := q.Get("theme")
	if theme == "" {
		theme = h.svc.Settings().MarkdownTheme
	}

	switch format := q.Get("format"); format {
	case "", "md", "markdown":
		name, content, err := h.svc.ExportMarkdown(id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeDownload(w, name, "text/markdown; charset=utf-8", content)

	case "html":
		n, err := h.svc.Note(id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		page, err := export.HTML(n, export.ParseTheme(theme))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeDownload(w, export.FileName(n, ".html"), "text/html; charset=utf-8", page)

	case "terminal":
		n, err := h.svc.Note(id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := export.Terminal(n, export.ParseTheme(theme), export.TerminalOptions{
			Width:   queryInt(r, "width"),
			NoColor: q.Get("color") == "false",
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, out)

	default:
		writeError(w, r, fmt.Errorf("%w: unknown format %q", apperr.ErrInvalidInput, format))
	}
}

// Themes handles GET /api/themes.
func (h *Handler) Themes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, export.Themes)
}

// Copy handles POST /api/active/copy.
func (h *Handler) Copy(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.Copy(h.clip)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ClipboardResponse{OK: ok})
}

// Paste handles POST /api/active/paste.
func (h *Handler) Paste(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.Paste(h.clip)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := ClipboardResponse{OK: ok}
	if n, active := h.svc.Active(); active {
		resp.Note = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeDownload(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
