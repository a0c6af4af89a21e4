package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/zhishi/internal/apperr"
	"github.com/starford/zhishi/internal/assist"
)

func kindParam(r *http.Request) (assist.Kind, error) {
	k := assist.Kind(chi.URLParam(r, "kind"))
	if !k.Valid() || k == assist.KindChat {
		return "", fmt.Errorf("%w: unknown proposal kind %q", apperr.ErrNotFound, k)
	}
	return k, nil
}

// Propose handles POST /api/ai/{kind}. The result is staged, never applied.
//
//	@Summary		Request an AI proposal for the active note
//	@Tags			ai
//	@Produce		json
//	@Param			kind	path		string	true	"analyze or polish"
//	@Success		200		{object}	assist.Proposal
//	@Failure		409		{object}	errResponse
//	@Failure		428		{object}	errResponse	"No AI credential configured"
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ai/{kind} [post]
func (h *Handler) Propose(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var prop assist.Proposal
	switch kind {
	case assist.KindAnalyze:
		prop, err = h.svc.Analyze(r.Context())
	default:
		prop, err = h.svc.Polish(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

// ProposalState handles GET /api/ai/{kind}.
func (h *Handler) ProposalState(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.AIState(kind))
}

// ApplyProposal handles POST /api/ai/{kind}/apply.
//
//	@Summary		Apply the staged proposal to the active note
//	@Tags			ai
//	@Produce		json
//	@Param			kind	path		string	true	"analyze or polish"
//	@Success		200		{object}	models.Note
//	@Failure		404		{object}	errResponse	"Nothing staged"
//	@Failure		409		{object}	errResponse	"Proposal belongs to another note"
//	@Security		BearerAuth
//	@Router			/ai/{kind}/apply [post]
func (h *Handler) ApplyProposal(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apply := h.svc.ApplyPolish
	if kind == assist.KindAnalyze {
		apply = h.svc.ApplyAnalyze
	}
	n, err := apply()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// CancelProposal handles DELETE /api/ai/{kind}.
func (h *Handler) CancelProposal(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.svc.CancelProposal(kind)
	w.WriteHeader(http.StatusNoContent)
}

// Chat handles POST /api/chat.
//
//	@Summary		Send a message to the assistant
//	@Tags			ai
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ChatRequest	true	"Message"
//	@Success		200		{object}	ChatResponse
//	@Failure		400		{object}	errResponse
//	@Failure		428		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/chat [post]
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reply, err := h.svc.Chat(r.Context(), req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

// Transcript handles GET /api/chat.
func (h *Handler) Transcript(w http.ResponseWriter, _ *http.Request) {
	msgs := h.svc.Transcript()
	if msgs == nil {
		msgs = []assist.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// ResetChat handles DELETE /api/chat.
func (h *Handler) ResetChat(w http.ResponseWriter, _ *http.Request) {
	h.svc.ResetChat()
	w.WriteHeader(http.StatusNoContent)
}

// ChatContext handles GET /api/chat/context. It returns a prompt that
// quotes the active note, for the shell to prefill the chat input.
func (h *Handler) ChatContext(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.svc.ChatContext()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"prompt": prompt})
}

// AIStatus handles GET /api/ai. It reports whether a credential is set.
func (h *Handler) AIStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"configured": h.svc.AIConfigured()})
}
