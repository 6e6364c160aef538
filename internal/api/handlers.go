package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notable/internal/service"
)

// Handler holds API route handlers.
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Extract handles POST /api/extract.
//
//	@Summary		Extract proper nouns from text
//	@Tags			extraction
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExtractRequest	true	"Transcript and optional corrections"
//	@Success		200		{object}	models.ProperNounsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/extract [post]
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.svc.Extract(r.Context(), req.Text, req.Corrections)
	if err != nil {
		writeError(w, "extract", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Segment handles POST /api/segment.
//
//	@Summary		Align proper nouns onto a transcript
//	@Tags			extraction
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SegmentRequest	true	"Transcript and proper nouns"
//	@Success		200		{object}	SegmentResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/segment [post]
func (h *Handler) Segment(w http.ResponseWriter, r *http.Request) {
	var req SegmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, SegmentResponse{Segments: h.svc.Segment(req.Text, req.ProperNouns)})
}

// Prompt handles GET /api/prompt.
//
//	@Summary		Show the current extraction system prompt
//	@Tags			extraction
//	@Produce		json
//	@Success		200	{object}	PromptResponse
//	@Security		BearerAuth
//	@Router			/prompt [get]
func (h *Handler) Prompt(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Prompt(r.Context())
	if err != nil {
		writeError(w, "build prompt", err)
		return
	}
	writeJSON(w, http.StatusOK, PromptResponse{Prompt: p})
}

// ListCorrections handles GET /api/corrections.
//
//	@Summary		List stored corrections, newest first
//	@Tags			corrections
//	@Produce		json
//	@Success		200	{object}	CorrectionListResponse
//	@Security		BearerAuth
//	@Router			/corrections [get]
func (h *Handler) ListCorrections(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListCorrections(r.Context())
	if err != nil {
		writeError(w, "list corrections", err)
		return
	}
	writeJSON(w, http.StatusOK, CorrectionListResponse{Corrections: items})
}

// SaveCorrection handles POST /api/corrections.
//
//	@Summary		Create or update a correction
//	@Description	Matches an existing correction by case-insensitive original.
//	@Tags			corrections
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SaveCorrectionRequest	true	"Correction"
//	@Success		200		{object}	CorrectionResponse	"Updated"
//	@Success		201		{object}	CorrectionResponse	"Created"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/corrections [post]
func (h *Handler) SaveCorrection(w http.ResponseWriter, r *http.Request) {
	var req SaveCorrectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, created, err := h.svc.SaveCorrection(r.Context(), req.Original, req.Corrected)
	if err != nil {
		writeError(w, "save correction", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, CorrectionResponse{Correction: c, Created: created})
}

// ApplyCorrection handles POST /api/corrections/apply.
//
//	@Summary		Apply a correction to a transcript and remember it
//	@Tags			corrections
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ApplyCorrectionRequest	true	"Edit"
//	@Success		200		{object}	feedback.Outcome
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/corrections/apply [post]
func (h *Handler) ApplyCorrection(w http.ResponseWriter, r *http.Request) {
	var req ApplyCorrectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := h.svc.ApplyCorrection(r.Context(), req.Edit)
	if err != nil {
		writeError(w, "apply correction", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// DeleteCorrection handles DELETE /api/corrections/{id}.
//
//	@Summary		Delete a correction
//	@Tags			corrections
//	@Param			id	path	string	true	"Correction id"
//	@Success		204	"Correction deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/corrections/{id} [delete]
func (h *Handler) DeleteCorrection(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCorrection(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete correction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List saved notes, newest first
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListNotes(r.Context())
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items})
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Save a finalized transcript as a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.svc.CreateNote(r.Context(), req.Text)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
