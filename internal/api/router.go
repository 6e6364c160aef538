package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notable/internal/service"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *service.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Pipeline.
	r.Post("/transcribe", h.Transcribe)
	r.Post("/extract", h.Extract)
	r.Post("/segment", h.Segment)
	r.Get("/prompt", h.Prompt)

	// Corrections.
	r.Get("/corrections", h.ListCorrections)
	r.Post("/corrections", h.SaveCorrection)
	r.Post("/corrections/apply", h.ApplyCorrection)
	r.Delete("/corrections/{id}", h.DeleteCorrection)

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
