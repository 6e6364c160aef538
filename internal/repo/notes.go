package repo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/starford/notable/internal/apperr"
	"github.com/starford/notable/internal/models"
	"github.com/starford/notable/internal/storage"
)

// Notes persists finalized transcripts, newest first.
type Notes struct {
	mu   sync.Mutex
	list jsonList[models.Note]
	opts options
}

// NewNotes creates a note repository backed by store.
func NewNotes(store storage.Provider, logger *slog.Logger, opts ...Option) *Notes {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Notes{
		list: jsonList[models.Note]{store: store, key: NotesKey, logger: logger},
		opts: o,
	}
}

// List returns a snapshot of every stored note.
func (r *Notes) List(ctx context.Context) ([]models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list.load(ctx)
}

// Create stores text as a new note at the front of the list.
func (r *Notes) Create(ctx context.Context, text string) (models.Note, error) {
	if strings.TrimSpace(text) == "" {
		return models.Note{}, fmt.Errorf("%w: note text is required", apperr.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.list.load(ctx)
	if err != nil {
		return models.Note{}, err
	}
	n := models.Note{
		ID:        r.opts.newID(),
		Text:      text,
		CreatedAt: r.opts.now(),
	}
	if err := r.list.save(ctx, append([]models.Note{n}, items...)); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

// Delete removes the note with the given id and reports whether anything
// was removed.
func (r *Notes) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.list.load(ctx)
	if err != nil {
		return false, err
	}
	kept := items[:0]
	for _, n := range items {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}
	return true, r.list.save(ctx, kept)
}
