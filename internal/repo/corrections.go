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

// Corrections persists user-approved original → corrected mappings, at most
// one per case-insensitive original. The list is ordered newest-first by
// creation; updates do not move a record.
type Corrections struct {
	mu   sync.Mutex
	list jsonList[models.Correction]
	opts options
}

// NewCorrections creates a correction repository backed by store.
func NewCorrections(store storage.Provider, logger *slog.Logger, opts ...Option) *Corrections {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Corrections{
		list: jsonList[models.Correction]{store: store, key: CorrectionsKey, logger: logger},
		opts: o,
	}
}

// List returns a snapshot of every stored correction.
func (r *Corrections) List(ctx context.Context) ([]models.Correction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list.load(ctx)
}

// Pairs returns the stored corrections projected for prompt building.
func (r *Corrections) Pairs(ctx context.Context) ([]models.CorrectionPair, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	pairs := make([]models.CorrectionPair, len(items))
	for i, c := range items {
		pairs[i] = c.Pair()
	}
	return pairs, nil
}

// Upsert records that original should be spelled corrected.
//
// An existing record whose original matches case-insensitively keeps its id,
// original and position; only Corrected and CreatedAt change. Otherwise a new
// record is inserted at the front. created reports which path was taken.
func (r *Corrections) Upsert(ctx context.Context, original, corrected string) (c models.Correction, created bool, err error) {
	pair := models.CorrectionPair{Original: original, Corrected: corrected}
	if err := pair.Validate(); err != nil {
		return models.Correction{}, false, fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.list.load(ctx)
	if err != nil {
		return models.Correction{}, false, err
	}

	for i := range items {
		if strings.EqualFold(items[i].Original, original) {
			items[i].Corrected = corrected
			items[i].CreatedAt = r.opts.now()
			if err := r.list.save(ctx, items); err != nil {
				return models.Correction{}, false, err
			}
			return items[i], false, nil
		}
	}

	c = models.Correction{
		ID:        r.opts.newID(),
		Original:  original,
		Corrected: corrected,
		CreatedAt: r.opts.now(),
	}
	items = append([]models.Correction{c}, items...)
	if err := r.list.save(ctx, items); err != nil {
		return models.Correction{}, false, err
	}
	return c, true, nil
}

// Delete removes the correction with the given id and reports whether
// anything was removed.
func (r *Corrections) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.list.load(ctx)
	if err != nil {
		return false, err
	}
	kept := items[:0]
	for _, c := range items {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}
	return true, r.list.save(ctx, kept)
}
