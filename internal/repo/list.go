// Package repo implements the correction and note repositories on top of a
// storage.Provider. Each repository owns one JSON array under a fixed key and
// hands out copies only.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/notable/internal/apperr"
	"github.com/starford/notable/internal/storage"
)

// Fixed logical keys of the persisted lists.
const (
	CorrectionsKey = "notable-corrections"
	NotesKey       = "notable-notes"
)

// Option customises a repository.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

func defaultOptions() options {
	return options{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides the id source for new records.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// jsonList reads and writes a JSON array of T under one key.
type jsonList[T any] struct {
	store  storage.Provider
	key    string
	logger *slog.Logger
}

// load returns the stored items. A missing key or an unparsable document
// yields an empty list; only a failing store is reported as an error.
func (l *jsonList[T]) load(ctx context.Context) ([]T, error) {
	data, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("repo: load %s: %w", l.key, err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		l.logger.Warn("repo: corrupt list treated as empty",
			slog.String("key", l.key),
			slog.String("error", err.Error()))
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (l *jsonList[T]) save(ctx context.Context, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("repo: marshal %s: %w", l.key, err)
	}
	if err := l.store.Set(ctx, l.key, data); err != nil {
		return fmt.Errorf("repo: save %s: %w", l.key, err)
	}
	return nil
}
