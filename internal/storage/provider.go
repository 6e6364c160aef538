// Package storage defines the key-value port behind the correction and note
// repositories, plus its memory, file, SQLite and Redis implementations.
package storage

import (
	"context"
	"fmt"
	"regexp"
)

// Provider is a minimal key-value store. Values are opaque byte slices; the
// repositories keep one JSON document per key.
type Provider interface {
	// Get returns the value stored under key. A missing key yields
	// apperr.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Close releases any underlying connection.
	Close() error
}

var keyRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// validKey rejects keys that could not be used verbatim as a file name,
// table key or redis key suffix.
func validKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	return nil
}
