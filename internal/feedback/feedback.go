// Package feedback binds an in-place correction of a highlighted proper noun
// to the correction repository, so the choice shapes later extractions.
package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/notable/internal/apperr"
	"github.com/starford/notable/internal/models"
	"github.com/starford/notable/internal/segment"
)

// CorrectionStore is the subset of repo.Corrections the loop needs.
type CorrectionStore interface {
	Upsert(ctx context.Context, original, corrected string) (models.Correction, bool, error)
}

// Edit describes one user correction against the working text.
type Edit struct {
	// Text is the current working transcript.
	Text string `json:"text"`
	// Original is the surface form being replaced.
	Original string `json:"original"`
	// Corrected is the replacement the user picked or typed.
	Corrected string `json:"corrected"`
	// Offset is the byte offset of the span being edited, when known.
	Offset *int `json:"offset,omitempty"`
	// ProperNouns is the current extraction result used to re-segment.
	ProperNouns []models.ProperNoun `json:"properNouns"`
}

// Outcome is the result of applying an Edit.
type Outcome struct {
	Text       string            `json:"text"`
	Correction models.Correction `json:"correction"`
	Created    bool              `json:"created"`
	Segments   segment.Result    `json:"segments"`
}

// Loop applies edits and records them as corrections.
type Loop struct {
	store CorrectionStore
}

// New creates a Loop writing to store.
func New(store CorrectionStore) *Loop {
	return &Loop{store: store}
}

// Apply replaces one occurrence of e.Original in e.Text with e.Corrected,
// upserts the correction and re-segments the new text. The occurrence is
// the one at e.Offset when it matches there, otherwise the first exact
// occurrence, otherwise the first case-insensitive one. The correction is
// stored even when the text does not contain e.Original.
func (l *Loop) Apply(ctx context.Context, e Edit) (*Outcome, error) {
	e.Original = strings.TrimSpace(e.Original)
	e.Corrected = strings.TrimSpace(e.Corrected)
	if e.Original == "" || e.Corrected == "" {
		return nil, fmt.Errorf("%w: original and corrected are required", apperr.ErrInvalidInput)
	}

	text := Replace(e.Text, e.Original, e.Corrected, e.Offset)

	c, created, err := l.store.Upsert(ctx, e.Original, e.Corrected)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Text:       text,
		Correction: c,
		Created:    created,
		Segments:   segment.Segment(text, e.ProperNouns),
	}, nil
}

// Replace substitutes a single occurrence of original in text. See Apply
// for how the occurrence is chosen. Text without a match is returned as is.
func Replace(text, original, corrected string, offset *int) string {
	at := -1
	if offset != nil {
		o := *offset
		if o >= 0 && o+len(original) <= len(text) && strings.EqualFold(text[o:o+len(original)], original) {
			at = o
		}
	}
	if at < 0 {
		at = strings.Index(text, original)
	}
	if at < 0 {
		at = segment.IndexFold(text, original)
	}
	if at < 0 {
		return text
	}
	return text[:at] + corrected + text[at+len(original):]
}
