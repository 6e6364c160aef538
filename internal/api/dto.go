package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notable/internal/feedback"
	"github.com/starford/notable/internal/models"
	"github.com/starford/notable/internal/pipeline"
	"github.com/starford/notable/internal/segment"
)

// ExtractRequest is the request body for text-only extraction.
// Corrections overrides the stored list when present.
type ExtractRequest struct {
	Text        string                  `json:"text" example:"I met john at gogle"`
	Corrections []models.CorrectionPair `json:"corrections,omitempty"`
}

// Validate checks every supplied correction pair.
func (r *ExtractRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Corrections),
	)
}

// SegmentRequest is the request body for server-side segmentation.
type SegmentRequest struct {
	Text        string              `json:"text" example:"I met john at gogle"`
	ProperNouns []models.ProperNoun `json:"properNouns"`
}

// Validate checks the supplied records.
func (r *SegmentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProperNouns),
	)
}

// SegmentResponse carries the segmentation result: a bare string when
// nothing aligned, otherwise an array of spans.
type SegmentResponse struct {
	Segments segment.Result `json:"segments"`
}

// SaveCorrectionRequest is the request body for upserting a correction.
type SaveCorrectionRequest struct {
	Original  string `json:"original" example:"Blanca" validate:"required"`
	Corrected string `json:"corrected" example:"Bianca" validate:"required"`
}

// Validate requires both fields.
func (r *SaveCorrectionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Original, validation.Required),
		validation.Field(&r.Corrected, validation.Required),
	)
}

// ApplyCorrectionRequest is the request body for the correction feedback loop.
type ApplyCorrectionRequest struct {
	feedback.Edit
}

// Validate requires the edited pair and checks the supplied records.
func (r *ApplyCorrectionRequest) Validate() error {
	return validation.ValidateStruct(&r.Edit,
		validation.Field(&r.Edit.Original, validation.Required),
		validation.Field(&r.Edit.Corrected, validation.Required),
		validation.Field(&r.Edit.Offset, validation.Min(0)),
		validation.Field(&r.Edit.ProperNouns),
	)
}

// CreateNoteRequest is the request body for saving a note.
type CreateNoteRequest struct {
	Text string `json:"text" example:"Met Bianca in Colombia" validate:"required"`
}

// Validate requires non-blank text.
func (r *CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, validation.Required),
	)
}

// CorrectionListResponse wraps the stored corrections.
type CorrectionListResponse struct {
	Corrections []models.Correction `json:"corrections" validate:"required"`
}

// CorrectionResponse is returned after a save.
type CorrectionResponse struct {
	Correction models.Correction `json:"correction" validate:"required"`
	Created    bool              `json:"created"`
}

// NoteListResponse wraps the stored notes.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
}

// PromptResponse carries the current extraction system prompt.
type PromptResponse struct {
	Prompt string `json:"prompt" validate:"required"`
}

// TranscribeResponse is the pipeline output.
type TranscribeResponse = pipeline.Result
