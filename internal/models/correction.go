package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Correction is a durable, user-approved original → corrected mapping.
// CreatedAt is refreshed on every upsert and acts as a last-touched time.
type Correction struct {
	ID        string    `json:"id"`
	Original  string    `json:"original"`
	Corrected string    `json:"corrected"`
	CreatedAt time.Time `json:"createdAt"`
}

// Pair projects the correction onto the shape used for prompt building.
func (c Correction) Pair() CorrectionPair {
	return CorrectionPair{Original: c.Original, Corrected: c.Corrected}
}

// CorrectionPair is the original/corrected pair handed to the extraction
// request builder.
type CorrectionPair struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
}

// Validate requires both sides of the pair.
func (p CorrectionPair) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Original, validation.Required),
		validation.Field(&p.Corrected, validation.Required),
	)
}
