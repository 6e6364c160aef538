package models

import "time"

// Note is a finalized transcript. Notes are never mutated after creation.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
