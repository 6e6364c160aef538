// Package models defines the domain types for notable.
package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Confidence is the model's certainty that a proper noun needs attention.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// NounType classifies a proper noun.
type NounType string

const (
	TypePerson  NounType = "person"
	TypePlace   NounType = "place"
	TypeCompany NounType = "company"
	TypeBrand   NounType = "brand"
	TypeOther   NounType = "other"
)

// ProperNoun is one candidate proper noun detected in a transcript.
// Original is the surface form as the model claims it appears in the text;
// Corrections holds alternative spellings and may be empty.
type ProperNoun struct {
	Original    string     `json:"original"`
	Corrections []string   `json:"corrections"`
	Confidence  Confidence `json:"confidence"`
	Type        NounType   `json:"type"`
}

// Validate checks field presence and enum membership.
func (p ProperNoun) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Original, validation.Required),
		validation.Field(&p.Corrections, validation.NotNil),
		validation.Field(&p.Confidence, validation.Required,
			validation.In(ConfidenceHigh, ConfidenceMedium, ConfidenceLow)),
		validation.Field(&p.Type, validation.Required,
			validation.In(TypePerson, TypePlace, TypeCompany, TypeBrand, TypeOther)),
	)
}

// Clone returns a deep copy of p.
func (p ProperNoun) Clone() ProperNoun {
	out := p
	out.Corrections = append([]string{}, p.Corrections...)
	return out
}

// ProperNounsResponse is the document the annotation model is asked to return.
type ProperNounsResponse struct {
	ProperNouns []ProperNoun `json:"properNouns"`
}

// Validate checks the envelope and every record in it.
func (r ProperNounsResponse) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProperNouns, validation.NotNil),
	)
}
