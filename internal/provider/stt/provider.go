// Package stt defines the Provider interface for speech-to-text backends.
//
// Transcription is a black box here: a whole recorded clip goes in, the
// recognised text comes out.
package stt

import (
	"context"
	"io"
)

// Audio is one recorded clip.
type Audio struct {
	// Data streams the encoded audio bytes (webm, wav, mp3, ...).
	Data io.Reader

	// Filename is passed to the backend, which may infer the format from
	// its extension.
	Filename string

	// ContentType is the MIME type of Data. Optional.
	ContentType string

	// Language is an optional ISO-639-1 hint. Empty lets the backend detect.
	Language string

	// Vocabulary lists spellings the backend should prefer, such as proper
	// nouns the user has already confirmed.
	Vocabulary []string
}

// Provider turns audio into text.
type Provider interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}
