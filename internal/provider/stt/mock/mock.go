// Package mock provides a test double for the stt.Provider interface.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/starford/notable/internal/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	Ctx   context.Context
	Audio stt.Audio
	// Data is everything read from Audio.Data.
	Data []byte
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Text is returned by Transcribe.
	Text string

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// TranscribeFunc, if set, takes precedence over Text and Err.
	TranscribeFunc func(ctx context.Context, audio stt.Audio) (string, error)

	// Calls records every invocation of Transcribe in order.
	Calls []TranscribeCall
}

// Transcribe drains the audio, records the call and returns the configured
// result.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio) (string, error) {
	var data []byte
	if audio.Data != nil {
		data, _ = io.ReadAll(audio.Data)
	}

	p.mu.Lock()
	p.Calls = append(p.Calls, TranscribeCall{Ctx: ctx, Audio: audio, Data: data})
	fn, text, err := p.TranscribeFunc, p.Text, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, audio)
	}
	return text, err
}

// CallCount returns the number of Transcribe invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
