// Package openai provides an STT provider backed by any OpenAI-compatible
// audio transcription endpoint, such as Groq's hosted Whisper.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/starford/notable/internal/provider/stt"
)

// Defaults target Groq's OpenAI-compatible API.
const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "whisper-large-v3"
)

// maxVocabularyPrompt bounds the prompt built from vocabulary hints. Whisper
// only considers the last 224 tokens of a prompt.
const maxVocabularyPrompt = 800

// Provider implements stt.Provider using the audio transcriptions API.
type Provider struct {
	client   oai.Client
	model    string
	language string
}

type config struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	language   string
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithMaxRetries sets the SDK retry budget. Negative keeps the SDK default.
func WithMaxRetries(n int) Option {
	return func(c *config) { c.maxRetries = n }
}

// WithLanguage sets the ISO-639-1 language hint used when a request
// carries none.
func WithLanguage(lang string) Option {
	return func(c *config) { c.language = lang }
}

// New constructs a transcription provider. An empty model selects
// DefaultModel.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("stt/openai: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{baseURL: DefaultBaseURL, maxRetries: -1}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(cfg.baseURL),
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}
	if cfg.maxRetries >= 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(cfg.maxRetries))
	}

	return &Provider{client: oai.NewClient(reqOpts...), model: model, language: cfg.language}, nil
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio) (string, error) {
	if audio.Data == nil {
		return "", fmt.Errorf("stt/openai: audio data is required")
	}
	filename := audio.Filename
	if filename == "" {
		filename = "audio.webm"
	}

	params := oai.AudioTranscriptionNewParams{
		File:  oai.File(audio.Data, filename, audio.ContentType),
		Model: oai.AudioModel(p.model),
	}
	lang := audio.Language
	if lang == "" {
		lang = p.language
	}
	if lang != "" {
		params.Language = param.NewOpt(lang)
	}
	if hint := vocabularyPrompt(audio.Vocabulary); hint != "" {
		params.Prompt = param.NewOpt(hint)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("stt/openai: transcription: %w", err)
	}
	return resp.Text, nil
}

// vocabularyPrompt joins distinct non-empty words into a comma separated
// list no longer than maxVocabularyPrompt bytes.
func vocabularyPrompt(words []string) string {
	seen := make(map[string]struct{}, len(words))
	var b strings.Builder
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		if b.Len()+len(w)+2 > maxVocabularyPrompt {
			break
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(w)
	}
	return b.String()
}
