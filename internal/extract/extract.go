// Package extract asks the annotation model for proper nouns and turns its
// free-form reply into validated records.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/starford/notable/internal/apperr"
	"github.com/starford/notable/internal/models"
	"github.com/starford/notable/internal/prompt"
	"github.com/starford/notable/internal/provider/llm"
)

// snippetLen bounds how much of an unusable reply is quoted in errors.
const snippetLen = 100

// Extractor runs one extraction request per call. It holds no state
// between calls and is safe for concurrent use.
type Extractor struct {
	llm         llm.Provider
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTemperature sets the sampling temperature. Zero leaves the provider
// default.
func WithTemperature(t float64) Option {
	return func(e *Extractor) { e.temperature = t }
}

// New creates an Extractor. maxTokens of zero leaves the provider default.
func New(provider llm.Provider, maxTokens int, logger *slog.Logger, opts ...Option) *Extractor {
	e := &Extractor{llm: provider, maxTokens: maxTokens, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract returns the proper nouns the model finds in transcript, using
// systemPrompt as instructions. A blank transcript yields an empty list
// without contacting the model.
func (e *Extractor) Extract(ctx context.Context, transcript, systemPrompt string) ([]models.ProperNoun, error) {
	if strings.TrimSpace(transcript) == "" {
		return []models.ProperNoun{}, nil
	}

	resp, err := e.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{llm.UserMessage(prompt.UserMessage(transcript))},
		MaxTokens:    e.maxTokens,
		Temperature:  e.temperature,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s", apperr.ErrTransport, err.Error())
	}

	doc, err := Recover(resp.Content)
	if err != nil {
		return nil, err
	}
	out, err := Decode(doc)
	if err != nil {
		e.logger.Warn("extract: rejected model reply",
			slog.String("error", err.Error()),
			slog.String("reply", snippet(resp.Content)))
		return nil, err
	}

	e.logger.Debug("extract: done",
		slog.Int("proper_nouns", len(out.ProperNouns)),
		slog.Int("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int("completion_tokens", resp.Usage.CompletionTokens))
	return out.ProperNouns, nil
}

// Recover returns the span from the first '{' through the last '}' of
// reply, dropping any prose the model wrapped around its JSON.
func Recover(reply string) (string, error) {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON object in reply: %s", apperr.ErrExtraction, snippet(reply))
	}
	return reply[start : end+1], nil
}

// Decode parses doc and validates it against the proper-noun schema.
// Syntax errors are reported as apperr.ErrParse and shape or value errors
// as apperr.ErrSchemaValidation. Unknown fields are ignored.
func Decode(doc string) (models.ProperNounsResponse, error) {
	var raw any
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return models.ProperNounsResponse{}, fmt.Errorf("%w: %s", apperr.ErrParse, err.Error())
	}

	var resp models.ProperNounsResponse
	if err := json.Unmarshal([]byte(doc), &resp); err != nil {
		return models.ProperNounsResponse{}, fmt.Errorf("%w: %s", apperr.ErrSchemaValidation, err.Error())
	}
	if err := requireFields(doc); err != nil {
		return models.ProperNounsResponse{}, err
	}
	if err := resp.Validate(); err != nil {
		return models.ProperNounsResponse{}, fmt.Errorf("%w: %s", apperr.ErrSchemaValidation, err.Error())
	}

	for i := range resp.ProperNouns {
		resp.ProperNouns[i].Corrections = dedupe(resp.ProperNouns[i].Corrections)
	}
	return resp, nil
}

// requireFields rejects explicit nulls that a typed decode would silently
// turn into zero values.
func requireFields(doc string) error {
	var shape struct {
		ProperNouns []map[string]json.RawMessage `json:"properNouns"`
	}
	if err := json.Unmarshal([]byte(doc), &shape); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrSchemaValidation, err.Error())
	}
	for i, rec := range shape.ProperNouns {
		for _, field := range []string{"original", "corrections", "confidence", "type"} {
			v, ok := rec[field]
			if !ok || string(v) == "null" {
				return fmt.Errorf("%w: properNouns[%d]: %s is required", apperr.ErrSchemaValidation, i, field)
			}
		}
		var corrections []json.RawMessage
		if err := json.Unmarshal(rec["corrections"], &corrections); err != nil {
			return fmt.Errorf("%w: properNouns[%d]: corrections: %s", apperr.ErrSchemaValidation, i, err.Error())
		}
		for j, c := range corrections {
			if string(c) == "null" {
				return fmt.Errorf("%w: properNouns[%d]: corrections[%d] must be a string", apperr.ErrSchemaValidation, i, j)
			}
		}
	}
	return nil
}

func dedupe(in []string) []string {
	out := in[:0]
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func snippet(s string) string {
	if len(s) <= snippetLen {
		return s
	}
	cut := snippetLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
