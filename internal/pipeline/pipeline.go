// Package pipeline runs one transcription through speech-to-text, prompt
// building and proper-noun extraction.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/notable/internal/apperr"
	"github.com/starford/notable/internal/extract"
	"github.com/starford/notable/internal/models"
	"github.com/starford/notable/internal/observe"
	"github.com/starford/notable/internal/prompt"
	"github.com/starford/notable/internal/provider/stt"
)

// PairSource supplies the stored corrections used when a request does not
// carry its own.
type PairSource interface {
	Pairs(ctx context.Context) ([]models.CorrectionPair, error)
}

// Request is one pipeline invocation.
type Request struct {
	Audio stt.Audio

	// Corrections overrides the stored corrections when non-nil. An empty,
	// non-nil slice means "no corrections".
	Corrections []models.CorrectionPair

	// Session scopes run superseding. Runs in different sessions never
	// cancel each other. Requests without a session all share the empty
	// session "", so concurrent anonymous runs supersede one another and
	// only the latest returns a result.
	Session string
}

// Result is the pipeline output.
type Result struct {
	Transcription string                     `json:"transcription"`
	ProperNouns   models.ProperNounsResponse `json:"properNouns"`
	RunID         uint64                     `json:"runId"`
}

// Pipeline wires the transcription and annotation ports together.
type Pipeline struct {
	stt        stt.Provider
	extractor  *extract.Extractor
	pairs      PairSource
	basePrompt string
	runs       *Runs
	metrics    *observe.Metrics
	logger     *slog.Logger
}

// New creates a Pipeline. basePrompt of "" selects prompt.Base.
func New(sttProvider stt.Provider, extractor *extract.Extractor, pairs PairSource,
	basePrompt string, metrics *observe.Metrics, logger *slog.Logger) *Pipeline {
	if basePrompt == "" {
		basePrompt = prompt.Base
	}
	if metrics == nil {
		metrics = observe.Discard()
	}
	return &Pipeline{
		stt:        sttProvider,
		extractor:  extractor,
		pairs:      pairs,
		basePrompt: basePrompt,
		runs:       NewRuns(),
		metrics:    metrics,
		logger:     logger,
	}
}

// Prompt returns the system prompt built from pairs, or from the stored
// corrections when pairs is nil.
func (p *Pipeline) Prompt(ctx context.Context, pairs []models.CorrectionPair) (string, error) {
	if pairs == nil {
		stored, err := p.pairs.Pairs(ctx)
		if err != nil {
			return "", err
		}
		pairs = stored
	}
	return prompt.Build(p.basePrompt, pairs), nil
}

// Run transcribes req.Audio and extracts proper nouns from the result.
//
// Beginning a run supersedes any unfinished run of the same session: the
// older run's context is cancelled and it returns apperr.ErrStaleRun.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	id, runCtx := p.runs.Begin(ctx, req.Session)
	res, err := p.run(runCtx, req)
	latest := p.runs.Finish(req.Session, id)

	switch {
	case !latest:
		p.metrics.RecordRun(ctx, "stale")
		p.logger.Info("pipeline: run superseded", slog.Uint64("run_id", id), slog.String("session", req.Session))
		return nil, fmt.Errorf("%w: run %d", apperr.ErrStaleRun, id)
	case err != nil:
		p.metrics.RecordRun(ctx, "error")
		return nil, err
	}
	p.metrics.RecordRun(ctx, "ok")
	res.RunID = id
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, req Request) (*Result, error) {
	pairs := req.Corrections
	if pairs == nil {
		stored, err := p.pairs.Pairs(ctx)
		if err != nil {
			return nil, err
		}
		pairs = stored
	}

	audio := req.Audio
	if audio.Vocabulary == nil {
		for _, pr := range pairs {
			audio.Vocabulary = append(audio.Vocabulary, pr.Corrected)
		}
	}

	start := time.Now()
	text, err := p.stt.Transcribe(ctx, audio)
	p.metrics.RecordTranscription(ctx, time.Since(start))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: transcription: %s", apperr.ErrTransport, err.Error())
	}

	nouns, err := p.extract(ctx, text, prompt.Build(p.basePrompt, pairs))
	if err != nil {
		return nil, err
	}
	return &Result{
		Transcription: text,
		ProperNouns:   models.ProperNounsResponse{ProperNouns: nouns},
	}, nil
}

// ExtractText runs extraction on an existing transcript. corrections
// overrides the stored list when non-nil.
func (p *Pipeline) ExtractText(ctx context.Context, text string, corrections []models.CorrectionPair) (models.ProperNounsResponse, error) {
	sys, err := p.Prompt(ctx, corrections)
	if err != nil {
		return models.ProperNounsResponse{}, err
	}
	nouns, err := p.extract(ctx, text, sys)
	if err != nil {
		return models.ProperNounsResponse{}, err
	}
	return models.ProperNounsResponse{ProperNouns: nouns}, nil
}

func (p *Pipeline) extract(ctx context.Context, text, systemPrompt string) ([]models.ProperNoun, error) {
	start := time.Now()
	nouns, err := p.extractor.Extract(ctx, text, systemPrompt)
	p.metrics.RecordExtraction(ctx, time.Since(start), len(nouns), failureKind(err))
	return nouns, err
}

func failureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperr.ErrTransport):
		return "transport"
	case errors.Is(err, apperr.ErrExtraction):
		return "extraction"
	case errors.Is(err, apperr.ErrParse):
		return "parse"
	case errors.Is(err, apperr.ErrSchemaValidation):
		return "schema"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
