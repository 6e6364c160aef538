// Package service coordinates the repositories, the extraction pipeline and
// the correction feedback loop behind one API shared by the HTTP and MCP
// surfaces. Every mutation is announced to the event publisher.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/notable/internal/apperr"
	"github.com/starford/notable/internal/feedback"
	"github.com/starford/notable/internal/models"
	"github.com/starford/notable/internal/observe"
	"github.com/starford/notable/internal/pipeline"
	"github.com/starford/notable/internal/repo"
	"github.com/starford/notable/internal/segment"
	"github.com/starford/notable/internal/sse"
)

// Publisher receives change notifications. *sse.Broker implements it.
type Publisher interface {
	Publish(event sse.Event)
	PublishCorrection(eventType string, data any)
	PublishStoreChange(kind, key string, promptChanged bool)
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Corrections *repo.Corrections
	Notes       *repo.Notes
	Pipeline    *pipeline.Pipeline
	Events      Publisher
	Metrics     *observe.Metrics
	Logger      *slog.Logger
}

// Service is the application facade.
type Service struct {
	corrections *repo.Corrections
	notes       *repo.Notes
	pipeline    *pipeline.Pipeline
	feedback    *feedback.Loop
	events      Publisher
	metrics     *observe.Metrics
	logger      *slog.Logger
}

// New creates a Service. Events and Metrics may be nil.
func New(d Deps) *Service {
	events := d.Events
	if events == nil {
		events = nopPublisher{}
	}
	metrics := d.Metrics
	if metrics == nil {
		metrics = observe.Discard()
	}
	return &Service{
		corrections: d.Corrections,
		notes:       d.Notes,
		pipeline:    d.Pipeline,
		feedback:    feedback.New(d.Corrections),
		events:      events,
		metrics:     metrics,
		logger:      d.Logger,
	}
}

// Transcribe runs the full pipeline on one audio clip.
func (s *Service) Transcribe(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	return s.pipeline.Run(ctx, req)
}

// Extract runs extraction on text. corrections overrides the stored list
// when non-nil.
func (s *Service) Extract(ctx context.Context, text string, corrections []models.CorrectionPair) (models.ProperNounsResponse, error) {
	return s.pipeline.ExtractText(ctx, text, corrections)
}

// Segment aligns nouns onto text.
func (s *Service) Segment(text string, nouns []models.ProperNoun) segment.Result {
	return segment.Segment(text, nouns)
}

// Prompt returns the system prompt the next extraction would use.
func (s *Service) Prompt(ctx context.Context) (string, error) {
	return s.pipeline.Prompt(ctx, nil)
}

// ListCorrections returns every stored correction.
func (s *Service) ListCorrections(ctx context.Context) ([]models.Correction, error) {
	return s.corrections.List(ctx)
}

// SaveCorrection upserts a correction and reports whether it was created.
func (s *Service) SaveCorrection(ctx context.Context, original, corrected string) (models.Correction, bool, error) {
	c, created, err := s.corrections.Upsert(ctx, original, corrected)
	if err != nil {
		return models.Correction{}, false, err
	}
	s.correctionSaved(ctx, c, created)
	return c, created, nil
}

// ApplyCorrection runs the feedback loop for one user edit.
func (s *Service) ApplyCorrection(ctx context.Context, e feedback.Edit) (*feedback.Outcome, error) {
	out, err := s.feedback.Apply(ctx, e)
	if err != nil {
		return nil, err
	}
	s.correctionSaved(ctx, out.Correction, out.Created)
	return out, nil
}

func (s *Service) correctionSaved(ctx context.Context, c models.Correction, created bool) {
	s.metrics.RecordCorrection(ctx, created)
	s.events.PublishCorrection(sse.CorrectionSaved, c)
	s.logger.Info("correction saved",
		slog.String("id", c.ID),
		slog.String("original", c.Original),
		slog.String("corrected", c.Corrected),
		slog.Bool("created", created))
}

// DeleteCorrection removes a correction by id.
func (s *Service) DeleteCorrection(ctx context.Context, id string) error {
	removed, err := s.corrections.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: correction %s", apperr.ErrNotFound, id)
	}
	s.events.PublishCorrection(sse.CorrectionDeleted, map[string]string{"id": id})
	return nil
}

// ListNotes returns every stored note.
func (s *Service) ListNotes(ctx context.Context) ([]models.Note, error) {
	return s.notes.List(ctx)
}

// CreateNote stores a finalized transcript.
func (s *Service) CreateNote(ctx context.Context, text string) (models.Note, error) {
	n, err := s.notes.Create(ctx, text)
	if err != nil {
		return models.Note{}, err
	}
	s.events.Publish(sse.Event{Type: sse.NoteCreated, Data: n})
	return n, nil
}

// DeleteNote removes a note by id.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	removed, err := s.notes.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: note %s", apperr.ErrNotFound, id)
	}
	s.events.Publish(sse.Event{Type: sse.NoteDeleted, Data: map[string]string{"id": id}})
	return nil
}

// StoreChanged forwards an external edit of the backing store to clients.
// It has the storage.ChangeCallback signature.
func (s *Service) StoreChanged(kind, key string) {
	s.logger.Info("store changed externally", slog.String("kind", kind), slog.String("key", key))
	s.events.PublishStoreChange(kind, key, key == repo.CorrectionsKey)
}

type nopPublisher struct{}

func (nopPublisher) Publish(sse.Event)                       {}
func (nopPublisher) PublishCorrection(string, any)           {}
func (nopPublisher) PublishStoreChange(string, string, bool) {}
