// Package observe provides OpenTelemetry metrics for notable and the HTTP
// middleware that records request latency.
//
// Instruments are created by [NewMetrics] against any meter provider, so
// tests can attach a manual reader. [InitProvider] wires the global provider
// to a Prometheus exporter served on /metrics.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/starford/notable"

// Metrics holds every instrument recorded by the application.
type Metrics struct {
	// TranscriptionDuration tracks speech-to-text latency.
	TranscriptionDuration metric.Float64Histogram

	// ExtractionDuration tracks annotation model latency, including
	// recovery and validation of the reply.
	ExtractionDuration metric.Float64Histogram

	// PipelineRuns counts pipeline runs by status: ok, error, stale.
	PipelineRuns metric.Int64Counter

	// ExtractionFailures counts rejected extractions by kind: transport,
	// extraction, parse, schema.
	ExtractionFailures metric.Int64Counter

	// ProperNouns counts proper nouns returned by successful extractions.
	ProperNouns metric.Int64Counter

	// CorrectionsSaved counts correction upserts by outcome: created, updated.
	CorrectionsSaved metric.Int64Counter

	// HTTPRequestDuration tracks HTTP latency by method, route and status.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets in seconds; model calls sit in the 0.5-10s range.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32,
}

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranscriptionDuration, err = m.Float64Histogram("notable.transcription.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ExtractionDuration, err = m.Float64Histogram("notable.extraction.duration",
		metric.WithDescription("Latency of proper-noun extraction."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PipelineRuns, err = m.Int64Counter("notable.pipeline.runs",
		metric.WithDescription("Pipeline runs by status."),
	); err != nil {
		return nil, err
	}
	if met.ExtractionFailures, err = m.Int64Counter("notable.extraction.failures",
		metric.WithDescription("Failed extractions by kind."),
	); err != nil {
		return nil, err
	}
	if met.ProperNouns, err = m.Int64Counter("notable.extraction.proper_nouns",
		metric.WithDescription("Proper nouns returned by the annotation model."),
	); err != nil {
		return nil, err
	}
	if met.CorrectionsSaved, err = m.Int64Counter("notable.corrections.saved",
		metric.WithDescription("Correction upserts by outcome."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("notable.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// Discard returns instruments that record nothing.
func Discard() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}

// RecordRun counts one finished pipeline run.
func (m *Metrics) RecordRun(ctx context.Context, status string) {
	m.PipelineRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordTranscription records the latency of one transcription.
func (m *Metrics) RecordTranscription(ctx context.Context, d time.Duration) {
	m.TranscriptionDuration.Record(ctx, d.Seconds())
}

// RecordExtraction records the latency and outcome of one extraction.
// kind is empty on success.
func (m *Metrics) RecordExtraction(ctx context.Context, d time.Duration, nouns int, kind string) {
	m.ExtractionDuration.Record(ctx, d.Seconds())
	if kind != "" {
		m.ExtractionFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
		return
	}
	m.ProperNouns.Add(ctx, int64(nouns))
}

// RecordCorrection counts one correction upsert.
func (m *Metrics) RecordCorrection(ctx context.Context, created bool) {
	outcome := "updated"
	if created {
		outcome = "created"
	}
	m.CorrectionsSaved.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
