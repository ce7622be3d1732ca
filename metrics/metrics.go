// Package metrics holds the OpenTelemetry instruments recorded by the
// recognition pipeline.
package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "voice-command-recognition"

// Outcomes of a processed utterance.
const (
	OutcomeRecorded     = "recorded"
	OutcomeRecognized   = "recognized"
	OutcomeUnrecognized = "unrecognized"
	OutcomeDropped      = "dropped"
)

type Metrics struct {
	// Triggers counts trigger detector firings.
	Triggers metric.Int64Counter

	// Utterances counts processed utterances. Use with attribute:
	//   attribute.String("outcome", ...)
	Utterances metric.Int64Counter

	// MatchDistance tracks the best DTW distance of each recognition.
	MatchDistance metric.Float64Histogram

	// ProcessingDuration tracks the time from trigger to result.
	ProcessingDuration metric.Float64Histogram
}

var (
	distanceBuckets = []float64{
		250, 500, 1000, 1500, 1750, 2000, 3000, 5000, 10000,
	}

	latencyBuckets = []float64{
		0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
	}
)

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Triggers, err = m.Int64Counter("vcr.triggers",
		metric.WithDescription("Trigger detector firings."),
	); err != nil {
		return nil, err
	}
	if met.Utterances, err = m.Int64Counter("vcr.utterances",
		metric.WithDescription("Processed utterances by outcome."),
	); err != nil {
		return nil, err
	}
	if met.MatchDistance, err = m.Float64Histogram("vcr.match.distance",
		metric.WithDescription("Best DTW distance per recognized utterance."),
		metric.WithExplicitBucketBoundaries(distanceBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ProcessingDuration, err = m.Float64Histogram("vcr.processing.duration",
		metric.WithDescription("Time spent extracting and classifying an utterance."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// Nop returns instruments that record nothing.
func Nop() *Metrics {
	met, _ := NewMetrics(noop.NewMeterProvider())
	return met
}

func (m *Metrics) RecordTrigger(ctx context.Context) {
	m.Triggers.Add(ctx, 1)
}

func (m *Metrics) RecordOutcome(ctx context.Context, outcome string) {
	m.Utterances.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordMatch(ctx context.Context, distance, seconds float64) {
	m.MatchDistance.Record(ctx, distance)
	m.ProcessingDuration.Record(ctx, seconds)
}
