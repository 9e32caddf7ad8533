package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("generation-metrics")

// GenerationMetrics provides metrics collection for app generation runs
type GenerationMetrics struct {
	runsStartedCounter     metric.Int64Counter
	runsCompletedCounter   metric.Int64Counter
	phaseFailedCounter     metric.Int64Counter
	phaseDurationHistogram metric.Float64Histogram
	runsActiveGauge        metric.Int64UpDownCounter
}

// NewGenerationMetrics creates a new generation metrics collector
func NewGenerationMetrics() (*GenerationMetrics, error) {
	runsStartedCounter, err := meter.Int64Counter(
		"app_foundry.generations.started",
		metric.WithDescription("Total number of generation runs started"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	runsCompletedCounter, err := meter.Int64Counter(
		"app_foundry.generations.completed",
		metric.WithDescription("Total number of generation runs that reached completion"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	phaseFailedCounter, err := meter.Int64Counter(
		"app_foundry.generations.phase_failures",
		metric.WithDescription("Total number of individual phase failures"),
		metric.WithUnit("{phase}"),
	)
	if err != nil {
		return nil, err
	}

	phaseDurationHistogram, err := meter.Float64Histogram(
		"app_foundry.generation.phase_duration",
		metric.WithDescription("Duration of individual generation phases in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runsActiveGauge, err := meter.Int64UpDownCounter(
		"app_foundry.generations.active",
		metric.WithDescription("Number of currently running generations"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	return &GenerationMetrics{
		runsStartedCounter:     runsStartedCounter,
		runsCompletedCounter:   runsCompletedCounter,
		phaseFailedCounter:     phaseFailedCounter,
		phaseDurationHistogram: phaseDurationHistogram,
		runsActiveGauge:        runsActiveGauge,
	}, nil
}

// RecordRunStarted records the start of a generation run
func (gm *GenerationMetrics) RecordRunStarted(ctx context.Context, sessionID string) {
	gm.runsStartedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("session.id", sessionID),
		),
	)
	gm.runsActiveGauge.Add(ctx, 1)
}

// RecordRunCompleted records a run reaching completion, regardless of how
// many phases failed along the way
func (gm *GenerationMetrics) RecordRunCompleted(ctx context.Context, sessionID string, buildSuccess bool, duration time.Duration) {
	gm.runsCompletedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Bool("build.success", buildSuccess),
		),
	)
	gm.runsActiveGauge.Add(ctx, -1)
}

// RecordPhaseCompleted records a successful phase with its duration
func (gm *GenerationMetrics) RecordPhaseCompleted(ctx context.Context, phase string, duration time.Duration) {
	gm.phaseDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("phase", phase),
			attribute.String("status", "completed"),
		),
	)
}

// RecordPhaseFailed records a phase failure
func (gm *GenerationMetrics) RecordPhaseFailed(ctx context.Context, phase string, duration time.Duration) {
	gm.phaseFailedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("phase", phase),
		),
	)
	gm.phaseDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("phase", phase),
			attribute.String("status", "failed"),
		),
	)
}
