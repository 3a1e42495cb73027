// Package internal contains shared telemetry utilities for the stages.
package internal

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/FerroO2000/filo"

// Telemetry bundles the logger, meter and tracer of a single stage.
// Every log record, metric and trace carries the stage kind and name.
type Telemetry struct {
	stageKind string
	stageName string

	logger *slog.Logger
	meter  metric.Meter
	tracer trace.Tracer
}

// NewTelemetry returns the telemetry for the given stage.
func NewTelemetry(stageKind, stageName string) *Telemetry {
	return &Telemetry{
		stageKind: stageKind,
		stageName: stageName,

		logger: slog.Default().With("stage", stageKind, "name", stageName),
		meter:  otel.Meter(scopeName),
		tracer: otel.Tracer(scopeName),
	}
}

// LogInfo logs an info message.
func (t *Telemetry) LogInfo(msg string, args ...any) {
	t.logger.Info(msg, args...)
}

// LogWarn logs a warning message.
func (t *Telemetry) LogWarn(msg string, args ...any) {
	t.logger.Warn(msg, args...)
}

// LogError logs an error message.
func (t *Telemetry) LogError(msg string, err error, args ...any) {
	t.logger.Error(msg, append([]any{"error", err}, args...)...)
}

func (t *Telemetry) metricName(name string) string {
	return t.stageKind + "_" + t.stageName + "_" + name
}

func (t *Telemetry) metricAttrs() metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("stage", t.stageKind),
		attribute.String("name", t.stageName),
	)
}

// NewCounter registers a monotonic counter observed through the given callback.
func (t *Telemetry) NewCounter(name string, callback func() int64) {
	attrs := t.metricAttrs()

	_, err := t.meter.Int64ObservableCounter(t.metricName(name),
		metric.WithInt64Callback(func(_ context.Context, obs metric.Int64Observer) error {
			obs.Observe(callback(), attrs)
			return nil
		}),
	)

	if err != nil {
		t.LogError("failed to register counter", err, "metric", name)
	}
}

// NewUpDownCounter registers a non-monotonic counter observed through the given callback.
func (t *Telemetry) NewUpDownCounter(name string, callback func() int64) {
	attrs := t.metricAttrs()

	_, err := t.meter.Int64ObservableUpDownCounter(t.metricName(name),
		metric.WithInt64Callback(func(_ context.Context, obs metric.Int64Observer) error {
			obs.Observe(callback(), attrs)
			return nil
		}),
	)

	if err != nil {
		t.LogError("failed to register up/down counter", err, "metric", name)
	}
}

// NewTrace starts a new span.
func (t *Telemetry) NewTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name)
}
