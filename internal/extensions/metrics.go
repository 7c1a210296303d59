package extensions

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hanpama/graphcore/internal/executor"
)

// MetricsRecorder holds the instruments shared by the Metrics extensions
// of every operation.
type MetricsRecorder struct {
	operations        metric.Int64Counter
	operationDuration metric.Float64Histogram
	resolveDuration   metric.Float64Histogram
	errors            metric.Int64Counter
	now               func() time.Time
}

// NewMetricsRecorder creates the GraphQL instruments on meter.
func NewMetricsRecorder(meter metric.Meter) (*MetricsRecorder, error) {
	operations, err := meter.Int64Counter(
		"graphql.operations.total",
		metric.WithDescription("Total number of executed GraphQL operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	operationDuration, err := meter.Float64Histogram(
		"graphql.operation.duration",
		metric.WithDescription("Duration of GraphQL operations from parse to end of execution in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation duration histogram: %w", err)
	}

	resolveDuration, err := meter.Float64Histogram(
		"graphql.resolve.duration",
		metric.WithDescription("Duration of field resolutions in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolve duration histogram: %w", err)
	}

	errors, err := meter.Int64Counter(
		"graphql.errors.total",
		metric.WithDescription("Total number of GraphQL errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	return &MetricsRecorder{
		operations:        operations,
		operationDuration: operationDuration,
		resolveDuration:   resolveDuration,
		errors:            errors,
		now:               time.Now,
	}, nil
}

// Factory returns the executor.ExtensionFactory recording on m.
func (m *MetricsRecorder) Factory() executor.ExtensionFactory {
	return func(ctx context.Context) executor.Extension {
		return &Metrics{rec: m, ctx: ctx, pending: map[uint64]time.Time{}}
	}
}

// Metrics records operation counts, operation and field durations and
// errors of one operation.
type Metrics struct {
	executor.ExtensionBase
	rec     *MetricsRecorder
	ctx     context.Context
	start   time.Time
	pending map[uint64]time.Time
}

func (m *Metrics) ParseStart(string, map[string]any) { m.start = m.rec.now() }

func (m *Metrics) ExecutionEnd() {
	m.rec.operations.Add(m.ctx, 1)
	m.rec.operationDuration.Record(m.ctx, milliseconds(m.rec.now().Sub(m.start)))
}

func (m *Metrics) ResolveStart(info *executor.ResolveInfo) {
	m.pending[info.ResolveID.Current] = m.rec.now()
}

func (m *Metrics) ResolveEnd(info *executor.ResolveInfo) {
	started, ok := m.pending[info.ResolveID.Current]
	if !ok {
		return
	}
	delete(m.pending, info.ResolveID.Current)
	m.rec.resolveDuration.Record(m.ctx, milliseconds(m.rec.now().Sub(started)), metric.WithAttributes(
		attribute.String("graphql.field.parent_type", info.ParentType),
		attribute.String("graphql.field.name", info.FieldName),
	))
}

func (m *Metrics) Error(err *executor.Error) {
	m.rec.errors.Add(m.ctx, 1, metric.WithAttributes(attribute.String("graphql.error.kind", err.Kind.String())))
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
