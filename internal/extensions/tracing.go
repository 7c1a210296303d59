package extensions

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/language"
)

// Tracing records OpenTelemetry spans for the phases of an operation and
// one span per field resolution. Phase spans are children of the span in
// the request context; a field span is a child of the span of its parent
// field, or of the execution span for root fields.
type Tracing struct {
	executor.ExtensionBase
	ctx     context.Context
	tracer  trace.Tracer
	parse   trace.Span
	valid   trace.Span
	execute trace.Span
	execCtx context.Context
	fields  map[uint64]trace.Span
}

// NewTracing returns the factory of a Tracing extension using tracer.
func NewTracing(tracer trace.Tracer) executor.ExtensionFactory {
	return func(ctx context.Context) executor.Extension {
		return &Tracing{ctx: ctx, tracer: tracer, fields: map[uint64]trace.Span{}}
	}
}

func (t *Tracing) ParseStart(query string, _ map[string]any) {
	_, t.parse = t.tracer.Start(t.ctx, "graphql.parse",
		trace.WithAttributes(attribute.String("graphql.document", query)))
}

func (t *Tracing) ParseEnd(*language.QueryDocument) {
	t.parse.End()
	t.parse = nil
}

func (t *Tracing) ValidationStart() {
	_, t.valid = t.tracer.Start(t.ctx, "graphql.validate")
}

func (t *Tracing) ValidationEnd() {
	t.valid.End()
	t.valid = nil
}

func (t *Tracing) ExecutionStart() {
	t.execCtx, t.execute = t.tracer.Start(t.ctx, "graphql.execute")
}

func (t *Tracing) ExecutionEnd() {
	for id, span := range t.fields {
		span.End()
		delete(t.fields, id)
	}
	t.execute.End()
	t.execute = nil
}

func (t *Tracing) ResolveStart(info *executor.ResolveInfo) {
	parent := t.execCtx
	if span, ok := t.fields[info.ResolveID.Parent]; ok {
		parent = trace.ContextWithSpan(t.ctx, span)
	}
	_, span := t.tracer.Start(parent, "graphql.resolve "+info.ParentType+"."+info.FieldName,
		trace.WithAttributes(
			attribute.String("graphql.field.path", info.Path.String()),
			attribute.String("graphql.field.parent_type", info.ParentType),
			attribute.String("graphql.field.name", info.FieldName),
			attribute.String("graphql.field.type", info.ReturnType),
		))
	t.fields[info.ResolveID.Current] = span
}

func (t *Tracing) ResolveEnd(info *executor.ResolveInfo) {
	if span, ok := t.fields[info.ResolveID.Current]; ok {
		span.End()
		delete(t.fields, info.ResolveID.Current)
	}
}

// Error records err on the execution span while executing, on the parse
// span when parsing failed, and on the request span otherwise.
func (t *Tracing) Error(err *executor.Error) {
	opts := []trace.EventOption{trace.WithAttributes(attribute.String("graphql.error.kind", err.Kind.String()))}
	if len(err.Path) > 0 {
		opts = append(opts, trace.WithAttributes(attribute.String("graphql.error.path", pathString(err.Path))))
	}
	span := trace.SpanFromContext(t.ctx)
	switch {
	case t.execute != nil:
		span = t.execute
	case t.parse != nil:
		span = t.parse
		defer func() {
			t.parse.End()
			t.parse = nil
		}()
	}
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Message)
}

func pathString(path []any) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		parts[i] = fmt.Sprint(seg)
	}
	return strings.Join(parts, ".")
}
