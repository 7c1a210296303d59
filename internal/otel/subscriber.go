package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/hanpama/graphcore/internal/eventbus"
	"github.com/hanpama/graphcore/internal/events"
	"github.com/hanpama/graphcore/internal/reqid"
)

type subscriber struct {
	tracer    trace.Tracer
	httpSpans sync.Map // rid -> trace.Span
	gqlSpans  sync.Map // rid -> trace.Span
	subSpans  sync.Map // rid -> trace.Span
}

// Subscribe attaches a span subscriber to bus. Spans are correlated by the
// request id of the event context: operation spans are children of the
// HTTP request span. The returned func detaches it.
func Subscribe(bus *eventbus.Bus, tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	unsubs := []func(){
		eventbus.On(bus, s.httpStart),
		eventbus.On(bus, s.httpFinish),
		eventbus.On(bus, s.graphqlStart),
		eventbus.On(bus, s.graphqlFinish),
		eventbus.On(bus, s.subscriptionStart),
		eventbus.On(bus, s.subscriptionEvent),
		eventbus.On(bus, s.subscriptionFinish),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *subscriber) httpStart(ctx context.Context, e events.HTTPStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := s.tracer.Start(ctx, "http.request", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		semconv.HTTPRequestMethodKey.String(e.Request.Method),
		semconv.URLPath(e.Request.URL.Path),
		attribute.String("http.request_id", rid),
	)
	s.httpSpans.Store(rid, span)
}

func (s *subscriber) httpFinish(ctx context.Context, e events.HTTPFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.httpSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(semconv.HTTPResponseStatusCode(e.Status))
	if e.Status >= 500 {
		span.SetStatus(codes.Error, "")
	}
	span.End()
}

// parent returns ctx with the HTTP span of its request, when there is one.
func (s *subscriber) parent(ctx context.Context, rid string) context.Context {
	if v, ok := s.httpSpans.Load(rid); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	return ctx
}

func (s *subscriber) graphqlStart(ctx context.Context, e events.GraphQLStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := s.tracer.Start(s.parent(ctx, rid), "graphql.operation")
	span.SetAttributes(
		semconv.GraphqlOperationName(e.OperationName),
		semconv.GraphqlOperationTypeKey.String(e.OperationType),
	)
	s.gqlSpans.Store(rid, span)
}

func (s *subscriber) graphqlFinish(ctx context.Context, e events.GraphQLFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.gqlSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
	if len(e.Errors) > 0 {
		span.SetStatus(codes.Error, e.Errors[0].Message)
	}
	span.End()
}

func (s *subscriber) subscriptionStart(ctx context.Context, e events.SubscriptionStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := s.tracer.Start(s.parent(ctx, rid), "graphql.subscription")
	span.SetAttributes(
		semconv.GraphqlOperationName(e.OperationName),
		semconv.GraphqlOperationTypeSubscription,
	)
	s.subSpans.Store(rid, span)
}

func (s *subscriber) subscriptionEvent(ctx context.Context, e events.SubscriptionEvent) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.subSpans.Load(rid)
	if !ok {
		return
	}
	v.(trace.Span).AddEvent("graphql.subscription.event", trace.WithAttributes(attribute.Int("graphql.error_count", len(e.Errors))))
}

func (s *subscriber) subscriptionFinish(ctx context.Context, e events.SubscriptionFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.subSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attribute.Int("graphql.subscription.events", e.Events))
	span.End()
}
