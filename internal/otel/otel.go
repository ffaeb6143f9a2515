// Package otel wires OpenTelemetry tracing to the event bus: each write
// becomes a span, and skipped-field diagnostics become span events.
package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/normgraph/internal/eventbus"
	events "github.com/hanpama/normgraph/internal/events"
	writeid "github.com/hanpama/normgraph/internal/writeid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("normgraph")}
	sub.register()

	return tp.Shutdown, nil
}

type subscriber struct {
	tracer     trace.Tracer
	writeSpans sync.Map // write id -> trace.Span
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.WriteStart) {
		wid, _ := writeid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "store.write")
		span.SetAttributes(
			attribute.String("graphql.operation.name", e.Operation),
			attribute.String("store.root_key", e.RootKey),
		)
		s.writeSpans.Store(wid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.FieldSkipped) {
		wid, _ := writeid.FromContext(ctx)
		v, ok := s.writeSpans.Load(wid)
		if !ok {
			return
		}
		v.(trace.Span).AddEvent("field.skipped", trace.WithAttributes(
			attribute.String("graphql.type", e.TypeName),
			attribute.String("graphql.field", e.Field),
			attribute.String("reason", e.Reason),
		))
	})

	eventbus.Subscribe(func(ctx context.Context, e events.WriteFinish) {
		wid, _ := writeid.FromContext(ctx)
		v, ok := s.writeSpans.LoadAndDelete(wid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(
			attribute.Int("store.entities_written", e.Entities),
			attribute.Int("store.diagnostics", e.Diagnostics),
		)
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})
}
