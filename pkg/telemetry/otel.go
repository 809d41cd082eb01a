package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ripple-go/ripple/pkg/reactive"
)

// Default tracer name for Ripple runtimes.
const defaultTracerName = "ripple"

// TraceConfig configures the OpenTelemetry observer.
type TraceConfig struct {
	// TracerName is the name of the tracer (default: "ripple").
	TracerName string

	// MinDuration suppresses spans for recomputations and propagation
	// passes shorter than this. Zero traces everything. Task fetch spans
	// are always emitted.
	MinDuration time.Duration

	// Filter determines which nodes to trace by name and kind.
	// Return true to trace the node, false to skip.
	// If nil, all nodes are traced.
	Filter func(name string, kind reactive.NodeKind) bool

	// Attributes are added to every span.
	Attributes []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TraceOption configures the OpenTelemetry observer.
type TraceOption func(*TraceConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TraceOption {
	return func(c *TraceConfig) {
		c.TracerName = name
	}
}

// WithMinDuration sets the minimum duration for recompute and propagation
// spans. Use this to keep hot graphs from flooding the trace backend.
func WithMinDuration(d time.Duration) TraceOption {
	return func(c *TraceConfig) {
		c.MinDuration = d
	}
}

// WithNodeFilter sets a filter function for nodes.
func WithNodeFilter(filter func(name string, kind reactive.NodeKind) bool) TraceOption {
	return func(c *TraceConfig) {
		c.Filter = filter
	}
}

// WithSpanAttributes sets attributes added to every span.
func WithSpanAttributes(attrs ...attribute.KeyValue) TraceOption {
	return func(c *TraceConfig) {
		c.Attributes = attrs
	}
}

// defaultTraceConfig returns the default OpenTelemetry configuration.
func defaultTraceConfig() TraceConfig {
	return TraceConfig{
		TracerName:  defaultTracerName,
		MinDuration: 0,
		Filter:      nil,
	}
}

// Tracer is a reactive.Observer that emits OpenTelemetry spans for graph
// activity. Spans are created retroactively when an event settles, using the
// timestamps the runtime recorded, so the observer holds no per-node state.
//
// Spans emitted:
//   - ripple.recompute: one per derived-node recomputation
//   - ripple.propagation: one per propagation pass
//   - ripple.task_fetch: one per settled task fetch
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before attaching the observer:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	    sdktrace.WithResource(resource.NewWithAttributes(
//	        semconv.SchemaURL,
//	        semconv.ServiceName("my-app"),
//	    )),
//	)
//	otel.SetTracerProvider(tp)
//
//	rt.Observe(telemetry.NewTracer(telemetry.WithMinDuration(time.Millisecond)))
type Tracer struct {
	reactive.NopObserver

	config TraceConfig
}

// NewTracer resolves a tracer from the global provider and returns the
// observer.
func NewTracer(opts ...TraceOption) *Tracer {
	config := defaultTraceConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)
	return &Tracer{config: config}
}

// Recomputed implements reactive.Observer.
func (tr *Tracer) Recomputed(ev reactive.RecomputeEvent) {
	if ev.Duration < tr.config.MinDuration {
		return
	}
	if tr.config.Filter != nil && !tr.config.Filter(ev.Name, ev.Kind) {
		return
	}

	attrs := append([]attribute.KeyValue{
		attribute.Int64("ripple.node_id", int64(ev.NodeID)),
		attribute.String("ripple.node", ev.Name),
		attribute.String("ripple.kind", ev.Kind.String()),
	}, tr.config.Attributes...)

	_, span := tr.config.tracer.Start(
		context.Background(),
		"ripple.recompute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(ev.Start),
	)
	if ev.Err != nil {
		span.RecordError(ev.Err)
		span.SetStatus(codes.Error, ev.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(ev.Start.Add(ev.Duration)))
}

// PropagationEnded implements reactive.Observer.
func (tr *Tracer) PropagationEnded(ev reactive.PropagationEvent) {
	if ev.Duration < tr.config.MinDuration {
		return
	}

	attrs := append([]attribute.KeyValue{
		attribute.Int64("ripple.origin_id", int64(ev.OriginID)),
		attribute.String("ripple.origin", ev.OriginName),
		attribute.Int("ripple.marked", ev.Marked),
		attribute.Int("ripple.eager_runs", ev.EagerRuns),
	}, tr.config.Attributes...)

	_, span := tr.config.tracer.Start(
		context.Background(),
		"ripple.propagation",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(ev.Start),
	)
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(ev.Start.Add(ev.Duration)))
}

// TaskFetchSettled implements reactive.Observer.
func (tr *Tracer) TaskFetchSettled(ev reactive.TaskFetchEvent) {
	if tr.config.Filter != nil && !tr.config.Filter(ev.Name, reactive.KindTask) {
		return
	}

	attrs := append([]attribute.KeyValue{
		attribute.Int64("ripple.node_id", int64(ev.NodeID)),
		attribute.String("ripple.node", ev.Name),
		attribute.Int64("ripple.generation", int64(ev.Generation)),
		attribute.String("ripple.outcome", ev.Outcome.String()),
	}, tr.config.Attributes...)

	_, span := tr.config.tracer.Start(
		context.Background(),
		"ripple.task_fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(ev.Start),
	)
	if ev.Err != nil {
		span.RecordError(ev.Err)
		span.SetStatus(codes.Error, ev.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(ev.Start.Add(ev.Duration)))
}

var _ reactive.Observer = (*Tracer)(nil)
