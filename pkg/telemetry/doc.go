// Package telemetry provides production-grade observability for Ripple
// runtimes.
//
// This package includes:
//   - Prometheus metrics observer
//   - OpenTelemetry tracing observer
//
// Both are implementations of reactive.Observer; attach them with
// Runtime.Observe and detach with Runtime.Unobserve.
//
// # Prometheus Metrics
//
// The Metrics observer exports graph activity as Prometheus metrics:
//   - ripple_live_nodes: Current number of live nodes by kind
//   - ripple_writes_total: Source writes by applied/noop status
//   - ripple_recompute_duration_seconds: Recomputation duration histogram
//   - ripple_propagation_duration_seconds: Propagation pass duration histogram
//   - ripple_task_fetches_settled_total: Task fetch settlements by outcome
//   - ripple_budget_trips_total: Update-budget violations by kind
//
//	rt := reactive.Default()
//	rt.Observe(telemetry.NewMetrics())
//
// Then expose metrics on a separate port:
//
//	http.Handle("/metrics", promhttp.Handler())
//	go http.ListenAndServe(":9090", nil)
//
// # OpenTelemetry Tracing
//
// The Tracer observer emits a span per recomputation, propagation pass, and
// settled task fetch. Spans carry node names, kinds, and fetch outcomes, and
// use the timestamps the runtime recorded, so slow computations show up with
// their true durations.
//
//	rt.Observe(telemetry.NewTracer(
//	    telemetry.WithTracerName("my-app"),
//	    telemetry.WithMinDuration(time.Millisecond),
//	))
//
// Observer callbacks run synchronously on the goroutine that produced the
// event. Both observers only update in-memory counters or hand spans to the
// SDK's batcher, so the overhead per event is small; use WithMinDuration to
// thin out trace volume on hot graphs.
package telemetry
