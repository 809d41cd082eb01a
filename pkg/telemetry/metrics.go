package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ripple-go/ripple/pkg/reactive"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "ripple").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for recompute and propagation
	// durations. Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "ripple",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// Metrics is a reactive.Observer that exports graph activity as Prometheus
// metrics. Attach it to a runtime with Runtime.Observe.
//
// Metrics collected:
//   - ripple_nodes_created_total: Counter of node creations by kind
//   - ripple_nodes_disposed_total: Counter of node disposals by kind
//   - ripple_live_nodes: Gauge of live nodes by kind
//   - ripple_writes_total: Counter of source writes by status (applied/noop)
//   - ripple_recomputes_total: Counter of recomputations by kind and status
//   - ripple_recompute_duration_seconds: Histogram of recompute duration by kind
//   - ripple_propagation_duration_seconds: Histogram of full propagation passes
//   - ripple_propagation_marked_nodes: Histogram of nodes marked per pass
//   - ripple_propagation_eager_runs: Histogram of eager runs per pass
//   - ripple_task_fetches_started_total: Counter of task fetches started
//   - ripple_task_fetches_settled_total: Counter of settlements by outcome
//   - ripple_task_fetch_duration_seconds: Histogram of fetch duration
//   - ripple_budget_trips_total: Counter of update-budget violations by kind
//
// Example:
//
//	m := telemetry.NewMetrics(telemetry.WithNamespace("myapp"))
//	rt := reactive.Default()
//	rt.Observe(m)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
type Metrics struct {
	reactive.NopObserver

	nodesCreated        *prometheus.CounterVec
	nodesDisposed       *prometheus.CounterVec
	liveNodes           *prometheus.GaugeVec
	writesTotal         *prometheus.CounterVec
	recomputesTotal     *prometheus.CounterVec
	recomputeDuration   *prometheus.HistogramVec
	propagationDuration prometheus.Histogram
	propagationMarked   prometheus.Histogram
	propagationEager    prometheus.Histogram
	fetchesStarted      prometheus.Counter
	fetchesSettled      *prometheus.CounterVec
	fetchDuration       prometheus.Histogram
	budgetTrips         *prometheus.CounterVec
}

// NewMetrics registers the Ripple metrics with the configured registry and
// returns the observer. Registering twice against the same registry panics,
// the same way promauto does; create one Metrics per registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		nodesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_created_total",
			Help:        "Total number of reactive nodes created",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		nodesDisposed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_disposed_total",
			Help:        "Total number of reactive nodes disposed",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		liveNodes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_nodes",
			Help:        "Number of live reactive nodes",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		writesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "writes_total",
			Help:        "Total number of source writes by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		recomputesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recomputes_total",
			Help:        "Total number of derived-node recomputations",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "status"}),

		recomputeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recompute_duration_seconds",
			Help:        "Recomputation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		propagationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "propagation_duration_seconds",
			Help:        "Full propagation pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		propagationMarked: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "propagation_marked_nodes",
			Help:        "Nodes marked dirty per propagation pass",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000},
		}),

		propagationEager: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "propagation_eager_runs",
			Help:        "Effects and eager memos run per propagation pass",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000},
		}),

		fetchesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "task_fetches_started_total",
			Help:        "Total number of task fetches started",
			ConstLabels: config.ConstLabels,
		}),

		fetchesSettled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "task_fetches_settled_total",
			Help:        "Total number of task fetch settlements by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome", "status"}),

		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "task_fetch_duration_seconds",
			Help:        "Task fetch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		budgetTrips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "budget_trips_total",
			Help:        "Total number of update-budget violations by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}
}

// NodeCreated implements reactive.Observer.
func (m *Metrics) NodeCreated(info reactive.NodeInfo) {
	kind := info.Kind.String()
	m.nodesCreated.WithLabelValues(kind).Inc()
	m.liveNodes.WithLabelValues(kind).Inc()
}

// NodeDisposed implements reactive.Observer.
func (m *Metrics) NodeDisposed(info reactive.NodeInfo) {
	kind := info.Kind.String()
	m.nodesDisposed.WithLabelValues(kind).Inc()
	m.liveNodes.WithLabelValues(kind).Dec()
}

// WriteApplied implements reactive.Observer.
func (m *Metrics) WriteApplied(ev reactive.WriteEvent) {
	status := "applied"
	if !ev.Changed {
		status = "noop"
	}
	m.writesTotal.WithLabelValues(status).Inc()
}

// Recomputed implements reactive.Observer.
func (m *Metrics) Recomputed(ev reactive.RecomputeEvent) {
	kind := ev.Kind.String()
	status := "success"
	if ev.Err != nil {
		status = "error"
	}
	m.recomputesTotal.WithLabelValues(kind, status).Inc()
	m.recomputeDuration.WithLabelValues(kind).Observe(ev.Duration.Seconds())
}

// PropagationEnded implements reactive.Observer.
func (m *Metrics) PropagationEnded(ev reactive.PropagationEvent) {
	m.propagationDuration.Observe(ev.Duration.Seconds())
	m.propagationMarked.Observe(float64(ev.Marked))
	m.propagationEager.Observe(float64(ev.EagerRuns))
}

// TaskFetchStarted implements reactive.Observer.
func (m *Metrics) TaskFetchStarted(reactive.TaskFetchEvent) {
	m.fetchesStarted.Inc()
}

// TaskFetchSettled implements reactive.Observer.
func (m *Metrics) TaskFetchSettled(ev reactive.TaskFetchEvent) {
	status := "success"
	if ev.Err != nil {
		status = "error"
	}
	m.fetchesSettled.WithLabelValues(ev.Outcome.String(), status).Inc()
	m.fetchDuration.Observe(ev.Duration.Seconds())
}

// BudgetExceeded implements reactive.Observer.
func (m *Metrics) BudgetExceeded(ev reactive.BudgetEvent) {
	m.budgetTrips.WithLabelValues(ev.Kind.String()).Inc()
}

var _ reactive.Observer = (*Metrics)(nil)
