package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/glintui/glint/pkg/reactive"
)

// MetricsConfig configures the Prometheus runtime metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "glint").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush, effect and recompute
	// durations. Reactive work is usually sub-millisecond, so the default
	// ladder runs from 1µs to ~260ms.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus runtime metrics.
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
		Namespace:   "glint",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 10),
		Registry:    prometheus.DefaultRegisterer,
	}
}

// RuntimeMetrics holds the Prometheus collectors for one registry. Counters
// only move while the instance is installed; the live-node gauges are read
// from the runtime on every scrape regardless.
type RuntimeMetrics struct {
	writesTotal       prometheus.Counter
	recomputesTotal   *prometheus.CounterVec
	effectRunsTotal   *prometheus.CounterVec
	flushesTotal      prometheus.Counter
	cyclesTotal       prometheus.Counter
	panicsTotal       prometheus.Counter
	recomputeDuration prometheus.Histogram
	effectDuration    prometheus.Histogram
	flushDuration     prometheus.Histogram
	flushSize         prometheus.Histogram
}

// Metrics creates Prometheus collectors for the reactive runtime and
// registers them with the configured registry. Call Install on the result
// to start feeding them.
//
// Metrics collected:
//   - glint_signal_writes_total: Counter of signal writes that passed the equality gate
//   - glint_memo_recomputes_total: Counter of memo recomputations by outcome (ok, error)
//   - glint_effect_runs_total: Counter of effect executions by outcome (ok, panic)
//   - glint_batch_flushes_total: Counter of effect queue flushes
//   - glint_cycles_detected_total: Counter of circular-dependency reports
//   - glint_recovered_panics_total: Counter of panics recovered from memos and effects
//   - glint_recompute_duration_seconds: Histogram of memo evaluator duration
//   - glint_effect_duration_seconds: Histogram of effect body duration
//   - glint_flush_duration_seconds: Histogram of flush duration
//   - glint_flush_effects: Histogram of effects run per flush
//   - glint_live_nodes: Gauge of live nodes by kind, from runtime stats
//   - glint_nodes_created_total: Counter of nodes created by kind, from runtime stats
//
// Each call registers a fresh set of collectors, so use one RuntimeMetrics
// per registry.
//
// Example:
//
//	m := telemetry.Metrics(telemetry.WithNamespace("myapp"))
//	remove := m.Install()
//	defer remove()
//
//	http.Handle("/metrics", promhttp.Handler())
func Metrics(opts ...MetricsOption) *RuntimeMetrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	m := &RuntimeMetrics{
		writesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "signal_writes_total",
			Help:        "Total number of signal writes that passed the equality gate",
			ConstLabels: config.ConstLabels,
		}),

		recomputesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "memo_recomputes_total",
			Help:        "Total number of memo recomputations by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		effectRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of effect executions by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_flushes_total",
			Help:        "Total number of effect queue flushes",
			ConstLabels: config.ConstLabels,
		}),

		cyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycles_detected_total",
			Help:        "Total number of circular-dependency reports",
			ConstLabels: config.ConstLabels,
		}),

		panicsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recovered_panics_total",
			Help:        "Total number of panics recovered from memo evaluators and effect bodies",
			ConstLabels: config.ConstLabels,
		}),

		recomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recompute_duration_seconds",
			Help:        "Memo evaluator duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		effectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_duration_seconds",
			Help:        "Effect body duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Effect queue flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		flushSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_effects",
			Help:        "Number of effects run per flush",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}

	if config.Registry != nil {
		config.Registry.MustRegister(newStatsCollector(config))
	}

	return m
}

// Install attaches the collectors to the runtime's instrumentation hooks.
// The returned function detaches them; counters keep their values.
func (m *RuntimeMetrics) Install() func() {
	return reactive.AddHooks(&reactive.Hooks{
		SignalWrite: func(uint64, string) {
			m.writesTotal.Inc()
		},
		MemoRecompute: func(_ uint64, _ string, d time.Duration, errored bool) {
			outcome := "ok"
			if errored {
				outcome = "error"
				m.panicsTotal.Inc()
			}
			m.recomputesTotal.WithLabelValues(outcome).Inc()
			m.recomputeDuration.Observe(d.Seconds())
		},
		EffectRun: func(_ uint64, _ string, d time.Duration, panicked bool) {
			outcome := "ok"
			if panicked {
				outcome = "panic"
				m.panicsTotal.Inc()
			}
			m.effectRunsTotal.WithLabelValues(outcome).Inc()
			m.effectDuration.Observe(d.Seconds())
		},
		BatchFlush: func(effects int, d time.Duration) {
			m.flushesTotal.Inc()
			m.flushDuration.Observe(d.Seconds())
			m.flushSize.Observe(float64(effects))
		},
		CycleDetected: func(uint64, string) {
			m.cyclesTotal.Inc()
		},
	})
}

// statsCollector exports point-in-time node counts from reactive.Stats() on
// every scrape. Unlike the hook-fed counters above, these reflect all
// activity since process start.
type statsCollector struct {
	liveNodes    *prometheus.Desc
	nodesCreated *prometheus.Desc
}

func newStatsCollector(config MetricsConfig) *statsCollector {
	return &statsCollector{
		liveNodes: prometheus.NewDesc(
			prometheus.BuildFQName(config.Namespace, config.Subsystem, "live_nodes"),
			"Live reactive nodes by kind",
			[]string{"kind"}, config.ConstLabels,
		),
		nodesCreated: prometheus.NewDesc(
			prometheus.BuildFQName(config.Namespace, config.Subsystem, "nodes_created_total"),
			"Reactive nodes created since process start, by kind",
			[]string{"kind"}, config.ConstLabels,
		),
	}
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.liveNodes
	ch <- c.nodesCreated
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	s := reactive.Stats()

	ch <- prometheus.MustNewConstMetric(c.liveNodes, prometheus.GaugeValue, float64(s.LiveMemos), "memo")
	ch <- prometheus.MustNewConstMetric(c.liveNodes, prometheus.GaugeValue, float64(s.LiveEffects), "effect")
	ch <- prometheus.MustNewConstMetric(c.liveNodes, prometheus.GaugeValue, float64(s.LiveOwners), "owner")

	ch <- prometheus.MustNewConstMetric(c.nodesCreated, prometheus.CounterValue, float64(s.SignalsCreated), "signal")
	ch <- prometheus.MustNewConstMetric(c.nodesCreated, prometheus.CounterValue, float64(s.MemosCreated), "memo")
	ch <- prometheus.MustNewConstMetric(c.nodesCreated, prometheus.CounterValue, float64(s.EffectsCreated), "effect")
	ch <- prometheus.MustNewConstMetric(c.nodesCreated, prometheus.CounterValue, float64(s.OwnersCreated), "owner")
}
