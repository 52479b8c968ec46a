package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	TreeParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orbit_tree_parse_seconds",
		Help:    "Time spent reading and parsing a dependency listing.",
		Buckets: prometheus.DefBuckets,
	})

	TreeNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orbit_tree_nodes",
		Help: "Number of nodes in the current dependency tree.",
	})

	TreeMalformedLinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orbit_tree_malformed_lines_total",
		Help: "Total number of listing lines skipped as malformed.",
	})

	TreeReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orbit_tree_reloads_total",
		Help: "Total number of tree reloads by outcome.",
	}, []string{"outcome"})

	BuildEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orbit_build_events_total",
		Help: "Total number of build events consumed, by kind.",
	}, []string{"kind"})

	BuildActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orbit_build_active",
		Help: "Number of components currently building.",
	})

	BuildCompleted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orbit_build_completed",
		Help: "Number of components finished in the current session.",
	})

	LayoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orbit_layout_seconds",
		Help:    "Time spent computing one draw plan.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orbit_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WriteQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orbit_write_queue_depth",
		Help: "Current number of history records waiting to be persisted.",
	})

	WriteQueueEnqueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orbit_write_queue_enqueued_total",
		Help: "Total number of history records accepted into the in-memory queue.",
	})

	WriteQueueDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orbit_write_queue_dropped_total",
		Help: "Total number of history records dropped due to backpressure.",
	})

	WriteQueueProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orbit_write_queue_processed_total",
		Help: "Total number of history records successfully persisted.",
	})

	WriteQueueApplyErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orbit_write_queue_apply_errors_total",
		Help: "Total number of history batch apply errors.",
	})

	WriteQueueFlushLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orbit_write_queue_flush_seconds",
		Help:    "Latency for applying a history batch.",
		Buckets: prometheus.DefBuckets,
	})
)
