package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LinesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combatlog_lines_read_total",
		Help: "Total number of combat log lines read by the parser.",
	})

	LinesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combatlog_lines_skipped_total",
		Help: "Total number of lines that were not one of the recognised events.",
	})

	EventsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "combatlog_events_parsed_total",
		Help: "Total number of events persisted, labelled by kind.",
	}, []string{"kind"})

	MatchesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combatlog_matches_ingested_total",
		Help: "Total number of combat logs ingested successfully.",
	})

	IngestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "combatlog_ingest_failures_total",
		Help: "Total number of failed ingestions, labelled by reason.",
	}, []string{"reason"})

	IngestRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combatlog_ingest_rejected_total",
		Help: "Total number of ingestions rejected due to a full queue.",
	})

	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "combatlog_ingest_duration_ms",
		Help:    "Time to parse and persist one combat log in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
	})

	Queries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "combatlog_queries_total",
		Help: "Total number of aggregate queries, labelled by query.",
	}, []string{"query"})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "combatlog_queue_utilization_ratio",
		Help: "Current ingestion queue utilization (0–1).",
	})
)
