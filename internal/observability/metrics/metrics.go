package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "wastetrack_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	entryWrites       *prometheus.CounterVec
	entryWriteLatency *prometheus.HistogramVec

	snapshotRefreshTotal   *prometheus.CounterVec
	snapshotRefreshLatency *prometheus.HistogramVec

	alertEvaluations prometheus.Counter
	alertsFired      *prometheus.CounterVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	relayNotifications *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		entryWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "entry_writes_total",
				Help: "Total entry store mutations by kind and result",
			},
			[]string{"kind", "result"},
		)
		entryWriteLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "entry_write_latency_seconds",
				Help:    "Entry store mutation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "result"},
		)

		snapshotRefreshTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_refresh_total",
				Help: "Total dashboard snapshot recomputes by trigger and result",
			},
			[]string{"trigger", "result"},
		)
		snapshotRefreshLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "snapshot_refresh_latency_seconds",
				Help:    "Dashboard snapshot recompute latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"trigger", "result"},
		)

		alertEvaluations = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_evaluations_total",
				Help: "Total alert rule evaluation passes",
			},
		)
		alertsFired = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_fired_total",
				Help: "Total fired alerts by rule and severity",
			},
			[]string{"rule", "severity"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report export operations by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		relayNotifications = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "relay_notifications_total",
				Help: "Total change notifications by path",
			},
			[]string{"path"},
		)

		prometheus.MustRegister(
			entryWrites,
			entryWriteLatency,
			snapshotRefreshTotal,
			snapshotRefreshLatency,
			alertEvaluations,
			alertsFired,
			reportExportTotal,
			reportExportLatency,
			relayNotifications,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "kv_documents",
			Help: "Documents in the key-value store",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM kv_store")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "audit_entries",
			Help: "Rows in the audit log",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM audit_log")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}

// ObserveEntryWrite records an entry mutation duration and result.
func ObserveEntryWrite(kind, result string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if entryWrites != nil {
		entryWrites.WithLabelValues(kind, result).Inc()
	}
	if entryWriteLatency != nil {
		entryWriteLatency.WithLabelValues(kind, result).Observe(duration.Seconds())
	}
}

// ObserveSnapshotRefresh records a snapshot recompute duration and result.
func ObserveSnapshotRefresh(trigger, result string, duration time.Duration) {
	if trigger == "" {
		trigger = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if snapshotRefreshTotal != nil {
		snapshotRefreshTotal.WithLabelValues(trigger, result).Inc()
	}
	if snapshotRefreshLatency != nil {
		snapshotRefreshLatency.WithLabelValues(trigger, result).Observe(duration.Seconds())
	}
}

// IncAlertEvaluation increments the evaluation pass counter.
func IncAlertEvaluation() {
	if alertEvaluations != nil {
		alertEvaluations.Inc()
	}
}

// IncAlertFired increments fired alert counters.
func IncAlertFired(rule, severity string) {
	if rule == "" {
		rule = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}
	if alertsFired != nil {
		alertsFired.WithLabelValues(rule, severity).Inc()
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncRelayNotification increments change notification counters.
func IncRelayNotification(path string) {
	if path == "" {
		path = "unknown"
	}
	if relayNotifications != nil {
		relayNotifications.WithLabelValues(path).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
