package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "finbooks_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	voucherPostTotal   *prometheus.CounterVec
	voucherPostLatency *prometheus.HistogramVec

	settlementTotal   *prometheus.CounterVec
	settlementLatency *prometheus.HistogramVec
	settlementAmount  prometheus.Counter

	reconcileLinkTotal *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route and status class",
			},
			[]string{"route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)

		voucherPostTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "voucher_post_total",
				Help: "Total voucher post and unpost operations by action and result",
			},
			[]string{"action", "result"},
		)
		voucherPostLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "voucher_post_latency_seconds",
				Help:    "Voucher post latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action", "result"},
		)

		settlementTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_execute_total",
				Help: "Total settlement batch executions by result",
			},
			[]string{"result"},
		)
		settlementLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "settlement_execute_latency_seconds",
				Help:    "Settlement batch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		settlementAmount = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_amount_total",
				Help: "Sum of successfully settled amounts",
			},
		)

		reconcileLinkTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_link_total",
				Help: "Total reconciliation link and unlink operations by action",
			},
			[]string{"action"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_export_total",
				Help: "Total statement export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_export_latency_seconds",
				Help:    "Statement export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			voucherPostTotal,
			voucherPostLatency,
			settlementTotal,
			settlementLatency,
			settlementAmount,
			reconcileLinkTotal,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveHTTP records one handled request.
func ObserveHTTP(route, status string, duration time.Duration) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(route, status).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(route).Observe(duration.Seconds())
	}
}

// ObserveVoucherPost records a post or unpost operation.
func ObserveVoucherPost(action, result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if voucherPostTotal != nil {
		voucherPostTotal.WithLabelValues(action, result).Inc()
	}
	if voucherPostLatency != nil {
		voucherPostLatency.WithLabelValues(action, result).Observe(duration.Seconds())
	}
}

// ObserveSettlement records a settlement batch execution.
func ObserveSettlement(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if settlementTotal != nil {
		settlementTotal.WithLabelValues(result).Inc()
	}
	if settlementLatency != nil {
		settlementLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddSettledAmount accumulates the settled total for committed batches.
func AddSettledAmount(amount float64) {
	if amount <= 0 {
		return
	}
	if settlementAmount != nil {
		settlementAmount.Add(amount)
	}
}

// IncReconcileLink counts a link or unlink operation.
func IncReconcileLink(action string) {
	if action == "" {
		action = "unknown"
	}
	if reconcileLinkTotal != nil {
		reconcileLinkTotal.WithLabelValues(action).Inc()
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
