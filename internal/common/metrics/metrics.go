// Package metrics exposes ledger and HTTP counters to Prometheus.
package metrics

import (
	"strings"
	"time"

	apperrors "crowdfunding-ledger-backend/internal/common/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
)

const namespace = "crowdfunding"

// Metrics is safe to use as a nil pointer, every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	operations   *prometheus.CounterVec
	donatedWei   prometheus.Counter
	withdrawnWei prometheus.Counter
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger operations by name and result code.",
		}, []string{"operation", "result"}),
		donatedWei: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donated_wei_total",
			Help:      "Wei accepted into escrow.",
		}),
		withdrawnWei: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawn_wei_total",
			Help:      "Wei released from escrow to campaign owners.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.operations,
		m.donatedWei,
		m.withdrawnWei,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveOperation counts a ledger operation; result is "ok" or the
// lower-cased error code.
func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = strings.ToLower(string(apperrors.CodeOf(err)))
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) AddDonated(wei decimal.Decimal) {
	if m == nil {
		return
	}
	m.donatedWei.Add(wei.InexactFloat64())
}

func (m *Metrics) AddWithdrawn(wei decimal.Decimal) {
	if m == nil {
		return
	}
	m.withdrawnWei.Add(wei.InexactFloat64())
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
