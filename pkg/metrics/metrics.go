package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ventas"

// Resultados de una venta usados como etiqueta.
const (
	ResultCommitted   = "committed"
	ResultReplayed    = "replayed"
	ResultRejected    = "rejected"
	ResultUnavailable = "unavailable"
	ResultError       = "error"
)

// Metrics colectores Prometheus del servicio. Se registran en un Registry propio
// para que cada instancia (y cada test) tenga el suyo.
type Metrics struct {
	registry *prometheus.Registry

	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	Sales       *prometheus.CounterVec
	SaleRetries prometheus.Counter
	SaleAmount  prometheus.Histogram
	Shortages   prometheus.Counter

	OutboxPublished *prometheus.CounterVec
	OutboxFailures  prometheus.Counter
}

// New crea y registra los colectores.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Sales: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_total",
			Help:      "Sale attempts by result.",
		}, []string{"result", "kind"}),
		SaleRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_retries_total",
			Help:      "Sale transactions retried after a transient store failure.",
		}),
		SaleAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_amount",
			Help:      "Committed sale totals.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		Shortages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_shortages_total",
			Help:      "Sales rejected for insufficient stock.",
		}),
		OutboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox events published by topic.",
		}, []string{"topic"}),
		OutboxFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_publish_failures_total",
			Help:      "Outbox batches that failed to publish.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests, m.LatencyMS,
		m.Sales, m.SaleRetries, m.SaleAmount, m.Shortages,
		m.OutboxPublished, m.OutboxFailures,
	)
	return m
}

// Handler expone el registry en formato de texto Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry devuelve el registry subyacente (tests).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
