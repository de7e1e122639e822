package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	tradesTotal         *prometheus.CounterVec
	tradeVolumeGrams    *prometheus.CounterVec
	depositsTotal       *prometheus.CounterVec
	priceTicksTotal     prometheus.Counter
	lastPrice           prometheus.Gauge
	alertsTriggered     prometheus.Counter
	broadcastDropped    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "goldtrader_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "goldtrader_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		tradesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "goldtrader_trades_total",
			Help: "Trades by type and outcome.",
		}, []string{"type", "outcome"}),
		tradeVolumeGrams: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "goldtrader_trade_volume_grams_total",
			Help: "Gold grams traded.",
		}, []string{"type"}),
		depositsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "goldtrader_deposits_total",
			Help: "Deposits by kind and outcome.",
		}, []string{"kind", "outcome"}),
		priceTicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "goldtrader_price_ticks_total",
			Help: "Price ticks recorded.",
		}),
		lastPrice: factory.NewGauge(prometheus.GaugeOpts{
			Name: "goldtrader_last_price_per_gram",
			Help: "Most recent gold price per gram.",
		}),
		alertsTriggered: factory.NewCounter(prometheus.CounterOpts{
			Name: "goldtrader_alerts_triggered_total",
			Help: "Price alerts triggered.",
		}),
		broadcastDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "goldtrader_broadcast_dropped_total",
			Help: "Broadcast events that were not delivered.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveTrade(tradeType, outcome string, grams decimal.Decimal) {
	if m == nil {
		return
	}
	m.tradesTotal.WithLabelValues(tradeType, outcome).Inc()
	if outcome == "ok" {
		m.tradeVolumeGrams.WithLabelValues(tradeType).Add(grams.InexactFloat64())
	}
}

func (m *Metrics) ObserveDeposit(kind, outcome string) {
	if m == nil {
		return
	}
	m.depositsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObservePriceTick(pricePerGram decimal.Decimal) {
	if m == nil {
		return
	}
	m.priceTicksTotal.Inc()
	m.lastPrice.Set(pricePerGram.InexactFloat64())
}

func (m *Metrics) AlertsTriggered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.alertsTriggered.Add(float64(n))
}

func (m *Metrics) BroadcastDropped(kind string) {
	if m == nil {
		return
	}
	m.broadcastDropped.WithLabelValues(kind).Inc()
}

// Middleware records request count and latency labelled by chi route
// pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
