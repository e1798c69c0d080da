package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// -----------------------------------------------------------------------------
// Prometheus Metrics
// -----------------------------------------------------------------------------

// Metrics bundles every counter the engine and its timer loops touch.
type Metrics struct {
	PollPasses     prometheus.Counter
	StockChecks    prometheus.Counter
	Transitions    prometheus.Counter
	AlertsSent     prometheus.Counter
	Reservations   *prometheus.CounterVec
	TokenRefreshes *prometheus.CounterVec
	CartExtensions prometheus.Counter
	CheckErrors    *prometheus.CounterVec
	WatchedCount   prometheus.Gauge
}

// -----------------------------------------------------------------------------

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PollPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lounge_poll_passes_total",
			Help: "Completed monitor poll passes.",
		}),
		StockChecks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lounge_stock_checks_total",
			Help: "Per-product stock checks performed.",
		}),
		Transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lounge_stock_transitions_total",
			Help: "Out-of-stock to in-stock transitions detected.",
		}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lounge_alerts_sent_total",
			Help: "Stock alerts dispatched to the notification channel.",
		}),
		Reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lounge_reservation_attempts_total",
			Help: "Cart reservation attempts by outcome.",
		}, []string{"outcome"}),
		TokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lounge_token_refreshes_total",
			Help: "Automatic token refresh attempts by outcome.",
		}, []string{"outcome"}),
		CartExtensions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lounge_cart_extensions_total",
			Help: "Successful cart reservation extensions.",
		}),
		CheckErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lounge_check_errors_total",
			Help: "Stock check failures by error type.",
		}, []string{"type"}),
		WatchedCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lounge_watched_products",
			Help: "Products currently watched.",
		}),
	}
	reg.MustRegister(
		m.PollPasses,
		m.StockChecks,
		m.Transitions,
		m.AlertsSent,
		m.Reservations,
		m.TokenRefreshes,
		m.CartExtensions,
		m.CheckErrors,
		m.WatchedCount,
	)
	return m
}
