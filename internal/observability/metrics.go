package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for DealerRing. Every engine
// takes a nil-able *Metrics; a nil receiver disables recording, which
// keeps unit tests free of registry setup.
type Metrics struct {
	// --- Order flow ---
	TradesExecuted *prometheus.CounterVec
	Arrivals       *prometheus.CounterVec

	// --- Lifecycle ---
	Rebuckets         *prometheus.CounterVec
	Settlements       *prometheus.CounterVec
	RecoveryRate      prometheus.Histogram
	SettlementPaid    prometheus.Counter
	AnchorAdjustments *prometheus.CounterVec

	// --- Simulation state ---
	CurrentDay  prometheus.Gauge
	LiveTickets prometheus.Gauge
	EventsTotal prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		TradesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dring_trades_executed_total",
			Help: "Executed customer trades",
		}, []string{"bucket", "side", "mode"}),

		Arrivals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dring_arrivals_total",
			Help: "Order-flow arrivals by outcome",
		}, []string{"side", "outcome"}),

		Rebuckets: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dring_rebuckets_total",
			Help: "Tickets crossing a bucket boundary",
		}, []string{"holder", "mode"}),

		Settlements: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dring_settlements_total",
			Help: "Issuer settlements by outcome",
		}, []string{"outcome"}),

		RecoveryRate: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dring_recovery_rate",
			Help:    "Recovery rate per issuer settlement",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 0.99, 1},
		}),

		SettlementPaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dring_settlement_paid_total",
			Help: "Cash paid to holders at settlement",
		}),

		AnchorAdjustments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dring_anchor_adjustments_total",
			Help: "VBT anchor updates after default losses",
		}, []string{"bucket"}),

		CurrentDay: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dring_current_day",
			Help: "Current simulation day",
		}),

		LiveTickets: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dring_live_tickets",
			Help: "Tickets currently in the arena",
		}),

		EventsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dring_events_total",
			Help: "Events appended to the log",
		}),
	}
}
