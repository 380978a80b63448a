package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Rejection reasons used as the "reason" label.
const (
	ReasonOutOfRange = "out_of_range"
	ReasonInvalid    = "invalid"
	ReasonBookFull   = "book_full"
)

// Metrics holds the engine's process-level counters.
// One set per engine; the zero value is not usable, call New.
type Metrics struct {
	OrdersSubmitted *prometheus.CounterVec
	OrdersRejected  *prometheus.CounterVec
	Trades          prometheus.Counter
	Matches         *prometheus.CounterVec
	LedgerDropped   prometheus.Counter

	processed atomic.Int64
}

// New builds the counter set and registers it on reg.
// A nil reg leaves the counters unregistered (tests, embedded use).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matching",
			Name:      "orders_submitted_total",
			Help:      "Orders accepted into a book, by side.",
		}, []string{"side"}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matching",
			Name:      "orders_rejected_total",
			Help:      "Orders dropped before reaching a book, by reason.",
		}, []string{"reason"}),
		Trades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matching",
			Name:      "trades_total",
			Help:      "Trades appended to the ledger.",
		}),
		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matching",
			Name:      "matches_total",
			Help:      "Matcher invocations, by outcome.",
		}, []string{"outcome"}),
		LedgerDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matching",
			Name:      "ledger_dropped_total",
			Help:      "Settled trades dropped because the ledger was full.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.OrdersSubmitted, m.OrdersRejected, m.Trades, m.Matches, m.LedgerDropped)
	}
	return m
}

// IncOrdersSubmitted counts one accepted order on side.
func (m *Metrics) IncOrdersSubmitted(side string) {
	m.OrdersSubmitted.WithLabelValues(side).Inc()
	m.processed.Add(1)
}

// IncOrdersRejected counts one dropped order.
func (m *Metrics) IncOrdersRejected(reason string) {
	m.OrdersRejected.WithLabelValues(reason).Inc()
	m.processed.Add(1)
}

// ObserveMatch counts one matcher run.
func (m *Metrics) ObserveMatch(outcome string) {
	m.Matches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncTrades() { m.Trades.Inc() }

func (m *Metrics) IncLedgerDropped() { m.LedgerDropped.Inc() }

// OrdersProcessed returns every submit seen so far, accepted or not.
func (m *Metrics) OrdersProcessed() int64 {
	return m.processed.Load()
}
