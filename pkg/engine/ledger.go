package engine

import (
	"errors"
	"sync/atomic"

	"github.com/2019UGEC100/matching-engine-go/pkg/model"
)

// ErrLedgerFull is returned when the trade ledger has reached capacity.
var ErrLedgerFull = errors.New("trade ledger is full")

// TradeLedger is a bounded, append-only record of settled trades shared
// by every security.
type TradeLedger struct {
	trades []atomic.Pointer[model.Trade]
	count  atomic.Int64
}

func NewTradeLedger(capacity int) *TradeLedger {
	return &TradeLedger{trades: make([]atomic.Pointer[model.Trade], capacity)}
}

// Append stores tr and returns its index. On overflow the trade is dropped.
func (l *TradeLedger) Append(tr model.Trade) (int, error) {
	idx := l.count.Add(1) - 1
	if idx >= int64(len(l.trades)) {
		l.count.Add(-1)
		return -1, ErrLedgerFull
	}
	l.trades[idx].Store(&tr)
	return int(idx), nil
}

// Len is the occupancy at the instant of the call.
func (l *TradeLedger) Len() int {
	n := l.count.Load()
	if c := int64(len(l.trades)); n > c {
		return int(c)
	}
	return int(n)
}

// Snapshot copies the trades stored at call time, in append order.
// Trades appended afterwards are not included.
func (l *TradeLedger) Snapshot() []model.Trade {
	n := l.Len()
	out := make([]model.Trade, 0, n)
	for i := 0; i < n; i++ {
		// reserved but not yet written
		if tr := l.trades[i].Load(); tr != nil {
			out = append(out, *tr)
		}
	}
	return out
}
