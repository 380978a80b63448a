package engine

import "github.com/2019UGEC100/matching-engine-go/pkg/model"

// Outcome describes what a single matcher run did.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeMatched
	OutcomeNoSell     // no active sell order
	OutcomeNoCross    // no active buy at or above the best ask
	OutcomeStale      // candidates changed between scan and re-check
	OutcomeRaceLost   // another run claimed one of the candidates first
	OutcomeLedgerFull // pair settled but the trade could not be recorded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeNoSell:
		return "no_sell"
	case OutcomeNoCross:
		return "no_cross"
	case OutcomeStale:
		return "stale"
	case OutcomeRaceLost:
		return "race_lost"
	case OutcomeLedgerFull:
		return "ledger_full"
	}
	return "none"
}

// MatchResult is the result of one Match call.
type MatchResult struct {
	Outcome Outcome
	Trade   *model.Trade // set only for OutcomeMatched
}

// Matcher settles at most one crossing pair per call, recording it in ledger.
type Matcher struct {
	ledger *TradeLedger
}

func NewMatcher(ledger *TradeLedger) *Matcher {
	return &Matcher{ledger: ledger}
}

// Match scans book for the lowest active ask and the highest active bid
// crossing it, and settles that pair. Ties go to the lower slot index.
func (m *Matcher) Match(book *SecurityBook) MatchResult {
	sell := m.bestSell(book)
	if sell == nil {
		return MatchResult{Outcome: OutcomeNoSell}
	}

	buy := m.bestBuy(book, sell.Price)
	if buy == nil {
		return MatchResult{Outcome: OutcomeNoCross}
	}

	// re-check; a concurrent run may have settled either side since the scan
	if !sell.IsActive() || !buy.IsActive() || buy.Price < sell.Price {
		return MatchResult{Outcome: OutcomeStale}
	}

	if !sell.TryClaim() {
		return MatchResult{Outcome: OutcomeRaceLost}
	}
	if !buy.TryClaim() {
		sell.Release()
		return MatchResult{Outcome: OutcomeRaceLost}
	}

	// both claimed: this is the point the pair is committed
	sell.Settle()
	buy.Settle()

	tr := model.NewTrade(buy, sell)
	if _, err := m.ledger.Append(tr); err != nil {
		// orders stay closed; the trade is dropped, not retried
		return MatchResult{Outcome: OutcomeLedgerFull, Trade: &tr}
	}
	return MatchResult{Outcome: OutcomeMatched, Trade: &tr}
}

// bestSell returns the active sell with the minimum price, earliest slot first.
func (m *Matcher) bestSell(book *SecurityBook) *model.Order {
	var best *model.Order
	n := book.SnapshotCount(model.SELL)
	for i := 0; i < n; i++ {
		o, ok := book.Read(model.SELL, i)
		if !ok || !o.IsActive() {
			continue
		}
		if best == nil || o.Price < best.Price {
			best = o
		}
	}
	return best
}

// bestBuy returns the active buy with the maximum price >= floor, earliest slot first.
func (m *Matcher) bestBuy(book *SecurityBook, floor float64) *model.Order {
	var best *model.Order
	n := book.SnapshotCount(model.BUY)
	for i := 0; i < n; i++ {
		o, ok := book.Read(model.BUY, i)
		if !ok || !o.IsActive() || o.Price < floor {
			continue
		}
		if best == nil || o.Price > best.Price {
			best = o
		}
	}
	return best
}
