package engine

import (
	"testing"

	"github.com/2019UGEC100/matching-engine-go/pkg/model"
)

func newTestMatcher(perSide, trades int) (*Matcher, *SecurityBook, *TradeLedger) {
	l := NewTradeLedger(trades)
	return NewMatcher(l), NewSecurityBook(1, perSide), l
}

func TestMatchNoSell(t *testing.T) {
	m, b, l := newTestMatcher(8, 8)
	place(t, b, newOrder(model.BUY, 1, 10, 100))

	if res := m.Match(b); res.Outcome != OutcomeNoSell {
		t.Fatalf("expected no_sell, got %s", res.Outcome)
	}
	if l.Len() != 0 {
		t.Fatalf("expected empty ledger")
	}
}

func TestMatchNoCross(t *testing.T) {
	m, b, _ := newTestMatcher(8, 8)
	place(t, b, newOrder(model.SELL, 1, 10, 100))
	place(t, b, newOrder(model.BUY, 1, 10, 99.99))

	if res := m.Match(b); res.Outcome != OutcomeNoCross {
		t.Fatalf("expected no_cross, got %s", res.Outcome)
	}
}

func TestMatchPricesAndQuantity(t *testing.T) {
	m, b, l := newTestMatcher(8, 8)
	sell := newOrder(model.SELL, 1, 30, 100)
	buy := newOrder(model.BUY, 1, 50, 110)
	place(t, b, sell)
	place(t, b, buy)

	res := m.Match(b)
	if res.Outcome != OutcomeMatched {
		t.Fatalf("expected match, got %s", res.Outcome)
	}
	tr := res.Trade
	if tr.Price != 100 || tr.Quantity != 30 {
		t.Fatalf("expected trade at sell price 100 for qty 30, got %+v", tr)
	}
	if sell.IsActive() || buy.IsActive() {
		t.Fatalf("both orders should be closed, no remainder rests")
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 trade in ledger, got %d", l.Len())
	}

	// nothing left to cross
	if res := m.Match(b); res.Outcome != OutcomeNoSell {
		t.Fatalf("expected no_sell after settlement, got %s", res.Outcome)
	}
}

func TestMatchTieBreaksByEarliestSlot(t *testing.T) {
	m, b, _ := newTestMatcher(8, 8)
	s1 := newOrder(model.SELL, 1, 10, 100)
	s2 := newOrder(model.SELL, 1, 10, 100)
	b1 := newOrder(model.BUY, 1, 10, 105)
	b2 := newOrder(model.BUY, 1, 10, 105)
	place(t, b, s1)
	place(t, b, s2)
	place(t, b, b1)
	place(t, b, b2)

	res := m.Match(b)
	if res.Outcome != OutcomeMatched {
		t.Fatalf("expected match, got %s", res.Outcome)
	}
	if res.Trade.SellOrderID != s1.ID || res.Trade.BuyOrderID != b1.ID {
		t.Fatalf("expected earliest orders at each price to match first")
	}

	res = m.Match(b)
	if res.Trade == nil || res.Trade.SellOrderID != s2.ID || res.Trade.BuyOrderID != b2.ID {
		t.Fatalf("expected second pair on the next run, got %+v", res)
	}
}

func TestMatchSkipsInactive(t *testing.T) {
	m, b, _ := newTestMatcher(8, 8)
	cheap := newOrder(model.SELL, 1, 10, 90)
	place(t, b, cheap)
	cheap.TryClaim()
	cheap.Settle()

	place(t, b, newOrder(model.SELL, 1, 10, 95))
	place(t, b, newOrder(model.BUY, 1, 10, 96))

	res := m.Match(b)
	if res.Outcome != OutcomeMatched || res.Trade.Price != 95 {
		t.Fatalf("expected match at 95 ignoring closed 90, got %+v", res)
	}
}

func TestMatchRaceLostOnSell(t *testing.T) {
	m, b, l := newTestMatcher(8, 8)
	sell := newOrder(model.SELL, 1, 10, 100)
	buy := newOrder(model.BUY, 1, 10, 100)
	place(t, b, sell)
	place(t, b, buy)

	// another matcher owns the sell
	sell.TryClaim()
	if res := m.Match(b); res.Outcome != OutcomeRaceLost {
		t.Fatalf("expected race_lost, got %s", res.Outcome)
	}
	if l.Len() != 0 || !buy.IsActive() {
		t.Fatalf("losing run must have no effect")
	}

	sell.Release()
	if res := m.Match(b); res.Outcome != OutcomeMatched {
		t.Fatalf("expected match once the claim was released, got %s", res.Outcome)
	}
}

func TestMatchRaceLostOnBuyReleasesSell(t *testing.T) {
	m, b, l := newTestMatcher(8, 8)
	sell := newOrder(model.SELL, 1, 10, 100)
	buy := newOrder(model.BUY, 1, 10, 100)
	place(t, b, sell)
	place(t, b, buy)

	buy.TryClaim()
	if res := m.Match(b); res.Outcome != OutcomeRaceLost {
		t.Fatalf("expected race_lost, got %s", res.Outcome)
	}
	if l.Len() != 0 {
		t.Fatalf("no trade expected")
	}
	// the sell claim must have been handed back
	if !sell.TryClaim() {
		t.Fatalf("sell order was stranded by a lost race")
	}
}

func TestMatchLedgerFull(t *testing.T) {
	m, b, l := newTestMatcher(8, 1)
	place(t, b, newOrder(model.SELL, 1, 1, 10))
	place(t, b, newOrder(model.BUY, 1, 1, 10))
	if res := m.Match(b); res.Outcome != OutcomeMatched {
		t.Fatalf("expected first match, got %s", res.Outcome)
	}

	sell := newOrder(model.SELL, 1, 1, 10)
	buy := newOrder(model.BUY, 1, 1, 10)
	place(t, b, sell)
	place(t, b, buy)

	res := m.Match(b)
	if res.Outcome != OutcomeLedgerFull {
		t.Fatalf("expected ledger_full, got %s", res.Outcome)
	}
	if l.Len() != 1 {
		t.Fatalf("ledger must stay at capacity, got %d", l.Len())
	}
	if sell.IsActive() || buy.IsActive() {
		t.Fatalf("orders settle even when the trade is dropped")
	}
}
