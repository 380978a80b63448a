package engine

import (
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/2019UGEC100/matching-engine-go/pkg/metrics"
	"github.com/2019UGEC100/matching-engine-go/pkg/model"
)

// Defaults for Config.
const (
	DefaultMaxSecurities    = 1024
	DefaultMaxOrdersPerSide = 10000
	DefaultMaxTrades        = 10000
)

var ErrInvalidConfig = errors.New("invalid engine config")

// Config sizes the engine's arenas. All values are fixed at construction.
type Config struct {
	MaxSecurities    int
	MaxOrdersPerSide int
	MaxTrades        int
}

func DefaultConfig() Config {
	return Config{
		MaxSecurities:    DefaultMaxSecurities,
		MaxOrdersPerSide: DefaultMaxOrdersPerSide,
		MaxTrades:        DefaultMaxTrades,
	}
}

func (c Config) validate() error {
	if c.MaxSecurities <= 0 {
		return fmt.Errorf("%w: MaxSecurities must be > 0, got %d", ErrInvalidConfig, c.MaxSecurities)
	}
	if c.MaxOrdersPerSide <= 0 {
		return fmt.Errorf("%w: MaxOrdersPerSide must be > 0, got %d", ErrInvalidConfig, c.MaxOrdersPerSide)
	}
	if c.MaxTrades <= 0 {
		return fmt.Errorf("%w: MaxTrades must be > 0, got %d", ErrInvalidConfig, c.MaxTrades)
	}
	return nil
}

// Status tells a submitter what happened to its order. Submitters are
// free to ignore it.
type Status int

const (
	StatusAccepted Status = iota
	StatusOutOfRange
	StatusInvalid
	StatusBookFull
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusOutOfRange:
		return "out_of_range"
	case StatusInvalid:
		return "invalid"
	case StatusBookFull:
		return "book_full"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// SubmitResult is returned by Submit.
type SubmitResult struct {
	Status  Status
	OrderID string // empty unless the order was stored
	Err     error  // set for StatusInvalid and StatusBookFull
	Match   MatchResult
}

// Engine owns one SecurityBook per security and the shared TradeLedger.
// All methods are safe for concurrent use.
type Engine struct {
	cfg     Config
	books   []atomic.Pointer[SecurityBook] // indexed by security id, created on first use
	ledger  *TradeLedger
	matcher *Matcher

	log     *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Engine)

// WithLogger sets the logger used for capacity and race notifications.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics sets the counter set the engine reports into.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// New creates an engine sized by cfg.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	ledger := NewTradeLedger(cfg.MaxTrades)
	e := &Engine{
		cfg:     cfg,
		books:   make([]atomic.Pointer[SecurityBook], cfg.MaxSecurities),
		ledger:  ledger,
		matcher: NewMatcher(ledger),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.New(nil)
	}
	return e, nil
}

// Config returns the sizing the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) inRange(securityID int) bool {
	return securityID >= 0 && securityID < e.cfg.MaxSecurities
}

// book returns the book for securityID, creating it on first use.
func (e *Engine) book(securityID int) *SecurityBook {
	p := &e.books[securityID]
	if b := p.Load(); b != nil {
		return b
	}
	b := NewSecurityBook(securityID, e.cfg.MaxOrdersPerSide)
	if p.CompareAndSwap(nil, b) {
		return b
	}
	return p.Load()
}

// Submit stores a new order and runs one match attempt for its security.
// Out-of-range ids, invalid orders and full book sides are dropped with
// no effect on the book; the returned status says which.
func (e *Engine) Submit(side model.Side, securityID int, quantity int64, price float64) SubmitResult {
	if !e.inRange(securityID) {
		e.metrics.IncOrdersRejected(metrics.ReasonOutOfRange)
		e.log.Debug("security id out of range",
			zap.Int("security_id", securityID),
			zap.Int("max_securities", e.cfg.MaxSecurities))
		return SubmitResult{Status: StatusOutOfRange}
	}

	o := model.NewOrder(side, securityID, quantity, price)
	if err := o.Validate(); err != nil {
		e.metrics.IncOrdersRejected(metrics.ReasonInvalid)
		e.log.Debug("order rejected", zap.Int("security_id", securityID), zap.Error(err))
		return SubmitResult{Status: StatusInvalid, Err: err}
	}

	b := e.book(securityID)
	idx, err := b.ReserveSlot(side)
	if err != nil {
		e.metrics.IncOrdersRejected(metrics.ReasonBookFull)
		e.log.Warn("book side full",
			zap.Int("security_id", securityID),
			zap.String("side", string(side)),
			zap.Int("capacity", b.Capacity()))
		return SubmitResult{Status: StatusBookFull, Err: err}
	}
	b.Write(side, idx, o)
	e.metrics.IncOrdersSubmitted(string(side))

	res := e.matcher.Match(b)
	e.observe(securityID, res)

	return SubmitResult{Status: StatusAccepted, OrderID: o.ID, Match: res}
}

func (e *Engine) observe(securityID int, res MatchResult) {
	e.metrics.ObserveMatch(res.Outcome.String())
	switch res.Outcome {
	case OutcomeMatched:
		e.metrics.IncTrades()
	case OutcomeLedgerFull:
		e.metrics.IncLedgerDropped()
		e.log.Warn("trade ledger full",
			zap.Int("security_id", securityID),
			zap.Int("capacity", e.cfg.MaxTrades),
			zap.String("buy_order_id", res.Trade.BuyOrderID),
			zap.String("sell_order_id", res.Trade.SellOrderID))
	case OutcomeRaceLost, OutcomeStale:
		e.log.Debug("match attempt yielded",
			zap.Int("security_id", securityID),
			zap.Stringer("outcome", res.Outcome))
	}
}

// AllTrades returns a copy of every trade recorded so far.
func (e *Engine) AllTrades() []model.Trade {
	return e.ledger.Snapshot()
}

// Orders returns a copy of the stored orders on one side of a security,
// in arrival slot order. It returns nil for an unknown or untouched security.
func (e *Engine) Orders(securityID int, side model.Side) []model.OrderView {
	if !e.inRange(securityID) {
		return nil
	}
	b := e.books[securityID].Load()
	if b == nil {
		return nil
	}
	return b.Orders(side)
}
