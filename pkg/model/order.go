package model

import (
	"errors"
	"math"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

var (
	ErrInvalidSide     = errors.New("invalid side: must be BUY or SELL")
	ErrInvalidQuantity = errors.New("quantity must be > 0")
	ErrInvalidPrice    = errors.New("price must be a finite value >= 0")
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case BUY:
		return BUY, nil
	case SELL:
		return SELL, nil
	}
	return "", ErrInvalidSide
}

// settlement states; only live orders can be claimed
const (
	stateLive int32 = iota
	stateClaiming
	stateClosed
)

// Order is an immutable trade intent plus its settlement state.
// Side, SecurityID, Quantity and Price must not change after NewOrder.
type Order struct {
	ID         string
	Side       Side
	SecurityID int
	Quantity   int64
	Price      float64

	state atomic.Int32
}

// NewOrder returns a live order with a fresh id.
func NewOrder(side Side, securityID int, quantity int64, price float64) *Order {
	return &Order{
		ID:         uuid.NewString(),
		Side:       side,
		SecurityID: securityID,
		Quantity:   quantity,
		Price:      price,
	}
}

// Validate checks basic syntactic correctness of the order.
// Security id bounds depend on the engine and are checked there.
func (o *Order) Validate() error {
	if o == nil {
		return errors.New("order is nil")
	}
	if o.Side != BUY && o.Side != SELL {
		return ErrInvalidSide
	}
	if o.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if o.Price < 0 || math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
		return ErrInvalidPrice
	}
	return nil
}

// IsActive reports whether the order can still take part in a trade.
// A claimed but not yet settled order is still active.
func (o *Order) IsActive() bool {
	return o.state.Load() != stateClosed
}

// TryClaim takes exclusive settlement rights on a live order.
// Among concurrent callers at most one gets true.
func (o *Order) TryClaim() bool {
	return o.state.CompareAndSwap(stateLive, stateClaiming)
}

// Settle closes a claimed order. Once closed it never becomes active again.
func (o *Order) Settle() {
	o.state.CompareAndSwap(stateClaiming, stateClosed)
}

// Release hands a claim back without closing the order.
func (o *Order) Release() {
	o.state.CompareAndSwap(stateClaiming, stateLive)
}

// View returns a read-only copy for inspection.
func (o *Order) View() OrderView {
	return OrderView{
		ID:         o.ID,
		Side:       o.Side,
		SecurityID: o.SecurityID,
		Quantity:   o.Quantity,
		Price:      o.Price,
		Active:     o.IsActive(),
	}
}

// OrderView is a point-in-time copy of an Order.
type OrderView struct {
	ID         string  `json:"order_id"`
	Side       Side    `json:"side"`
	SecurityID int     `json:"security_id"`
	Quantity   int64   `json:"quantity"`
	Price      float64 `json:"price"`
	Active     bool    `json:"active"`
}
