package engine

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/2019UGEC100/matching-engine-go/pkg/model"
)

// ErrBookFull is returned when a book side has no free slot left.
var ErrBookFull = errors.New("order book side is full")

// sideSlots is a pre-sized arena of order slots with an atomic cursor.
// A claimed index belongs to exactly one order and is never reused.
type sideSlots struct {
	slots []atomic.Pointer[model.Order]
	count atomic.Int64
}

func newSideSlots(capacity int) *sideSlots {
	return &sideSlots{slots: make([]atomic.Pointer[model.Order], capacity)}
}

func (s *sideSlots) reserve() (int, error) {
	idx := s.count.Add(1) - 1
	if idx >= int64(len(s.slots)) {
		// roll back our own reservation only
		s.count.Add(-1)
		return -1, ErrBookFull
	}
	return int(idx), nil
}

// snapshotCount clamps to capacity: overflowing reservers may bump the
// counter past it for an instant before rolling back.
func (s *sideSlots) snapshotCount() int {
	n := s.count.Load()
	if c := int64(len(s.slots)); n > c {
		return int(c)
	}
	return int(n)
}

// SecurityBook holds the buy and sell arenas for one security.
// The two sides advance independently and never block each other.
type SecurityBook struct {
	SecurityID int

	buys  *sideSlots
	sells *sideSlots
}

// NewSecurityBook creates an empty book with perSide slots on each side.
func NewSecurityBook(securityID, perSide int) *SecurityBook {
	return &SecurityBook{
		SecurityID: securityID,
		buys:       newSideSlots(perSide),
		sells:      newSideSlots(perSide),
	}
}

func (b *SecurityBook) side(s model.Side) *sideSlots {
	if s == model.SELL {
		return b.sells
	}
	return b.buys
}

// ReserveSlot claims the next free index on side.
func (b *SecurityBook) ReserveSlot(side model.Side) (int, error) {
	idx, err := b.side(side).reserve()
	if err != nil {
		return -1, fmt.Errorf("security %d %s: %w", b.SecurityID, side, err)
	}
	return idx, nil
}

// Write publishes o into a slot previously returned by ReserveSlot.
func (b *SecurityBook) Write(side model.Side, index int, o *model.Order) {
	b.side(side).slots[index].Store(o)
}

// SnapshotCount returns the occupancy of side at the instant of the call.
// It may be stale by the time a scan bounded by it finishes.
func (b *SecurityBook) SnapshotCount(side model.Side) int {
	return b.side(side).snapshotCount()
}

// Read returns the order at index, or false if the slot is out of range
// or reserved but not written yet.
func (b *SecurityBook) Read(side model.Side, index int) (*model.Order, bool) {
	s := b.side(side)
	if index < 0 || index >= len(s.slots) {
		return nil, false
	}
	o := s.slots[index].Load()
	return o, o != nil
}

// Capacity is the slot count of each side.
func (b *SecurityBook) Capacity() int {
	return len(b.buys.slots)
}

// Orders copies every stored order on side, in slot order.
func (b *SecurityBook) Orders(side model.Side) []model.OrderView {
	n := b.SnapshotCount(side)
	out := make([]model.OrderView, 0, n)
	for i := 0; i < n; i++ {
		if o, ok := b.Read(side, i); ok {
			out = append(out, o.View())
		}
	}
	return out
}
