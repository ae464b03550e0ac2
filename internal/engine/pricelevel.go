package engine

import "github.com/shopspring/decimal"

// PriceLevel is the FIFO doubly-linked queue of all resting orders at one
// exact price on one side. It is the unit the matching loop walks when it
// consumes liquidity.
//
// Grounded on the linked orderNode/priceLevel shape used by
// thatreguy/trade.re's OrderBook, adapted to carry the back-pointer each
// Order needs for O(1) removal and move-to-tail.
type PriceLevel struct {
	Price  decimal.Decimal
	head   *Order
	tail   *Order
	length uint64
	volume decimal.Decimal
}

func newPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{Price: price, volume: decimal.Zero}
}

// Len reports the number of resting orders at this level.
func (lvl *PriceLevel) Len() uint64 { return lvl.length }

// Volume reports the aggregate resting quantity at this level.
func (lvl *PriceLevel) Volume() decimal.Decimal { return lvl.volume }

// Head peeks at the earliest-inserted order, or nil if the level is empty.
func (lvl *PriceLevel) Head() *Order { return lvl.head }

// Iterate yields orders from head to tail. The slice is a snapshot; it is
// not safe to hold across book mutations.
func (lvl *PriceLevel) Iterate() []*Order {
	orders := make([]*Order, 0, lvl.length)
	for o := lvl.head; o != nil; o = o.next {
		orders = append(orders, o)
	}
	return orders
}

// append attaches order at the tail of the level.
func (lvl *PriceLevel) append(order *Order) {
	order.level = lvl
	order.next = nil
	order.prev = lvl.tail
	if lvl.tail != nil {
		lvl.tail.next = order
	} else {
		lvl.head = order
	}
	lvl.tail = order
	lvl.length++
	lvl.volume = lvl.volume.Add(order.Quantity)
}

// remove detaches order from the level. The caller must ensure order
// belongs to this level.
func (lvl *PriceLevel) remove(order *Order) {
	if order.prev != nil {
		order.prev.next = order.next
	} else {
		lvl.head = order.next
	}
	if order.next != nil {
		order.next.prev = order.prev
	} else {
		lvl.tail = order.prev
	}
	order.prev, order.next, order.level = nil, nil, nil
	lvl.length--
	lvl.volume = lvl.volume.Sub(order.Quantity)
}

// moveToTail unlinks order in place and re-attaches it at the tail, without
// touching length/volume. No-op if order is already the sole or tail order.
func (lvl *PriceLevel) moveToTail(order *Order) {
	if order == lvl.tail {
		return
	}

	if order.prev != nil {
		order.prev.next = order.next
	} else {
		lvl.head = order.next
	}
	if order.next != nil {
		order.next.prev = order.prev
	}

	order.prev = lvl.tail
	order.next = nil
	lvl.tail.next = order
	lvl.tail = order
}
