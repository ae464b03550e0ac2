package engine

import (
	"fenrir/internal/common"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// priceLevels is the price-ordered container backing a SideBook.
type priceLevels = btree.BTreeG[*PriceLevel]

// SideBook is one side (bids or asks) of an OrderBook: a price-ordered map
// of PriceLevel plus an id index for O(1) order lookup.
type SideBook struct {
	side   common.Side
	levels *priceLevels
	byID   map[uint64]*Order

	totalVolume decimal.Decimal
	totalOrders uint64
}

// newSideBook builds a SideBook whose levels iterate in best-first order:
// descending by price for bids, ascending for asks.
func newSideBook(side common.Side) *SideBook {
	var less func(a, b *PriceLevel) bool
	if side == common.Buy {
		less = func(a, b *PriceLevel) bool { return a.Price.GreaterThan(b.Price) }
	} else {
		less = func(a, b *PriceLevel) bool { return a.Price.LessThan(b.Price) }
	}
	return &SideBook{
		side:        side,
		levels:      btree.NewBTreeG(less),
		byID:        make(map[uint64]*Order),
		totalVolume: decimal.Zero,
	}
}

// insert adds data as a fresh resting order. If data.OrderID is already
// present, it is first removed (idempotent replace).
func (sb *SideBook) insert(data *Order) {
	if _, exists := sb.byID[data.OrderID]; exists {
		sb.removeByID(data.OrderID)
	}

	level, ok := sb.levels.Get(&PriceLevel{Price: data.Price})
	if !ok {
		level = newPriceLevel(data.Price)
		sb.levels.Set(level)
	}

	level.append(data)
	sb.byID[data.OrderID] = data
	sb.totalVolume = sb.totalVolume.Add(data.Quantity)
	sb.totalOrders++
}

// removeByID detaches the order with the given id, cleaning up an emptied
// level. Returns the removed order, or nil if absent.
func (sb *SideBook) removeByID(id uint64) *Order {
	order, ok := sb.byID[id]
	if !ok {
		return nil
	}

	level := order.level
	level.remove(order)
	if level.Len() == 0 {
		sb.levels.Delete(level)
	}

	delete(sb.byID, id)
	sb.totalVolume = sb.totalVolume.Sub(order.Quantity)
	sb.totalOrders--
	return order
}

// updateQuantity applies the priority rule: a strict increase moves the
// order to the tail of its level (losing time priority); a decrease or
// equal quantity keeps its position. newTs is always applied.
func (sb *SideBook) updateQuantity(order *Order, newQty decimal.Decimal, newTs uint64) {
	oldQty := order.Quantity
	if newQty.GreaterThan(oldQty) {
		order.level.moveToTail(order)
	}

	delta := oldQty.Sub(newQty)
	order.level.volume = order.level.volume.Sub(delta)
	sb.totalVolume = sb.totalVolume.Sub(delta)

	order.Quantity = newQty
	order.Timestamp = newTs
}

// update applies a modify to an already-resting order. If newPrice differs
// from the order's current price, this is the reprice path: remove then
// reinsert at the tail of the (possibly new) level. Otherwise it is a
// same-price quantity update.
func (sb *SideBook) update(id uint64, newPrice, newQty decimal.Decimal, newTs uint64) error {
	order, ok := sb.byID[id]
	if !ok {
		return common.ErrOrderNotFound
	}

	if !newPrice.Equal(order.Price) {
		sb.removeByID(id)
		order.Price = newPrice
		order.Quantity = newQty
		order.Timestamp = newTs
		sb.insert(order)
		return nil
	}

	sb.updateQuantity(order, newQty, newTs)
	return nil
}

func (sb *SideBook) get(id uint64) (*Order, bool) {
	order, ok := sb.byID[id]
	return order, ok
}

func (sb *SideBook) exists(price decimal.Decimal) bool {
	_, ok := sb.levels.Get(&PriceLevel{Price: price})
	return ok
}

func (sb *SideBook) level(price decimal.Decimal) (*PriceLevel, bool) {
	return sb.levels.Get(&PriceLevel{Price: price})
}

// bestLevel returns the best (first-iterated) resting level, or nil if the
// side is empty.
func (sb *SideBook) bestLevel() *PriceLevel {
	lvl, ok := sb.levels.Min()
	if !ok {
		return nil
	}
	return lvl
}

// worstLevel returns the worst (last-iterated) resting level, or nil if the
// side is empty.
func (sb *SideBook) worstLevel() *PriceLevel {
	lvl, ok := sb.levels.Max()
	if !ok {
		return nil
	}
	return lvl
}

func (sb *SideBook) volumeAt(price decimal.Decimal) decimal.Decimal {
	lvl, ok := sb.level(price)
	if !ok {
		return decimal.Zero
	}
	return lvl.Volume()
}

func (sb *SideBook) depth() int { return sb.levels.Len() }

func (sb *SideBook) len() uint64 { return sb.totalOrders }

func (sb *SideBook) volume() decimal.Decimal { return sb.totalVolume }

// list traverses every resting order on this side in best-to-worst price
// order, then by intra-level FIFO order.
func (sb *SideBook) list() []*Order {
	orders := make([]*Order, 0, sb.totalOrders)
	sb.levels.Scan(func(lvl *PriceLevel) bool {
		orders = append(orders, lvl.Iterate()...)
		return true
	})
	return orders
}
