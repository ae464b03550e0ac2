package engine

import (
	"fmt"

	"fenrir/internal/common"

	"github.com/shopspring/decimal"
)

// Order is a single resting or in-flight bid/ask. prev/next/level are
// maintained exclusively by the owning PriceLevel; nothing outside this
// package should touch them.
type Order struct {
	OrderID       uint64
	TradeID       string
	Side          common.Side
	OrderType     common.OrderType
	Price         decimal.Decimal // unused for market orders
	Quantity      decimal.Decimal // remaining quantity while resting
	TotalQuantity decimal.Decimal // quantity originally submitted
	Timestamp     uint64
	Owner         string // opaque pass-through tag (the "wage" field)

	prev, next *Order
	level      *PriceLevel
}

func (o *Order) String() string {
	return fmt.Sprintf(
		"Order{id=%d trade_id=%s side=%v type=%v price=%s qty=%s/%s ts=%d owner=%s}",
		o.OrderID, o.TradeID, o.Side, o.OrderType,
		o.Price.String(), o.Quantity.String(), o.TotalQuantity.String(),
		o.Timestamp, o.Owner,
	)
}

// defaultTradeID falls back to the decimal form of the order id.
func defaultTradeID(orderID uint64) string {
	return fmt.Sprintf("%d", orderID)
}
