package engine

import (
	"fenrir/internal/common"

	"github.com/shopspring/decimal"
)

// SubmitRequest is the logical schema of an incoming submit command. Price
// is required iff OrderType is LimitOrder. FromData/OrderID/Timestamp are
// replay-only: when FromData is true the supplied OrderID/Timestamp are
// trusted verbatim instead of being assigned by the engine.
type SubmitRequest struct {
	Side      common.Side
	OrderType common.OrderType
	Quantity  decimal.Decimal
	Price     *decimal.Decimal
	TradeID   string
	Owner     string

	FromData  bool
	OrderID   uint64
	Timestamp uint64
}

// ModifyRequest carries the new price/quantity for a modify command.
type ModifyRequest struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// RestingOrder is the post-submit echo of whatever remainder of an order
// made it onto the book (nil for market orders and fully-filled limits).
type RestingOrder struct {
	OrderID   uint64
	Side      common.Side
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Timestamp uint64
	TradeID   string
	Owner     string
}

func restingOrderFrom(o *Order) *RestingOrder {
	return &RestingOrder{
		OrderID:   o.OrderID,
		Side:      o.Side,
		Quantity:  o.Quantity,
		Price:     o.Price,
		Timestamp: o.Timestamp,
		TradeID:   o.TradeID,
		Owner:     o.Owner,
	}
}

// SubmitResult is returned from Submit.
type SubmitResult struct {
	Trades []common.TradeRecord
	Order  *RestingOrder
}

// Summary is the read-only snapshot returned by OrderBook.Summary.
type Summary struct {
	BestBid   *decimal.Decimal
	BestAsk   *decimal.Decimal
	BidVolume decimal.Decimal
	AskVolume decimal.Decimal
	Time      uint64
}

// TradeSink receives every executed trade. It is required to be infallible
// from the engine's perspective: a sink that can fail must swallow its own
// errors (e.g. log and drop, or buffer for retry) rather than propagate one
// back into the matching loop.
type TradeSink interface {
	RecordTrade(trade common.TradeRecord)
}

// NopSink discards every trade. Useful for tests and for books that are not
// yet wired to a real TradeSink.
type NopSink struct{}

func (NopSink) RecordTrade(common.TradeRecord) {}
