package engine

import (
	"fenrir/internal/common"

	"github.com/shopspring/decimal"
)

// OrderBook is the matching engine for a single instrument: command
// dispatch, validation, the limit/market matching loops, modify/cancel, the
// logical time counter, and trade emission. Matching walks one opposite
// price level at a time, taker-driven, so that partial head-of-level fills
// never lose the maker's time priority.
type OrderBook struct {
	Instrument string
	AssetType  common.AssetType

	bids *SideBook
	asks *SideBook

	sink TradeSink

	time        uint64
	nextOrderID uint64
	TickSize    decimal.Decimal

	closed       bool
	closedReason string
}

// NewOrderBook constructs an empty book for one instrument, emitting trades
// to sink.
func NewOrderBook(instrument string, assetType common.AssetType, sink TradeSink) *OrderBook {
	if sink == nil {
		sink = NopSink{}
	}
	return &OrderBook{
		Instrument: instrument,
		AssetType:  assetType,
		bids:       newSideBook(common.Buy),
		asks:       newSideBook(common.Sell),
		sink:       sink,
		TickSize:   decimal.Zero,
	}
}

// sideBook returns the SideBook for a given side.
func (ob *OrderBook) sideBook(side common.Side) *SideBook {
	if side == common.Buy {
		return ob.bids
	}
	return ob.asks
}

// stamp advances the logical clock: adopt the supplied timestamp in replay
// mode, otherwise increment.
func (ob *OrderBook) stamp(fromData bool, suppliedTs uint64) uint64 {
	if fromData {
		if suppliedTs > ob.time {
			ob.time = suppliedTs
		}
		return suppliedTs
	}
	ob.time++
	return ob.time
}

// stampExplicit is used by Cancel/Modify, which accept an optional explicit
// time: if provided, the command is stamped with it verbatim and the clock
// advances to it only when it is later (the clock never moves back);
// otherwise increment.
func (ob *OrderBook) stampExplicit(at *uint64) uint64 {
	if at != nil {
		if *at > ob.time {
			ob.time = *at
		}
		return *at
	}
	ob.time++
	return ob.time
}

// Submit validates, matches, and (for limit orders with a remainder) rests
// req. Validation happens entirely before any book mutation: on error, the
// book is unchanged.
func (ob *OrderBook) Submit(req SubmitRequest) (SubmitResult, error) {
	if err := validateSubmit(req); err != nil {
		return SubmitResult{}, err
	}

	ts := ob.stamp(req.FromData, req.Timestamp)

	orderID := req.OrderID
	if !req.FromData {
		ob.nextOrderID++
		orderID = ob.nextOrderID
	}

	tradeID := req.TradeID
	if tradeID == "" {
		tradeID = defaultTradeID(orderID)
	}

	order := &Order{
		OrderID:       orderID,
		TradeID:       tradeID,
		Side:          req.Side,
		OrderType:     req.OrderType,
		Quantity:      req.Quantity,
		TotalQuantity: req.Quantity,
		Timestamp:     ts,
		Owner:         req.Owner,
	}
	if req.Price != nil {
		order.Price = *req.Price
	}

	var trades []common.TradeRecord
	switch req.OrderType {
	case common.MarketOrder:
		trades = ob.matchMarket(order, ts)
		return SubmitResult{Trades: trades}, nil
	default: // common.LimitOrder
		trades = ob.matchLimit(order, ts)
	}

	if order.Quantity.IsZero() {
		return SubmitResult{Trades: trades}, nil
	}

	ob.sideBook(order.Side).insert(order)
	return SubmitResult{Trades: trades, Order: restingOrderFrom(order)}, nil
}

// matchMarket sweeps the opposite side while liquidity remains. Market
// orders never rest; any unmatched remainder is discarded silently.
func (ob *OrderBook) matchMarket(taker *Order, ts uint64) []common.TradeRecord {
	opposite := ob.sideBook(taker.Side.Opposite())
	var trades []common.TradeRecord

	for taker.Quantity.IsPositive() {
		level := opposite.bestLevel()
		if level == nil {
			break
		}
		trades = append(trades, ob.consumeLevel(opposite, level, taker, ts)...)
	}
	return trades
}

// matchLimit sweeps the opposite side while it crosses taker's price, then
// returns (the remainder, if any, is the caller's responsibility to rest).
func (ob *OrderBook) matchLimit(taker *Order, ts uint64) []common.TradeRecord {
	opposite := ob.sideBook(taker.Side.Opposite())
	var trades []common.TradeRecord

	for taker.Quantity.IsPositive() {
		level := opposite.bestLevel()
		if level == nil {
			break
		}
		if !taker.Side.IsCrossing(taker.Price, level.Price) {
			break
		}
		trades = append(trades, ob.consumeLevel(opposite, level, taker, ts)...)
	}
	return trades
}

// consumeLevel walks level's FIFO queue head-to-tail, trading against
// taker until either the level empties or taker is filled. A partial fill
// on the head order keeps its timestamp and position; a full
// fill removes the head order from the book entirely (and the level, if it
// empties). Volume accounting happens exclusively inside
// PriceLevel/SideBook mutation methods -- this loop never adjusts totals
// directly. All trades matched within the same command share that
// command's stamped time (ts).
func (ob *OrderBook) consumeLevel(opposite *SideBook, level *PriceLevel, taker *Order, ts uint64) []common.TradeRecord {
	var trades []common.TradeRecord

	for level.Len() > 0 && taker.Quantity.IsPositive() {
		maker := level.Head()
		tradedPrice := maker.Price

		var traded decimal.Decimal
		var newBookQty *decimal.Decimal

		if taker.Quantity.LessThan(maker.Quantity) {
			traded = taker.Quantity
			opposite.updateQuantity(maker, maker.Quantity.Sub(traded), maker.Timestamp)
			remaining := maker.Quantity
			newBookQty = &remaining
			taker.Quantity = decimal.Zero
		} else {
			traded = maker.Quantity
			opposite.removeByID(maker.OrderID)
			taker.Quantity = taker.Quantity.Sub(traded)
		}

		trade := common.TradeRecord{
			AssetType: ob.AssetType,
			Timestamp: ts,
			Price:     tradedPrice,
			Quantity:  traded,
			Time:      ts,
			Party1: common.PartyFill{
				TradeID:         maker.TradeID,
				Side:            maker.Side,
				OrderID:         maker.OrderID,
				NewBookQuantity: newBookQty,
				Owner:           maker.Owner,
			},
			Party2: common.PartyFill{
				TradeID:         taker.TradeID,
				Side:            taker.Side,
				OrderID:         taker.OrderID,
				NewBookQuantity: nil,
				Owner:           taker.Owner,
			},
		}
		ob.sink.RecordTrade(trade)
		trades = append(trades, trade)
	}
	return trades
}

// Cancel removes a resting order from side. Cancelling an id that is absent
// on side (including "on the wrong side") is ErrOrderNotFound.
func (ob *OrderBook) Cancel(side common.Side, orderID uint64, at *uint64) error {
	ob.stampExplicit(at)

	if ob.sideBook(side).removeByID(orderID) == nil {
		return common.ErrOrderNotFound
	}
	return nil
}

// Modify applies an in-place quantity update or a reprice. Modify never
// matches against the opposite side even if the new price would cross: it
// is a book-local mutation only. The time counter advances before the
// existence check, same as Cancel.
func (ob *OrderBook) Modify(side common.Side, orderID uint64, req ModifyRequest, at *uint64) error {
	ts := ob.stampExplicit(at)

	book := ob.sideBook(side)
	if _, ok := book.get(orderID); !ok {
		return common.ErrOrderNotFound
	}
	if req.Quantity.Sign() <= 0 {
		return common.ErrInvalidQuantity
	}

	return book.update(orderID, req.Price, req.Quantity, ts)
}

// GetOrder returns the resting order with id on side, if any.
func (ob *OrderBook) GetOrder(side common.Side, orderID uint64) (*RestingOrder, bool) {
	order, ok := ob.sideBook(side).get(orderID)
	if !ok {
		return nil, false
	}
	return restingOrderFrom(order), true
}

// List returns every resting order on side, best-to-worst price then FIFO.
func (ob *OrderBook) List(side common.Side) []*RestingOrder {
	orders := ob.sideBook(side).list()
	out := make([]*RestingOrder, len(orders))
	for i, o := range orders {
		out[i] = restingOrderFrom(o)
	}
	return out
}

// BestBid returns the highest resting bid price, or nil if bids are empty.
func (ob *OrderBook) BestBid() *decimal.Decimal { return bestPrice(ob.bids.bestLevel()) }

// BestAsk returns the lowest resting ask price, or nil if asks are empty.
func (ob *OrderBook) BestAsk() *decimal.Decimal { return bestPrice(ob.asks.bestLevel()) }

// WorstBid returns the lowest resting bid price, or nil if bids are empty.
func (ob *OrderBook) WorstBid() *decimal.Decimal { return bestPrice(ob.bids.worstLevel()) }

// WorstAsk returns the highest resting ask price, or nil if asks are empty.
func (ob *OrderBook) WorstAsk() *decimal.Decimal { return bestPrice(ob.asks.worstLevel()) }

func bestPrice(lvl *PriceLevel) *decimal.Decimal {
	if lvl == nil {
		return nil
	}
	p := lvl.Price
	return &p
}

// VolumeAt returns the aggregate resting quantity at price on side, or zero
// if no level exists there.
func (ob *OrderBook) VolumeAt(side common.Side, price decimal.Decimal) decimal.Decimal {
	return ob.sideBook(side).volumeAt(price)
}

// Summary returns a read-only snapshot of the book's top-of-book state.
func (ob *OrderBook) Summary() Summary {
	return Summary{
		BestBid:   ob.BestBid(),
		BestAsk:   ob.BestAsk(),
		BidVolume: ob.bids.volume(),
		AskVolume: ob.asks.volume(),
		Time:      ob.time,
	}
}

// Time returns the engine's current logical clock value.
func (ob *OrderBook) Time() uint64 { return ob.time }

// Close marks the book closed for informational purposes; matching itself
// does not consult this flag (no order-rejection policy is specified).
func (ob *OrderBook) Close(reason string) {
	ob.closed = true
	ob.closedReason = reason
}

func validateSubmit(req SubmitRequest) error {
	if req.OrderType == common.LimitOrder && req.Price == nil {
		return common.ErrInvalidOrderType
	}
	if req.Side != common.Buy && req.Side != common.Sell {
		return common.ErrInvalidOrderType
	}
	if req.Quantity.Sign() <= 0 {
		return common.ErrInvalidQuantity
	}
	if req.OrderType != common.LimitOrder && req.OrderType != common.MarketOrder {
		return common.ErrInvalidOrderType
	}
	if req.Price != nil && req.Price.Sign() <= 0 && req.OrderType == common.LimitOrder {
		return common.ErrInvalidOrderType
	}
	return nil
}
