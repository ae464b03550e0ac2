package common

import "github.com/shopspring/decimal"

// PartyFill describes one counterparty's side of a trade.
type PartyFill struct {
	TradeID  string
	Side     Side
	OrderID  uint64
	// NewBookQuantity is the maker's residual resting quantity after this
	// trade, or nil if the maker was fully consumed. Always nil for the
	// taker (Party2).
	NewBookQuantity *decimal.Decimal
	Owner           string // opaque, carried through verbatim (the "wage" field)
}

// TradeRecord is the bit-level contract handed to downstream consumers
// (TradeSink implementations, the wire protocol). Party1 is always the
// maker (resting order); Party2 is always the taker (incoming order).
type TradeRecord struct {
	AssetType AssetType
	Timestamp uint64 // engine time at execution
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	Time      uint64 // duplicate of Timestamp, retained for wire compatibility
	Party1    PartyFill
	Party2    PartyFill
}
