// Package common holds the wire-level vocabulary shared between the
// matching engine and the net transport: side/order-type enums and the
// trade record contract. Nothing here mutates book state.
package common

import "github.com/shopspring/decimal"

// AssetType identifies which instrument a book belongs to.
type AssetType int

// TODO: Flesh these out more, if we care.
const (
	Equities AssetType = iota
)

// Side is one of the two sides of a book.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "bid"
	}
	return "ask"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// IsCrossing reports whether a price on this side crosses the best price
// resting on the opposite side. For a bid that means price >= oppositeBest;
// for an ask it means price <= oppositeBest.
func (s Side) IsCrossing(price, oppositeBest decimal.Decimal) bool {
	if s == Buy {
		return price.Cmp(oppositeBest) >= 0
	}
	return price.Cmp(oppositeBest) <= 0
}

// OrderType distinguishes resting limit orders from liquidity-bounded market
// orders.
type OrderType int

const (
	// Limit orders are an order to buy or sell a security at a specified
	// price or better. Limit orders may rest on the order book until
	// filled.
	LimitOrder OrderType = iota
	// Market orders are instructions to buy or sell immediately. This
	// order guarantees that the order will be executed without guarantees
	// on the execution price. A market order will generally execute at or
	// near the current best price.
	MarketOrder
)

func (t OrderType) String() string {
	if t == LimitOrder {
		return "limit"
	}
	return "market"
}
