package common

import "errors"

// These are the only three error kinds the engine originates on the happy
// path. All of them are synchronous and local: the book is unchanged after
// any of them is returned.
var (
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidOrderType = errors.New("invalid order type")
	ErrOrderNotFound    = errors.New("order not found")
)
