package engine

import "fenrir/internal/common"

// Re-exported for callers that only import the engine package.
var (
	ErrInvalidQuantity  = common.ErrInvalidQuantity
	ErrInvalidOrderType = common.ErrInvalidOrderType
	ErrOrderNotFound    = common.ErrOrderNotFound
)
