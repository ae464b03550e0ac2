package engine

import "fenrir/internal/common"

// Engine owns one OrderBook per supported AssetType and is the dispatch
// surface the net transport talks to.
type Engine struct {
	Books map[common.AssetType]*OrderBook
}

// New builds an Engine with one empty book per supported asset, all sharing
// sink as their TradeSink.
func New(sink TradeSink, supportedAssets ...common.AssetType) *Engine {
	engine := &Engine{
		Books: make(map[common.AssetType]*OrderBook, len(supportedAssets)),
	}
	for _, assetType := range supportedAssets {
		engine.Books[assetType] = NewOrderBook(assetTypeName(assetType), assetType, sink)
	}
	return engine
}

func assetTypeName(a common.AssetType) string {
	if a == common.Equities {
		return "equities"
	}
	return "unknown"
}

// PlaceOrder dispatches a submit command to the book for assetType.
func (e *Engine) PlaceOrder(assetType common.AssetType, req SubmitRequest) (SubmitResult, error) {
	book, ok := e.Books[assetType]
	if !ok {
		return SubmitResult{}, common.ErrInvalidOrderType
	}
	return book.Submit(req)
}

// CancelOrder dispatches a cancel command to the book for assetType.
func (e *Engine) CancelOrder(assetType common.AssetType, side common.Side, orderID uint64) error {
	book, ok := e.Books[assetType]
	if !ok {
		return common.ErrOrderNotFound
	}
	return book.Cancel(side, orderID, nil)
}

// ModifyOrder dispatches a modify command to the book for assetType.
func (e *Engine) ModifyOrder(assetType common.AssetType, side common.Side, orderID uint64, req ModifyRequest) error {
	book, ok := e.Books[assetType]
	if !ok {
		return common.ErrOrderNotFound
	}
	return book.Modify(side, orderID, req, nil)
}

// Summary returns the summary for a single book.
func (e *Engine) Summary(assetType common.AssetType) (Summary, bool) {
	book, ok := e.Books[assetType]
	if !ok {
		return Summary{}, false
	}
	return book.Summary(), true
}
