package metrics

import (
	"fenrir/internal/common"
	"fenrir/internal/engine"
)

// recordingSink wraps a TradeSink, observing every trade into a Recorder
// before forwarding it on.
type recordingSink struct {
	next engine.TradeSink
	rec  *Recorder
}

// WrapSink returns a TradeSink that records metrics for every trade and
// then forwards it to next. next may be nil, in which case trades are only
// recorded.
func WrapSink(next engine.TradeSink, rec *Recorder) engine.TradeSink {
	if next == nil {
		next = engine.NopSink{}
	}
	return &recordingSink{next: next, rec: rec}
}

func (s *recordingSink) RecordTrade(trade common.TradeRecord) {
	s.rec.TradesTotal.Inc()
	qty, _ := trade.Quantity.Float64()
	s.rec.TradeQuantity.Observe(qty)
	s.next.RecordTrade(trade)
}
