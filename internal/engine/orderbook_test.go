package engine

import (
	"testing"

	"fenrir/internal/common"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	trades []common.TradeRecord
}

func (s *recordingSink) RecordTrade(trade common.TradeRecord) {
	s.trades = append(s.trades, trade)
}

func limitReq(side common.Side, price, qty string, owner string) SubmitRequest {
	p := d(price)
	return SubmitRequest{
		Side:      side,
		OrderType: common.LimitOrder,
		Price:     &p,
		Quantity:  d(qty),
		Owner:     owner,
	}
}

func marketReq(side common.Side, qty string, owner string) SubmitRequest {
	return SubmitRequest{
		Side:      side,
		OrderType: common.MarketOrder,
		Quantity:  d(qty),
		Owner:     owner,
	}
}

func TestSubmitRestsWhenNoCross(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})

	result, err := book.Submit(limitReq(common.Buy, "10.00", "5", "alice"))
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	require.NotNil(t, result.Order)
	assert.True(t, result.Order.Quantity.Equal(d("5")))

	best := book.BestBid()
	require.NotNil(t, best)
	assert.True(t, best.Equal(d("10.00")))
}

func TestSubmitCrossingLimitFullyFillsMaker(t *testing.T) {
	sink := &recordingSink{}
	book := NewOrderBook("TEST", common.Equities, sink)

	_, err := book.Submit(limitReq(common.Sell, "10.00", "5", "alice"))
	require.NoError(t, err)

	result, err := book.Submit(limitReq(common.Buy, "10.00", "5", "bob"))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.Nil(t, result.Order)

	trade := result.Trades[0]
	assert.True(t, trade.Quantity.Equal(d("5")))
	assert.True(t, trade.Price.Equal(d("10.00")))
	assert.Equal(t, "alice", trade.Party1.Owner)
	assert.Equal(t, "bob", trade.Party2.Owner)
	assert.Nil(t, trade.Party1.NewBookQuantity)
	assert.Len(t, sink.trades, 1)

	assert.Nil(t, book.BestAsk())
}

func TestSubmitPartialFillKeepsMakerRestingWithResidual(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})

	_, err := book.Submit(limitReq(common.Sell, "10.00", "10", "alice"))
	require.NoError(t, err)

	result, err := book.Submit(limitReq(common.Buy, "10.00", "4", "bob"))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.Nil(t, result.Order)

	trade := result.Trades[0]
	assert.True(t, trade.Quantity.Equal(d("4")))
	require.NotNil(t, trade.Party1.NewBookQuantity)
	assert.True(t, trade.Party1.NewBookQuantity.Equal(d("6")))

	ask := book.BestAsk()
	require.NotNil(t, ask)
	assert.True(t, book.VolumeAt(common.Sell, d("10.00")).Equal(d("6")))
}

func TestSubmitLimitSweepsMakerThenRestsTakerRemainder(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})

	_, err := book.Submit(limitReq(common.Sell, "100.00", "6", "alice"))
	require.NoError(t, err)

	result, err := book.Submit(limitReq(common.Buy, "101.00", "10", "bob"))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.True(t, result.Trades[0].Quantity.Equal(d("6")))
	assert.True(t, result.Trades[0].Price.Equal(d("100.00")))

	require.NotNil(t, result.Order)
	assert.True(t, result.Order.Quantity.Equal(d("4")))

	assert.Nil(t, book.BestAsk())
	bid := book.BestBid()
	require.NotNil(t, bid)
	assert.True(t, bid.Equal(d("101.00")))
	assert.True(t, book.VolumeAt(common.Buy, d("101.00")).Equal(d("4")))
}

func TestSubmitMarketOrderSweepsMultipleLevelsAndNeverRests(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})

	_, err := book.Submit(limitReq(common.Sell, "10.00", "3", "alice"))
	require.NoError(t, err)
	_, err = book.Submit(limitReq(common.Sell, "10.50", "3", "carol"))
	require.NoError(t, err)

	result, err := book.Submit(marketReq(common.Buy, "4", "bob"))
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)
	assert.Nil(t, result.Order)

	assert.True(t, result.Trades[0].Price.Equal(d("10.00")))
	assert.True(t, result.Trades[0].Quantity.Equal(d("3")))
	assert.True(t, result.Trades[1].Price.Equal(d("10.50")))
	assert.True(t, result.Trades[1].Quantity.Equal(d("1")))
}

func TestSubmitMarketOrderDiscardsUnfillableRemainder(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})

	_, err := book.Submit(limitReq(common.Sell, "10.00", "2", "alice"))
	require.NoError(t, err)

	result, err := book.Submit(marketReq(common.Buy, "5", "bob"))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.True(t, result.Trades[0].Quantity.Equal(d("2")))
	assert.Nil(t, book.BestAsk())
	assert.Empty(t, book.List(common.Sell))
}

func TestSubmitRejectsInvalidQuantity(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})

	_, err := book.Submit(limitReq(common.Buy, "10.00", "0", "alice"))
	assert.ErrorIs(t, err, common.ErrInvalidQuantity)
}

func TestSubmitRejectsLimitWithoutPrice(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})

	req := SubmitRequest{Side: common.Buy, OrderType: common.LimitOrder, Quantity: d("5")}
	_, err := book.Submit(req)
	assert.ErrorIs(t, err, common.ErrInvalidOrderType)
}

func TestCancelRemovesRestingOrder(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})

	result, err := book.Submit(limitReq(common.Buy, "10.00", "5", "alice"))
	require.NoError(t, err)

	err = book.Cancel(common.Buy, result.Order.OrderID, nil)
	require.NoError(t, err)
	assert.Nil(t, book.BestBid())
}

func TestCancelUnknownOrderIsNotFound(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})
	err := book.Cancel(common.Buy, 12345, nil)
	assert.ErrorIs(t, err, common.ErrOrderNotFound)
}

func TestCancelWrongSideIsNotFound(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})
	result, err := book.Submit(limitReq(common.Buy, "10.00", "5", "alice"))
	require.NoError(t, err)

	err = book.Cancel(common.Sell, result.Order.OrderID, nil)
	assert.ErrorIs(t, err, common.ErrOrderNotFound)
}

func TestModifyQuantityDecreaseKeepsTimePriority(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})
	result, err := book.Submit(limitReq(common.Buy, "10.00", "5", "alice"))
	require.NoError(t, err)
	second, err := book.Submit(limitReq(common.Buy, "10.00", "5", "carol"))
	require.NoError(t, err)

	err = book.Modify(common.Buy, result.Order.OrderID, ModifyRequest{Price: d("10.00"), Quantity: d("2")}, nil)
	require.NoError(t, err)

	order, ok := book.GetOrder(common.Buy, result.Order.OrderID)
	require.True(t, ok)
	assert.True(t, order.Quantity.Equal(d("2")))

	resting := book.List(common.Buy)
	require.Len(t, resting, 2)
	assert.Equal(t, result.Order.OrderID, resting[0].OrderID)
	assert.Equal(t, second.Order.OrderID, resting[1].OrderID)
}

func TestModifyNeverCrossesEvenIfRepricedThroughBook(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})

	_, err := book.Submit(limitReq(common.Sell, "10.00", "5", "alice"))
	require.NoError(t, err)
	result, err := book.Submit(limitReq(common.Buy, "9.00", "5", "bob"))
	require.NoError(t, err)

	err = book.Modify(common.Buy, result.Order.OrderID, ModifyRequest{Price: d("10.00"), Quantity: d("5")}, nil)
	require.NoError(t, err)

	// Still two untouched resting orders: modify never matches.
	assert.True(t, book.VolumeAt(common.Sell, d("10.00")).Equal(d("5")))
	assert.True(t, book.VolumeAt(common.Buy, d("10.00")).Equal(d("5")))
}

func TestModifyUnknownOrderIsNotFound(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})
	err := book.Modify(common.Buy, 999, ModifyRequest{Price: d("10.00"), Quantity: d("5")}, nil)
	assert.ErrorIs(t, err, common.ErrOrderNotFound)
}

func TestModifyRejectsNonPositiveQuantity(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})
	result, err := book.Submit(limitReq(common.Buy, "10.00", "5", "alice"))
	require.NoError(t, err)

	err = book.Modify(common.Buy, result.Order.OrderID, ModifyRequest{Price: d("10.00"), Quantity: d("0")}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidQuantity)
}

func TestAllTradesInOneCommandShareATimestamp(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})

	_, err := book.Submit(limitReq(common.Sell, "10.00", "1", "alice"))
	require.NoError(t, err)
	_, err = book.Submit(limitReq(common.Sell, "10.00", "1", "carol"))
	require.NoError(t, err)

	result, err := book.Submit(marketReq(common.Buy, "2", "bob"))
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)
	assert.Equal(t, result.Trades[0].Timestamp, result.Trades[1].Timestamp)
}

func TestReplaySubmitTrustsSuppliedTimestampAndOrderID(t *testing.T) {
	book := NewOrderBook("TEST", common.Equities, &recordingSink{})

	p := decimal.RequireFromString("10.00")
	req := SubmitRequest{
		Side:      common.Buy,
		OrderType: common.LimitOrder,
		Price:     &p,
		Quantity:  d("5"),
		FromData:  true,
		OrderID:   42,
		Timestamp: 100,
	}
	result, err := book.Submit(req)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), result.Order.OrderID)
	assert.Equal(t, uint64(100), result.Order.Timestamp)
	assert.Equal(t, uint64(100), book.Time())
}
