package net

import (
	"testing"

	. "fenrir/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderMessageRoundTrips(t *testing.T) {
	msg := NewOrderMessage{
		BaseMessage: BaseMessage{TypeOf: NewOrder},
		AssetType:   Equities,
		OrderType:   LimitOrder,
		Side:        Buy,
		Ticker:      "AAPL",
		Price:       "10.50",
		Quantity:    "5",
		TradeID:     "t-1",
		Owner:       "alice",
	}

	parsed, err := parseMessage(msg.Serialize())
	require.NoError(t, err)

	got, ok := parsed.(NewOrderMessage)
	require.True(t, ok)
	assert.Equal(t, msg.AssetType, got.AssetType)
	assert.Equal(t, msg.OrderType, got.OrderType)
	assert.Equal(t, msg.Side, got.Side)
	assert.Equal(t, msg.Ticker, got.Ticker)
	assert.Equal(t, msg.Price, got.Price)
	assert.Equal(t, msg.Quantity, got.Quantity)
	assert.Equal(t, msg.TradeID, got.TradeID)
	assert.Equal(t, msg.Owner, got.Owner)
}

func TestNewOrderMessageSubmitRequestGeneratesTradeIDWhenEmpty(t *testing.T) {
	msg := NewOrderMessage{
		OrderType: MarketOrder,
		Side:      Sell,
		Quantity:  "3",
		Owner:     "bob",
	}
	req, err := msg.SubmitRequest()
	require.NoError(t, err)
	assert.NotEmpty(t, req.TradeID)
	assert.Nil(t, req.Price)
}

func TestNewOrderMessageSubmitRequestRejectsBadQuantity(t *testing.T) {
	msg := NewOrderMessage{OrderType: MarketOrder, Quantity: "not-a-number"}
	_, err := msg.SubmitRequest()
	assert.Error(t, err)
}

func TestCancelOrderMessageRoundTrips(t *testing.T) {
	msg := CancelOrderMessage{
		BaseMessage: BaseMessage{TypeOf: CancelOrder},
		AssetType:   Equities,
		Side:        Sell,
		OrderID:     42,
	}
	parsed, err := parseMessage(msg.Serialize())
	require.NoError(t, err)

	got, ok := parsed.(CancelOrderMessage)
	require.True(t, ok)
	assert.Equal(t, msg, got)
}

func TestModifyOrderMessageRoundTrips(t *testing.T) {
	msg := ModifyOrderMessage{
		BaseMessage: BaseMessage{TypeOf: ModifyOrder},
		AssetType:   Equities,
		Side:        Buy,
		OrderID:     7,
		Price:       "11.00",
		Quantity:    "9",
	}
	parsed, err := parseMessage(msg.Serialize())
	require.NoError(t, err)

	got, ok := parsed.(ModifyOrderMessage)
	require.True(t, ok)
	assert.Equal(t, msg, got)

	req, err := got.ModifyRequest()
	require.NoError(t, err)
	// decimal.String drops trailing zeros; the value itself is unchanged.
	assert.Equal(t, "11", req.Price.String())
}

func TestQuerySummaryMessageRoundTrips(t *testing.T) {
	msg := QuerySummaryMessage{BaseMessage: BaseMessage{TypeOf: QuerySummary}, AssetType: Equities}
	parsed, err := parseMessage(msg.Serialize())
	require.NoError(t, err)

	got, ok := parsed.(QuerySummaryMessage)
	require.True(t, ok)
	assert.Equal(t, msg, got)
}

func TestParseMessageTooShortIsRejected(t *testing.T) {
	_, err := parseMessage([]byte{0})
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestParseMessageUnknownTypeIsRejected(t *testing.T) {
	_, err := parseMessage([]byte{0xFF, 0xFF})
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestReportSerializeParseRoundTrips(t *testing.T) {
	r := Report{
		MessageType:  ExecutionReport,
		AssetType:    Equities,
		Side:         Buy,
		Timestamp:    10,
		Price:        "10.50",
		Quantity:     "5",
		OrderID:      3,
		TradeID:      "t-3",
		Counterparty: "bob",
		NewBookQty:   "2",
	}
	parsed, err := ParseReport(r.Serialize())
	require.NoError(t, err)
	assert.Equal(t, r, parsed)
}

func TestErrorReportEncodesErrorKind(t *testing.T) {
	r := errorReport(ErrOrderNotFound)
	assert.Equal(t, ErrorReport, r.MessageType)
	assert.Equal(t, ErrorKindOrderNotFound, r.ErrorKind)
}
