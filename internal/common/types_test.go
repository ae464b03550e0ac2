package common

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
}

func TestSideString(t *testing.T) {
	assert.Equal(t, "bid", Buy.String())
	assert.Equal(t, "ask", Sell.String())
}

func TestIsCrossing(t *testing.T) {
	tenFifty := decimal.RequireFromString("10.50")
	tenZero := decimal.RequireFromString("10.00")

	assert.True(t, Buy.IsCrossing(tenFifty, tenZero))
	assert.True(t, Buy.IsCrossing(tenZero, tenZero))
	assert.False(t, Buy.IsCrossing(tenZero, tenFifty))

	assert.True(t, Sell.IsCrossing(tenZero, tenFifty))
	assert.True(t, Sell.IsCrossing(tenFifty, tenFifty))
	assert.False(t, Sell.IsCrossing(tenFifty, tenZero))
}

func TestOrderTypeString(t *testing.T) {
	assert.Equal(t, "limit", LimitOrder.String())
	assert.Equal(t, "market", MarketOrder.String())
}
