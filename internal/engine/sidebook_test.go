package engine

import (
	"testing"

	"fenrir/internal/common"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func restingOrder(id uint64, price, qty string, ts uint64) *Order {
	return &Order{
		OrderID:   id,
		Price:     d(price),
		Quantity:  d(qty),
		Timestamp: ts,
	}
}

func TestSideBookInsertOrdersByPriceThenTime(t *testing.T) {
	bids := newSideBook(common.Buy)

	bids.insert(restingOrder(1, "10.00", "5", 1))
	bids.insert(restingOrder(2, "10.50", "5", 2))
	bids.insert(restingOrder(3, "10.00", "5", 3))

	best := bids.bestLevel()
	require.NotNil(t, best)
	assert.True(t, best.Price.Equal(d("10.50")))

	worst := bids.worstLevel()
	require.NotNil(t, worst)
	assert.True(t, worst.Price.Equal(d("10.00")))
	assert.Equal(t, uint64(2), worst.Len())
	assert.Equal(t, uint64(1), worst.Head().OrderID)
}

func TestSideBookAsksBestIsLowestPrice(t *testing.T) {
	asks := newSideBook(common.Sell)
	asks.insert(restingOrder(1, "11.00", "5", 1))
	asks.insert(restingOrder(2, "10.50", "5", 2))

	best := asks.bestLevel()
	require.NotNil(t, best)
	assert.True(t, best.Price.Equal(d("10.50")))
}

func TestSideBookRemoveByIDCleansUpEmptyLevel(t *testing.T) {
	bids := newSideBook(common.Buy)
	bids.insert(restingOrder(1, "10.00", "5", 1))

	removed := bids.removeByID(1)
	require.NotNil(t, removed)
	assert.Equal(t, 0, bids.depth())
	assert.Nil(t, bids.bestLevel())

	assert.Nil(t, bids.removeByID(1))
}

func TestSideBookUpdateQuantityIncreaseMovesToTail(t *testing.T) {
	bids := newSideBook(common.Buy)
	bids.insert(restingOrder(1, "10.00", "5", 1))
	bids.insert(restingOrder(2, "10.00", "5", 2))

	order, ok := bids.get(1)
	require.True(t, ok)

	bids.updateQuantity(order, d("7"), 3)

	lvl, _ := bids.level(d("10.00"))
	ordered := lvl.Iterate()
	require.Len(t, ordered, 2)
	assert.Equal(t, uint64(2), ordered[0].OrderID)
	assert.Equal(t, uint64(1), ordered[1].OrderID)
	assert.True(t, ordered[1].Quantity.Equal(d("7")))
}

func TestSideBookUpdateQuantityDecreaseKeepsPosition(t *testing.T) {
	bids := newSideBook(common.Buy)
	bids.insert(restingOrder(1, "10.00", "5", 1))
	bids.insert(restingOrder(2, "10.00", "5", 2))

	order, ok := bids.get(1)
	require.True(t, ok)

	bids.updateQuantity(order, d("2"), 3)

	lvl, _ := bids.level(d("10.00"))
	ordered := lvl.Iterate()
	require.Len(t, ordered, 2)
	assert.Equal(t, uint64(1), ordered[0].OrderID)
	assert.True(t, ordered[0].Quantity.Equal(d("2")))
}

func TestSideBookUpdateRepriceMovesLevelAndGoesToTail(t *testing.T) {
	bids := newSideBook(common.Buy)
	bids.insert(restingOrder(1, "10.00", "5", 1))
	bids.insert(restingOrder(2, "10.50", "5", 2))

	err := bids.update(1, d("10.50"), d("5"), 3)
	require.NoError(t, err)

	assert.Equal(t, 1, bids.depth())
	lvl, ok := bids.level(d("10.50"))
	require.True(t, ok)
	ordered := lvl.Iterate()
	require.Len(t, ordered, 2)
	assert.Equal(t, uint64(2), ordered[0].OrderID)
	assert.Equal(t, uint64(1), ordered[1].OrderID)
}

func TestSideBookUpdateUnknownIDIsNotFound(t *testing.T) {
	bids := newSideBook(common.Buy)
	err := bids.update(99, d("10.00"), d("5"), 1)
	assert.ErrorIs(t, err, common.ErrOrderNotFound)
}

func TestSideBookListIsBestToWorstThenFIFO(t *testing.T) {
	bids := newSideBook(common.Buy)
	bids.insert(restingOrder(1, "10.00", "5", 1))
	bids.insert(restingOrder(2, "10.50", "5", 2))
	bids.insert(restingOrder(3, "10.00", "5", 3))

	ids := make([]uint64, 0, 3)
	for _, o := range bids.list() {
		ids = append(ids, o.OrderID)
	}
	assert.Equal(t, []uint64{2, 1, 3}, ids)
}
