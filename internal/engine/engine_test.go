package engine

import (
	"testing"

	"fenrir/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnginePlaceCancelModifyRoundTrip(t *testing.T) {
	eng := New(&recordingSink{}, common.Equities)

	result, err := eng.PlaceOrder(common.Equities, limitReq(common.Buy, "10.00", "5", "alice"))
	require.NoError(t, err)
	require.NotNil(t, result.Order)

	err = eng.ModifyOrder(common.Equities, common.Buy, result.Order.OrderID, ModifyRequest{Price: d("10.00"), Quantity: d("3")})
	require.NoError(t, err)

	summary, ok := eng.Summary(common.Equities)
	require.True(t, ok)
	require.NotNil(t, summary.BestBid)
	assert.True(t, summary.BestBid.Equal(d("10.00")))
	assert.True(t, summary.BidVolume.Equal(d("3")))

	err = eng.CancelOrder(common.Equities, common.Buy, result.Order.OrderID)
	require.NoError(t, err)

	summary, ok = eng.Summary(common.Equities)
	require.True(t, ok)
	assert.Nil(t, summary.BestBid)
}

func TestEngineUnsupportedAssetIsInvalidOrderType(t *testing.T) {
	eng := New(&recordingSink{}, common.Equities)
	const unsupported common.AssetType = 999

	_, err := eng.PlaceOrder(unsupported, limitReq(common.Buy, "10.00", "5", "alice"))
	assert.ErrorIs(t, err, common.ErrInvalidOrderType)

	_, ok := eng.Summary(unsupported)
	assert.False(t, ok)
}
