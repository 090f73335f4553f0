package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloxdex/velox-go/internal/domain"
)

func TestCreateLimitOrderBatchPayload(t *testing.T) {
	backend := erc20Backend()
	provider := &fakeProvider{hints: []uint32{1, 2, 3}}
	c := newTestChain(t, backend, provider)

	sides := []domain.OrderSide{domain.OrderSideBuy, domain.OrderSideSell, domain.OrderSideBuy}
	result, err := c.CreateLimitOrderBatch(context.Background(), "WETH_USDC",
		[]string{"0.001", "0.002", "0.003"},
		[]string{"1000", "1000.2", "1000.3"},
		sides, nil)
	require.NoError(t, err)

	const want = "0x010003" +
		"000000000000000100000000000027100000000001" +
		"000000000000000200000000000027120100000002" +
		"000000000000000300000000000027130000000003"
	assert.Equal(t, want, result.Payload)

	require.Len(t, backend.sentTxs, 1)
	tx := backend.sentTxs[0]
	assert.Equal(t, common.FromHex(want), tx.Data())
	assert.Equal(t, c.router, *tx.To())
	// Order instructions carry the fixed router gas limit.
	assert.Equal(t, uint64(orderGasLimit), tx.Gas())
}

func TestCreateLimitOrderBatchMisalignedPrice(t *testing.T) {
	backend := erc20Backend()
	c := newTestChain(t, backend, &fakeProvider{hints: []uint32{0, 0}})

	_, err := c.CreateLimitOrderBatch(context.Background(), "WETH_USDC",
		[]string{"0.001", "0.002"},
		[]string{"1000", "1000.05"},
		[]domain.OrderSide{domain.OrderSideBuy, domain.OrderSideBuy}, nil)

	var tickErr *domain.TickAlignmentError
	require.True(t, errors.As(err, &tickErr))
	// One bad entry aborts the whole batch before any broadcast.
	assert.Empty(t, backend.sentTxs)
}

func TestCreateLimitOrderBatchLengthMismatch(t *testing.T) {
	c := newTestChain(t, erc20Backend(), &fakeProvider{})

	_, err := c.CreateLimitOrderBatch(context.Background(), "WETH_USDC",
		[]string{"0.001", "0.002"},
		[]string{"1000"},
		[]domain.OrderSide{domain.OrderSideBuy}, nil)
	assert.ErrorIs(t, err, domain.ErrLengthMismatch)
}

func TestCreateLimitOrderBatchHintCountMismatch(t *testing.T) {
	backend := erc20Backend()
	c := newTestChain(t, backend, &fakeProvider{hints: []uint32{1}})

	_, err := c.CreateLimitOrderBatch(context.Background(), "WETH_USDC",
		[]string{"0.001", "0.002"},
		[]string{"1000", "1000.2"},
		[]domain.OrderSide{domain.OrderSideBuy, domain.OrderSideSell}, nil)
	require.Error(t, err)
	assert.Empty(t, backend.sentTxs)
}

func TestCancelLimitOrderBatchPayload(t *testing.T) {
	backend := erc20Backend()
	c := newTestChain(t, backend, &fakeProvider{})

	result, err := c.CancelLimitOrderBatch(context.Background(), "WETH_USDC",
		[]int64{3505, 3506, 3507}, nil)
	require.NoError(t, err)
	assert.Equal(t, "0x03000300000db100000db200000db3", result.Payload)
}

func TestCancelLimitOrderBatchIDRange(t *testing.T) {
	c := newTestChain(t, erc20Backend(), &fakeProvider{})

	_, err := c.CancelLimitOrderBatch(context.Background(), "WETH_USDC",
		[]int64{1 << 40}, nil)
	assert.Error(t, err)

	_, err = c.CancelLimitOrderBatch(context.Background(), "WETH_USDC", nil, nil)
	assert.ErrorIs(t, err, domain.ErrLengthMismatch)
}

func TestCreateMarketOrderPayload(t *testing.T) {
	backend := erc20Backend()
	c := newTestChain(t, backend, &fakeProvider{})

	result, err := c.CreateMarketOrder(context.Background(), "WETH_USDC",
		"0.001", "1000", domain.OrderSideBuy, nil)
	require.NoError(t, err)
	assert.Equal(t, "0x04000000000000000001000000000000271000", result.Payload)
}

func TestUpdateLimitOrderBatchPayload(t *testing.T) {
	backend := erc20Backend()
	c := newTestChain(t, backend, &fakeProvider{hints: []uint32{7}})

	result, err := c.UpdateLimitOrderBatch(context.Background(), "WETH_USDC",
		[]int64{3505}, []string{"0.001"}, []string{"1000"},
		[]domain.OrderSide{domain.OrderSideSell}, nil)
	require.NoError(t, err)
	assert.Equal(t,
		"0x020001"+"00000db1"+"0000000000000001"+"0000000000002710"+"00000007",
		result.Payload)
}

func TestUnknownOrderbook(t *testing.T) {
	c := newTestChain(t, erc20Backend(), &fakeProvider{})

	_, err := c.CreateMarketOrder(context.Background(), "DOGE_USDC",
		"1", "1", domain.OrderSideBuy, nil)
	var unknownErr *domain.UnknownOrderbookError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "DOGE_USDC", unknownErr.Symbol)
}
