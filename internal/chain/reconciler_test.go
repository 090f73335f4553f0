package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloxdex/velox-go/internal/domain"
)

var (
	testOrderbookAddr = common.HexToAddress("0x2000000000000000000000000000000000000002")
	testWETHAddr      = common.HexToAddress("0x3000000000000000000000000000000000000003")
	testUSDCAddr      = common.HexToAddress("0x4000000000000000000000000000000000000004")
	testOwner         = common.HexToAddress("0x5000000000000000000000000000000000000005")
)

// erc20Backend answers decimals() for the two fixture tokens.
func erc20Backend() *fakeBackend {
	return &fakeBackend{
		receipts: make(map[common.Hash]*types.Receipt),
		callContractFn: func(msg ethereum.CallMsg) ([]byte, error) {
			var dec uint8
			switch *msg.To {
			case testWETHAddr:
				dec = 18
			case testUSDCAddr:
				dec = 6
			default:
				return nil, errors.New("unknown contract")
			}
			return erc20ABI.Methods["decimals"].Outputs.Pack(dec)
		},
	}
}

func newReconcilerChain(t *testing.T, backend *fakeBackend) *Chain {
	t.Helper()
	c, err := New(backend, &fakeProvider{}, Config{
		ChainID:             big.NewInt(1),
		Orderbooks:          testOrderbooks(),
		ReceiptPollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func orderLog(t *testing.T, event string, id uint32, amount0, amount1 *big.Int, isAsk bool) *types.Log {
	t.Helper()
	ev := orderbookABI.Events[event]
	data, err := ev.Inputs.NonIndexed().Pack(id, amount0, amount1, isAsk)
	require.NoError(t, err)
	return &types.Log{
		Address: testOrderbookAddr,
		Topics:  []common.Hash{ev.ID, common.BytesToHash(testOwner.Bytes())},
		Data:    data,
	}
}

func swapLog(t *testing.T, askID, bidID uint32, amount0, amount1 *big.Int) *types.Log {
	t.Helper()
	ev := orderbookABI.Events["Swap"]
	data, err := ev.Inputs.NonIndexed().Pack(askID, bidID, amount0, amount1)
	require.NoError(t, err)
	return &types.Log{
		Address: testOrderbookAddr,
		Topics:  []common.Hash{ev.ID, common.BytesToHash(testOwner.Bytes()), common.BytesToHash(testOwner.Bytes())},
		Data:    data,
	}
}

func minedReceipt(backend *fakeBackend, txHash common.Hash, logs []*types.Log) {
	backend.receipts[txHash] = &types.Receipt{
		Status:            types.ReceiptStatusSuccessful,
		Logs:              logs,
		GasUsed:           100_000,
		EffectiveGasPrice: big.NewInt(2_000_000_000),
	}
}

func TestProcessReceipt(t *testing.T) {
	backend := erc20Backend()
	c := newReconcilerChain(t, backend)
	txHash := common.HexToHash("0xaa")

	foreign := &types.Log{
		Address: common.HexToAddress("0x9999999999999999999999999999999999999999"),
		Topics:  []common.Hash{common.HexToHash("0x01")},
	}
	minedReceipt(backend, txHash, []*types.Log{
		orderLog(t, "LimitOrderCreated", 7, big.NewInt(2_000_000_000_000_000), big.NewInt(2_000_000), false),
		swapLog(t, 3, 7, big.NewInt(1_000_000_000_000_000), big.NewInt(1_000_000)),
		foreign,
	})

	processed, err := c.ProcessReceipt(context.Background(), txHash, "WETH_USDC")
	require.NoError(t, err)

	require.Len(t, processed.LimitOrdersCreated, 1)
	created := processed.LimitOrdersCreated[0]
	assert.Equal(t, int64(7), created.OrderID)
	assert.Equal(t, "0.002", created.Size.String())
	assert.Equal(t, "1000", created.Price.String())
	assert.Equal(t, domain.OrderSideBuy, created.Side)
	assert.Equal(t, domain.OrderTypeLimit, created.Type)

	require.Len(t, processed.Trades, 1)
	trade := processed.Trades[0]
	assert.Equal(t, "0.001", trade.Size.String())
	assert.Equal(t, "1000", trade.Price.String())
	assert.Equal(t, int64(3), trade.AskID)
	assert.Equal(t, int64(7), trade.BidID)

	// The foreign log is dropped, not fatal.
	assert.Equal(t, 1, processed.Discarded)
	assert.Equal(t, big.NewInt(200_000_000_000_000), processed.NetworkFee)
}

func TestProcessReceiptRevert(t *testing.T) {
	backend := erc20Backend()
	c := newReconcilerChain(t, backend)
	txHash := common.HexToHash("0xbb")

	backend.receipts[txHash] = &types.Receipt{
		Status:  types.ReceiptStatusFailed,
		GasUsed: 100_000,
	}

	_, err := c.ProcessReceipt(context.Background(), txHash, "WETH_USDC")
	var revertErr *RevertError
	require.True(t, errors.As(err, &revertErr))
	assert.Equal(t, txHash, revertErr.TxHash)
}

func TestProcessReceiptUnknownOrderbook(t *testing.T) {
	c := newReconcilerChain(t, erc20Backend())

	_, err := c.ProcessReceipt(context.Background(), common.HexToHash("0xcc"), "NOPE_USDC")
	var unknownErr *domain.UnknownOrderbookError
	require.True(t, errors.As(err, &unknownErr))
}

func TestCreateOrderResultsPartialFill(t *testing.T) {
	backend := erc20Backend()
	c := newReconcilerChain(t, backend)
	txHash := common.HexToHash("0xdd")

	// A sell order matches trades by ask id.
	minedReceipt(backend, txHash, []*types.Log{
		orderLog(t, "LimitOrderCreated", 11, big.NewInt(2_000_000_000_000_000), big.NewInt(2_000_000), true),
		swapLog(t, 11, 90, big.NewInt(1_000_000_000_000_000), big.NewInt(1_000_000)),
	})

	results, err := c.CreateOrderResults(context.Background(), txHash, "WETH_USDC")
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, int64(11), result.OrderID)
	assert.Equal(t, domain.OrderSideSell, result.Side)
	assert.Equal(t, "0.002", result.Size.String())
	assert.Equal(t, "0.001", result.FilledSize.String())
	assert.Equal(t, domain.OrderStatusPartiallyFilled, result.Status)
	require.Len(t, result.Fills, 1)
}

func TestCreateOrderResultsFullFill(t *testing.T) {
	backend := erc20Backend()
	c := newReconcilerChain(t, backend)
	txHash := common.HexToHash("0xee")

	minedReceipt(backend, txHash, []*types.Log{
		orderLog(t, "MarketOrderCreated", 21, big.NewInt(1_000_000_000_000_000), big.NewInt(1_000_000), false),
		swapLog(t, 77, 21, big.NewInt(1_000_000_000_000_000), big.NewInt(1_000_000)),
	})

	results, err := c.CreateOrderResults(context.Background(), txHash, "WETH_USDC")
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, domain.OrderTypeMarket, result.Type)
	assert.Equal(t, domain.OrderStatusFilled, result.Status)
	assert.True(t, result.FilledSize.Equal(result.Size))
}

func TestCreateOrderResultsIgnoresOtherSideTrades(t *testing.T) {
	backend := erc20Backend()
	c := newReconcilerChain(t, backend)
	txHash := common.HexToHash("0xff")

	// A buy order whose id shows up only as the ask id of a trade gets no
	// fills attributed.
	minedReceipt(backend, txHash, []*types.Log{
		orderLog(t, "LimitOrderCreated", 5, big.NewInt(1_000_000_000_000_000), big.NewInt(1_000_000), false),
		swapLog(t, 5, 99, big.NewInt(1_000_000_000_000_000), big.NewInt(1_000_000)),
	})

	results, err := c.CreateOrderResults(context.Background(), txHash, "WETH_USDC")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Fills)
	assert.Equal(t, domain.OrderStatusPartiallyFilled, results[0].Status)
}

func TestCanceledOrderResults(t *testing.T) {
	backend := erc20Backend()
	c := newReconcilerChain(t, backend)
	txHash := common.HexToHash("0x1a")

	minedReceipt(backend, txHash, []*types.Log{
		orderLog(t, "LimitOrderCanceled", 12, big.NewInt(5_000_000_000_000_000), big.NewInt(6_000_000), true),
	})

	results, err := c.CanceledOrderResults(context.Background(), txHash, "WETH_USDC")
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, int64(12), result.OrderID)
	assert.Equal(t, "0.005", result.Size.String())
	assert.Equal(t, "1200", result.Price.String())
	assert.Equal(t, domain.OrderStatusCanceled, result.Status)
	assert.Equal(t, domain.OrderSideSell, result.Side)
}

func TestUpdateOrderResults(t *testing.T) {
	backend := erc20Backend()
	c := newReconcilerChain(t, backend)
	txHash := common.HexToHash("0x2b")

	// One receipt carries both the cancellation and the recreation.
	minedReceipt(backend, txHash, []*types.Log{
		orderLog(t, "LimitOrderCanceled", 30, big.NewInt(1_000_000_000_000_000), big.NewInt(1_000_000), false),
		orderLog(t, "LimitOrderCreated", 31, big.NewInt(1_000_000_000_000_000), big.NewInt(1_100_000), false),
	})

	result, err := c.UpdateOrderResults(context.Background(), txHash, "WETH_USDC")
	require.NoError(t, err)

	require.Len(t, result.Canceled, 1)
	assert.Equal(t, int64(30), result.Canceled[0].OrderID)
	require.Len(t, result.Created, 1)
	assert.Equal(t, int64(31), result.Created[0].OrderID)
	assert.Equal(t, "1100", result.Created[0].Price.String())
}
