package chain

import (
	"context"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veloxdex/velox-go/internal/domain"
)

// CreateLimitOrderBatch validates, encodes, and broadcasts a batch of limit
// orders against one orderbook. sizes, prices, and sides are parallel
// slices; entries keep their input order on the wire.
func (c *Chain) CreateLimitOrderBatch(ctx context.Context, symbol string, sizes, prices []string, sides []domain.OrderSide, opts *SendOptions) (SendResult, error) {
	if len(sizes) == 0 || len(sizes) != len(prices) || len(sizes) != len(sides) {
		return SendResult{}, fmt.Errorf("chain: create limit batch: %w", domain.ErrLengthMismatch)
	}
	ob, err := c.Orderbook(symbol)
	if err != nil {
		return SendResult{}, err
	}
	if err := c.tickCheck(ctx, ob, sizes, prices); err != nil {
		return SendResult{}, err
	}

	hints, err := c.hintIDs(ctx, symbol, prices, sides)
	if err != nil {
		return SendResult{}, err
	}
	amounts, err := c.amountBases(ctx, ob, sizes)
	if err != nil {
		return SendResult{}, err
	}
	priceUnits, err := c.priceBases(ctx, ob, prices)
	if err != nil {
		return SendResult{}, err
	}

	entries := make([]LimitOrderEntry, len(sizes))
	for i := range sizes {
		entries[i] = LimitOrderEntry{
			AmountBase: amounts[i],
			PriceBase:  priceUnits[i],
			IsAsk:      sides[i].IsAsk(),
			HintID:     hints[i],
		}
	}

	payload := EncodeCreateLimitBatch(ob.ID, entries)
	return c.sendTransaction(ctx, c.router, common.FromHex(payload), withOrderGas(opts))
}

// UpdateLimitOrderBatch replaces existing orders: on-chain each entry is a
// cancel of orderIDs[i] followed by a recreate with the new size and price.
// oldSides are the sides of the orders being replaced; they drive hint
// lookup.
func (c *Chain) UpdateLimitOrderBatch(ctx context.Context, symbol string, orderIDs []int64, sizes, prices []string, oldSides []domain.OrderSide, opts *SendOptions) (SendResult, error) {
	if len(orderIDs) == 0 || len(orderIDs) != len(sizes) || len(sizes) != len(prices) || len(sizes) != len(oldSides) {
		return SendResult{}, fmt.Errorf("chain: update limit batch: %w", domain.ErrLengthMismatch)
	}
	ob, err := c.Orderbook(symbol)
	if err != nil {
		return SendResult{}, err
	}
	if err := c.tickCheck(ctx, ob, sizes, prices); err != nil {
		return SendResult{}, err
	}

	ids, err := orderIDsToWire(orderIDs)
	if err != nil {
		return SendResult{}, err
	}
	hints, err := c.hintIDs(ctx, symbol, prices, oldSides)
	if err != nil {
		return SendResult{}, err
	}
	amounts, err := c.amountBases(ctx, ob, sizes)
	if err != nil {
		return SendResult{}, err
	}
	priceUnits, err := c.priceBases(ctx, ob, prices)
	if err != nil {
		return SendResult{}, err
	}

	entries := make([]UpdateOrderEntry, len(sizes))
	for i := range sizes {
		entries[i] = UpdateOrderEntry{
			OrderID:    ids[i],
			AmountBase: amounts[i],
			PriceBase:  priceUnits[i],
			HintID:     hints[i],
		}
	}

	payload := EncodeUpdateLimitBatch(ob.ID, entries)
	return c.sendTransaction(ctx, c.router, common.FromHex(payload), withOrderGas(opts))
}

// CancelLimitOrderBatch cancels the given resting orders.
func (c *Chain) CancelLimitOrderBatch(ctx context.Context, symbol string, orderIDs []int64, opts *SendOptions) (SendResult, error) {
	if len(orderIDs) == 0 {
		return SendResult{}, fmt.Errorf("chain: cancel batch: %w", domain.ErrLengthMismatch)
	}
	ob, err := c.Orderbook(symbol)
	if err != nil {
		return SendResult{}, err
	}
	ids, err := orderIDsToWire(orderIDs)
	if err != nil {
		return SendResult{}, err
	}

	payload := EncodeCancelBatch(ob.ID, ids)
	return c.sendTransaction(ctx, c.router, common.FromHex(payload), withOrderGas(opts))
}

// CreateMarketOrder broadcasts a single market order. The price acts as the
// worst acceptable execution bound and must still be tick-aligned.
func (c *Chain) CreateMarketOrder(ctx context.Context, symbol, size, price string, side domain.OrderSide, opts *SendOptions) (SendResult, error) {
	ob, err := c.Orderbook(symbol)
	if err != nil {
		return SendResult{}, err
	}
	if err := c.tickCheck(ctx, ob, []string{size}, []string{price}); err != nil {
		return SendResult{}, err
	}

	amounts, err := c.amountBases(ctx, ob, []string{size})
	if err != nil {
		return SendResult{}, err
	}
	priceUnits, err := c.priceBases(ctx, ob, []string{price})
	if err != nil {
		return SendResult{}, err
	}

	payload := EncodeCreateMarket(ob.ID, amounts[0], priceUnits[0], side.IsAsk())
	return c.sendTransaction(ctx, c.router, common.FromHex(payload), withOrderGas(opts))
}

// withOrderGas pins the fixed router gas limit unless the caller supplied
// one. Order instructions are never estimated.
func withOrderGas(opts *SendOptions) *SendOptions {
	var merged SendOptions
	if opts != nil {
		merged = *opts
	}
	if merged.Gas == 0 {
		merged.Gas = orderGasLimit
	}
	return &merged
}

func orderIDsToWire(orderIDs []int64) ([]uint32, error) {
	ids := make([]uint32, len(orderIDs))
	for i, id := range orderIDs {
		if id < 0 || id > math.MaxUint32 {
			return nil, fmt.Errorf("chain: order id %d exceeds the 4-byte wire width", id)
		}
		ids[i] = uint32(id)
	}
	return ids, nil
}
