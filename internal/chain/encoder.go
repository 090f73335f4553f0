package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/veloxdex/velox-go/internal/chain/tickmath"
	"github.com/veloxdex/velox-go/internal/domain"
)

// Router instruction opcodes. The first payload byte selects the operation.
const (
	opCreateLimitBatch = 0x01
	opUpdateLimitBatch = 0x02
	opCancelBatch      = 0x03
	opCreateMarket     = 0x04
)

// LimitOrderEntry is one order of a create-limit batch in wire terms:
// amounts in size-tick units, prices in price-tick units.
type LimitOrderEntry struct {
	AmountBase uint64
	PriceBase  uint64
	IsAsk      bool
	HintID     uint32
}

// UpdateOrderEntry is one order of an update-limit batch in wire terms.
type UpdateOrderEntry struct {
	OrderID    uint32
	AmountBase uint64
	PriceBase  uint64
	HintID     uint32
}

// EncodeCreateLimitBatch builds the create-limit-batch instruction:
// opcode, orderbook id, order count, then per order amount (8 bytes),
// price (8 bytes), is-ask flag (1 byte), hint id (4 bytes), all big-endian
// hex in input order.
func EncodeCreateLimitBatch(orderbookID int, entries []LimitOrderEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "0x%02x%02x%02x", opCreateLimitBatch, orderbookID, len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "%016x%016x%02x%08x", e.AmountBase, e.PriceBase, boolByte(e.IsAsk), e.HintID)
	}
	return b.String()
}

// EncodeUpdateLimitBatch builds the update-limit-batch instruction: per
// order the order id (4 bytes), amount (8 bytes), price (8 bytes), hint id
// (4 bytes).
func EncodeUpdateLimitBatch(orderbookID int, entries []UpdateOrderEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "0x%02x%02x%02x", opUpdateLimitBatch, orderbookID, len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "%08x%016x%016x%08x", e.OrderID, e.AmountBase, e.PriceBase, e.HintID)
	}
	return b.String()
}

// EncodeCancelBatch builds the cancel-batch instruction: order ids only,
// 4 bytes each.
func EncodeCancelBatch(orderbookID int, orderIDs []uint32) string {
	var b strings.Builder
	fmt.Fprintf(&b, "0x%02x%02x%02x", opCancelBatch, orderbookID, len(orderIDs))
	for _, id := range orderIDs {
		fmt.Fprintf(&b, "%08x", id)
	}
	return b.String()
}

// EncodeCreateMarket builds the create-market instruction: a single order
// with no hint id and no count prefix.
func EncodeCreateMarket(orderbookID int, amountBase, priceBase uint64, isAsk bool) string {
	return fmt.Sprintf("0x%02x%02x%016x%016x%02x", opCreateMarket, orderbookID, amountBase, priceBase, boolByte(isAsk))
}

func boolByte(v bool) int {
	if v {
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Human input to wire terms
// ---------------------------------------------------------------------------

// tickCheck validates every (size, price) pair of a batch against the
// pair's tick granularities before any conversion or network call. A single
// misaligned value aborts the whole batch; partial payloads are never
// emitted.
func (c *Chain) tickCheck(ctx context.Context, ob domain.OrderbookMeta, sizes, prices []string) error {
	token0, err := c.Token(ctx, ob.Token0Symbol)
	if err != nil {
		return err
	}
	token1, err := c.Token(ctx, ob.Token1Symbol)
	if err != nil {
		return err
	}
	for i := range sizes {
		if err := tickmath.CheckSizeTick(sizes[i], token0.PowDecimal, ob.PowSizeTick, ob.Symbol); err != nil {
			return err
		}
		if err := tickmath.CheckPriceTick(prices[i], token1.PowDecimal, ob.PowPriceTick, ob.Symbol); err != nil {
			return err
		}
	}
	return nil
}

// amountBases converts human-readable sizes to size-tick units.
func (c *Chain) amountBases(ctx context.Context, ob domain.OrderbookMeta, sizes []string) ([]uint64, error) {
	token0, err := c.Token(ctx, ob.Token0Symbol)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(sizes))
	for i, size := range sizes {
		amount, err := tickmath.AmountFromHuman(size, token0.PowDecimal)
		if err != nil {
			return nil, err
		}
		base, err := tickmath.AmountBase(amount, ob.PowSizeTick, ob.Symbol)
		if err != nil {
			return nil, err
		}
		out[i], err = fitUint64(base, "amount")
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// priceBases converts human-readable prices to price-tick units.
func (c *Chain) priceBases(ctx context.Context, ob domain.OrderbookMeta, prices []string) ([]uint64, error) {
	token1, err := c.Token(ctx, ob.Token1Symbol)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(prices))
	for i, price := range prices {
		base, err := tickmath.PriceBase(price, token1.PowDecimal, ob.PowPriceTick, ob.Symbol)
		if err != nil {
			return nil, err
		}
		out[i], err = fitUint64(base, "price")
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// hintIDs fetches one positional hint per (price, side) pair from the
// market data provider. The provider returns hints in request order, and
// the encoder consumes them in the same order; reordering would attach a
// hint to the wrong order.
func (c *Chain) hintIDs(ctx context.Context, symbol string, prices []string, sides []domain.OrderSide) ([]uint32, error) {
	hints, err := c.provider.HintIDs(ctx, symbol, prices, sides)
	if err != nil {
		return nil, err
	}
	if len(hints) != len(prices) {
		return nil, fmt.Errorf("chain: provider returned %d hint ids for %d orders", len(hints), len(prices))
	}
	return hints, nil
}

// fitUint64 rejects values too wide for their 8-byte wire field.
func fitUint64(v *big.Int, field string) (uint64, error) {
	if !v.IsUint64() {
		return 0, fmt.Errorf("chain: %s %s exceeds the 8-byte wire width", field, v.String())
	}
	return v.Uint64(), nil
}
