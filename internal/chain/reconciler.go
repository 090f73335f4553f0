package chain

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/veloxdex/velox-go/internal/chain/tickmath"
	"github.com/veloxdex/velox-go/internal/domain"
)

// ProcessReceipt blocks until the transaction is mined, then decodes and
// translates its orderbook events. The wait is bounded only by ctx; callers
// wanting a timeout attach one to the context. A reverted transaction
// yields a RevertError and is never resubmitted.
func (c *Chain) ProcessReceipt(ctx context.Context, txHash common.Hash, symbol string) (domain.ProcessedReceipt, error) {
	ob, err := c.Orderbook(symbol)
	if err != nil {
		return domain.ProcessedReceipt{}, err
	}
	token0, err := c.Token(ctx, ob.Token0Symbol)
	if err != nil {
		return domain.ProcessedReceipt{}, err
	}
	token1, err := c.Token(ctx, ob.Token1Symbol)
	if err != nil {
		return domain.ProcessedReceipt{}, err
	}

	receipt, err := waitMined(ctx, c.backend, txHash, c.receiptPoll)
	if err != nil {
		return domain.ProcessedReceipt{}, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return domain.ProcessedReceipt{}, &RevertError{TxHash: txHash, Receipt: receipt}
	}

	raw := decodeOrderbookLogs(receipt.Logs, common.HexToAddress(ob.Address))

	out := domain.ProcessedReceipt{
		Discarded:  raw.discarded,
		NetworkFee: networkFee(receipt),
	}

	for _, ev := range raw.limitCreated {
		created, ok := c.translateCreated(ev, ob, token0, token1, domain.OrderTypeLimit)
		if !ok {
			out.Discarded++
			continue
		}
		out.LimitOrdersCreated = append(out.LimitOrdersCreated, created)
	}
	for _, ev := range raw.marketCreated {
		created, ok := c.translateCreated(ev, ob, token0, token1, domain.OrderTypeMarket)
		if !ok {
			out.Discarded++
			continue
		}
		out.MarketOrdersCreated = append(out.MarketOrdersCreated, created)
	}
	for _, ev := range raw.canceled {
		created, ok := c.translateCreated(ev, ob, token0, token1, domain.OrderTypeLimit)
		if !ok {
			out.Discarded++
			continue
		}
		out.LimitOrdersCanceled = append(out.LimitOrdersCanceled, domain.OrderCanceledEvent{
			Orderbook: created.Orderbook,
			OrderID:   created.OrderID,
			Size:      created.Size,
			Price:     created.Price,
			Type:      domain.OrderTypeLimit,
			Status:    domain.OrderStatusCanceled,
			Side:      created.Side,
		})
	}
	for _, ev := range raw.swaps {
		fill, ok := c.translateSwap(ev, token0, token1)
		if !ok {
			out.Discarded++
			continue
		}
		out.Trades = append(out.Trades, fill)
	}

	if out.Discarded > 0 {
		c.log.Warn("discarded undecodable receipt logs",
			slog.String("tx_hash", txHash.Hex()),
			slog.Int("discarded", out.Discarded))
	}

	return out, nil
}

func (c *Chain) translateCreated(ev rawOrderEvent, ob domain.OrderbookMeta, token0, token1 domain.TokenInfo, typ domain.OrderType) (domain.OrderCreatedEvent, bool) {
	size, err := tickmath.HumanFromAmount(ev.Amount0, token0.PowDecimal)
	if err != nil {
		return domain.OrderCreatedEvent{}, false
	}
	price, err := tickmath.PriceFromAmounts(ev.Amount0, ev.Amount1, token0.PowDecimal, token1.PowDecimal)
	if err != nil {
		return domain.OrderCreatedEvent{}, false
	}
	side := domain.OrderSideBuy
	if ev.IsAsk {
		side = domain.OrderSideSell
	}
	return domain.OrderCreatedEvent{
		Orderbook: ob.Symbol,
		OrderID:   int64(ev.Id),
		Size:      size,
		Price:     price,
		Type:      typ,
		Side:      side,
	}, true
}

func (c *Chain) translateSwap(ev rawSwapEvent, token0, token1 domain.TokenInfo) (domain.Fill, bool) {
	size, err := tickmath.HumanFromAmount(ev.Amount0, token0.PowDecimal)
	if err != nil {
		return domain.Fill{}, false
	}
	price, err := tickmath.PriceFromAmounts(ev.Amount0, ev.Amount1, token0.PowDecimal, token1.PowDecimal)
	if err != nil {
		return domain.Fill{}, false
	}
	return domain.Fill{
		Size:  size,
		Price: price,
		AskID: int64(ev.AskId),
		BidID: int64(ev.BidId),
	}, true
}

// networkFee is the fee actually paid: gasUsed * effectiveGasPrice in wei.
func networkFee(receipt *types.Receipt) *big.Int {
	if receipt.EffectiveGasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), receipt.EffectiveGasPrice)
}

// ---------------------------------------------------------------------------
// Result reconstruction
// ---------------------------------------------------------------------------

// CreateOrderResults reconciles a create transaction: every created order
// (limit or market) is matched to the fills the same receipt produced for
// it.
func (c *Chain) CreateOrderResults(ctx context.Context, txHash common.Hash, symbol string) ([]domain.OrderResult, error) {
	processed, err := c.ProcessReceipt(ctx, txHash, symbol)
	if err != nil {
		return nil, err
	}
	return buildOrderResults(symbol, processed), nil
}

// CanceledOrderResults reconciles a cancel transaction: canceled-order
// events map one to one onto cancellation results.
func (c *Chain) CanceledOrderResults(ctx context.Context, txHash common.Hash, symbol string) ([]domain.CancelResult, error) {
	processed, err := c.ProcessReceipt(ctx, txHash, symbol)
	if err != nil {
		return nil, err
	}
	return buildCancelResults(processed), nil
}

// UpdateOrderResults reconciles an update transaction. One receipt carries
// both the cancellations and the recreations, so both subsets come from a
// single processing pass; no ordering holds between them.
func (c *Chain) UpdateOrderResults(ctx context.Context, txHash common.Hash, symbol string) (domain.UpdateResult, error) {
	processed, err := c.ProcessReceipt(ctx, txHash, symbol)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	return domain.UpdateResult{
		Created:  buildOrderResults(symbol, processed),
		Canceled: buildCancelResults(processed),
	}, nil
}

// buildOrderResults matches created orders to their fills. A sell-side
// order owns the trades whose ask id equals its order id; a buy-side order
// matches on bid id. The status comparison is exact-decimal: both sides
// originate from tick-aligned on-chain integers.
func buildOrderResults(symbol string, processed domain.ProcessedReceipt) []domain.OrderResult {
	created := make([]domain.OrderCreatedEvent, 0, len(processed.LimitOrdersCreated)+len(processed.MarketOrdersCreated))
	created = append(created, processed.LimitOrdersCreated...)
	created = append(created, processed.MarketOrdersCreated...)

	results := make([]domain.OrderResult, 0, len(created))
	for _, ev := range created {
		var fills []domain.Fill
		for _, trade := range processed.Trades {
			if ev.Side == domain.OrderSideSell && trade.AskID == ev.OrderID {
				fills = append(fills, trade)
			} else if ev.Side == domain.OrderSideBuy && trade.BidID == ev.OrderID {
				fills = append(fills, trade)
			}
		}

		filled := decimal.Zero
		for _, fill := range fills {
			filled = filled.Add(fill.Size)
		}

		status := domain.OrderStatusPartiallyFilled
		if filled.Equal(ev.Size) {
			status = domain.OrderStatusFilled
		}

		results = append(results, domain.OrderResult{
			Orderbook:  symbol,
			OrderID:    ev.OrderID,
			Size:       ev.Size,
			FilledSize: filled,
			Price:      ev.Price,
			Status:     status,
			Type:       ev.Type,
			Side:       ev.Side,
			Fills:      fills,
		})
	}
	return results
}

func buildCancelResults(processed domain.ProcessedReceipt) []domain.CancelResult {
	results := make([]domain.CancelResult, 0, len(processed.LimitOrdersCanceled))
	for _, ev := range processed.LimitOrdersCanceled {
		results = append(results, domain.CancelResult{
			Orderbook: ev.Orderbook,
			OrderID:   ev.OrderID,
			Size:      ev.Size,
			Price:     ev.Price,
			Status:    domain.OrderStatusCanceled,
			Type:      domain.OrderTypeLimit,
			Side:      ev.Side,
		})
	}
	return results
}
