// Package service orchestrates the full order lifecycle: broadcast through
// the chain client, reconciliation against the mined receipt, and optional
// persistence of the audit trail.
package service

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/veloxdex/velox-go/internal/chain"
	"github.com/veloxdex/velox-go/internal/domain"
)

// TradingService submits orders and reconciles their settled results. The
// submission store is optional; without one the service only logs.
type TradingService struct {
	chain  *chain.Chain
	store  domain.SubmissionStore
	logger *slog.Logger
}

// NewTradingService creates a TradingService. store may be nil.
func NewTradingService(c *chain.Chain, store domain.SubmissionStore, logger *slog.Logger) *TradingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TradingService{
		chain:  c,
		store:  store,
		logger: logger.With(slog.String("component", "trading")),
	}
}

// PlaceLimitOrders broadcasts a batch of limit orders and blocks until the
// transaction settles, returning one result per created order with its fills.
func (s *TradingService) PlaceLimitOrders(ctx context.Context, symbol string, sizes, prices []string, sides []domain.OrderSide) ([]domain.OrderResult, error) {
	sent, err := s.chain.CreateLimitOrderBatch(ctx, symbol, sizes, prices, sides, nil)
	if err != nil {
		return nil, err
	}
	s.recordSubmission(ctx, sent, symbol, "create_limit")

	results, err := s.chain.CreateOrderResults(ctx, sent.TxHash, symbol)
	if err != nil {
		return nil, err
	}
	s.recordResults(ctx, sent.TxHash, results, nil)
	return results, nil
}

// UpdateLimitOrders replaces resting orders in one transaction and returns
// both the cancellations and the recreated orders.
func (s *TradingService) UpdateLimitOrders(ctx context.Context, symbol string, orderIDs []int64, sizes, prices []string, oldSides []domain.OrderSide) (domain.UpdateResult, error) {
	sent, err := s.chain.UpdateLimitOrderBatch(ctx, symbol, orderIDs, sizes, prices, oldSides, nil)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	s.recordSubmission(ctx, sent, symbol, "update_limit")

	result, err := s.chain.UpdateOrderResults(ctx, sent.TxHash, symbol)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	s.recordResults(ctx, sent.TxHash, result.Created, result.Canceled)
	return result, nil
}

// CancelOrders cancels the given resting orders and returns the confirmed
// cancellations.
func (s *TradingService) CancelOrders(ctx context.Context, symbol string, orderIDs []int64) ([]domain.CancelResult, error) {
	sent, err := s.chain.CancelLimitOrderBatch(ctx, symbol, orderIDs, nil)
	if err != nil {
		return nil, err
	}
	s.recordSubmission(ctx, sent, symbol, "cancel")

	results, err := s.chain.CanceledOrderResults(ctx, sent.TxHash, symbol)
	if err != nil {
		return nil, err
	}
	s.recordResults(ctx, sent.TxHash, nil, results)
	return results, nil
}

// PlaceMarketOrder broadcasts a single market order. price is the worst
// acceptable execution bound.
func (s *TradingService) PlaceMarketOrder(ctx context.Context, symbol, size, price string, side domain.OrderSide) ([]domain.OrderResult, error) {
	sent, err := s.chain.CreateMarketOrder(ctx, symbol, size, price, side, nil)
	if err != nil {
		return nil, err
	}
	s.recordSubmission(ctx, sent, symbol, "create_market")

	results, err := s.chain.CreateOrderResults(ctx, sent.TxHash, symbol)
	if err != nil {
		return nil, err
	}
	s.recordResults(ctx, sent.TxHash, results, nil)
	return results, nil
}

// Submissions lists the most recent recorded submissions. Returns nil when no
// store is configured.
func (s *TradingService) Submissions(ctx context.Context, limit int) ([]domain.Submission, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListSubmissions(ctx, limit)
}

func (s *TradingService) recordSubmission(ctx context.Context, sent chain.SendResult, symbol, op string) {
	s.logger.Info("order submitted",
		slog.String("tx_hash", sent.TxHash.Hex()),
		slog.String("orderbook", symbol),
		slog.String("op", op),
		slog.Uint64("nonce", sent.Nonce),
		slog.Int("attempts", sent.Attempts))

	if s.store == nil {
		return
	}

	gasPrice := "0"
	if sent.GasPrice != nil {
		gasPrice = new(big.Int).Set(sent.GasPrice).String()
	}
	sub := domain.Submission{
		ID:        uuid.NewString(),
		TxHash:    sent.TxHash.Hex(),
		Orderbook: symbol,
		Op:        op,
		Payload:   sent.Payload,
		Sender:    sent.From.Hex(),
		Nonce:     sent.Nonce,
		GasPrice:  gasPrice,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.RecordSubmission(ctx, sub); err != nil {
		s.logger.Warn("submission record failed",
			slog.String("tx_hash", sent.TxHash.Hex()),
			slog.String("error", err.Error()))
	}
}

func (s *TradingService) recordResults(ctx context.Context, txHash common.Hash, created []domain.OrderResult, canceled []domain.CancelResult) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordResults(ctx, txHash.Hex(), created, canceled); err != nil {
		s.logger.Warn("result record failed",
			slog.String("tx_hash", txHash.Hex()),
			slog.String("error", err.Error()))
	}
}
