package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/veloxdex/velox-go/internal/domain"
)

// maxBroadcastAttempts bounds the send-and-retry loop: one initial
// broadcast plus recovery retries for the two recognized transient
// rejection reasons.
const maxBroadcastAttempts = 3

// maxRetryGasPrice caps the fee-doubling retry branch at 500 gwei so a
// misbehaving node cannot talk the client into an unbounded fee.
var maxRetryGasPrice = big.NewInt(500_000_000_000)

// SendOptions are the caller-overridable transaction parameters. Zero
// fields fall back to the session defaults, then to the package defaults.
// The chain id is never overridable; it is always the active chain's.
type SendOptions struct {
	// From overrides the sender. Defaults to the configured signing account.
	From common.Address

	// Nonce pins an explicit nonce, bypassing the cached counter. A pinned
	// nonce is never refreshed by the retry loop.
	Nonce *uint64

	// GasPrice pins the gas price in wei, skipping the oracle.
	GasPrice *big.Int

	// Gas pins the gas limit, skipping estimation.
	Gas uint64

	// GasMultiplier pads the gas estimate. Defaults to DefaultGasMultiplier.
	GasMultiplier float64

	// Value is the native amount to attach. Defaults to zero.
	Value *big.Int
}

// SendResult describes a successfully broadcast transaction.
type SendResult struct {
	TxHash   common.Hash
	From     common.Address
	Nonce    uint64
	GasPrice *big.Int
	Attempts int
	Payload  string // 0x-prefixed calldata
}

// sendTransaction assigns nonce and fee parameters, signs, and broadcasts a
// raw transaction to the given destination, retrying up to
// maxBroadcastAttempts times on the two recognized transient rejections:
// a stale nonce (refresh from the chain and retry) and an underpriced fee
// (double the gas price, clamped to maxRetryGasPrice, and retry). Any other
// rejection is fatal immediately.
//
// The per-address nonce lock is held from nonce assignment through the
// final broadcast outcome, so concurrent submissions from one sender are
// serialized and can never reuse a nonce.
func (c *Chain) sendTransaction(ctx context.Context, to common.Address, data []byte, opts *SendOptions) (SendResult, error) {
	merged := c.mergeOptions(opts)

	from := merged.From
	if from == (common.Address{}) {
		from = c.account
	}
	if from == (common.Address{}) {
		return SendResult{}, domain.ErrNoSender
	}
	if c.key == nil {
		return SendResult{}, fmt.Errorf("chain: no signing key configured")
	}

	log := c.log.With(
		slog.String("submission_id", uuid.NewString()),
		slog.String("to", to.Hex()),
		slog.String("from", from.Hex()),
	)

	entry := c.nonces.acquire(from)
	defer entry.release()

	var (
		nonce       uint64
		err         error
		pinnedNonce = merged.Nonce != nil
	)
	if pinnedNonce {
		nonce = *merged.Nonce
	} else {
		nonce, err = entry.nextNonce(ctx, c.backend, from)
		if err != nil {
			return SendResult{}, err
		}
	}

	gasPrice := merged.GasPrice
	if gasPrice == nil {
		oracle, oerr := c.provider.GasPrice(ctx)
		if oerr != nil {
			log.Warn("gas price oracle unavailable, using default",
				slog.String("error", oerr.Error()),
				slog.Int64("default_wei", DefaultGasPrice))
			gasPrice = big.NewInt(DefaultGasPrice)
		} else {
			gasPrice = new(big.Int).Add(oracle, big.NewInt(GasPriceMargin))
		}
	}

	value := merged.Value
	if value == nil {
		value = new(big.Int)
	}

	gas := merged.Gas
	if gas == 0 {
		multiplier := merged.GasMultiplier
		if multiplier <= 0 {
			multiplier = DefaultGasMultiplier
		}
		estimate, eerr := c.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:     from,
			To:       &to,
			GasPrice: gasPrice,
			Value:    value,
			Data:     data,
		})
		if eerr != nil {
			// Estimation failure alone never aborts a submission.
			log.Warn("gas estimation failed, using default limit",
				slog.String("error", eerr.Error()),
				slog.Int("default_gas", DefaultGasLimit))
			gas = DefaultGasLimit
		} else {
			gas = uint64(float64(estimate) * multiplier)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxBroadcastAttempts; attempt++ {
		tx := types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       &to,
			Value:    value,
			Data:     data,
		})
		signed, serr := types.SignTx(tx, c.signer, c.key)
		if serr != nil {
			return SendResult{}, fmt.Errorf("chain: sign transaction: %w", serr)
		}

		sendErr := c.backend.SendTransaction(ctx, signed)
		if sendErr == nil {
			entry.advance(nonce)
			log.Info("transaction broadcast",
				slog.String("tx_hash", signed.Hash().Hex()),
				slog.Uint64("nonce", nonce),
				slog.Int("attempt", attempt))
			return SendResult{
				TxHash:   signed.Hash(),
				From:     from,
				Nonce:    nonce,
				GasPrice: gasPrice,
				Attempts: attempt,
				Payload:  hexutil.Encode(data),
			}, nil
		}
		lastErr = sendErr
		if attempt == maxBroadcastAttempts {
			break
		}

		switch {
		case isNonceStale(sendErr) && !pinnedNonce:
			refreshed, rerr := c.backend.PendingNonceAt(ctx, from)
			if rerr != nil {
				return SendResult{}, fmt.Errorf("chain: refresh nonce for %s: %w", from.Hex(), rerr)
			}
			log.Warn("stale nonce, refreshed from chain",
				slog.Uint64("old", nonce),
				slog.Uint64("refreshed", refreshed),
				slog.Int("attempt", attempt))
			nonce = refreshed
		case isFeeUnderpriced(sendErr):
			doubled := new(big.Int).Lsh(gasPrice, 1)
			if doubled.Cmp(maxRetryGasPrice) > 0 {
				doubled.Set(maxRetryGasPrice)
			}
			log.Warn("underpriced fee, raising gas price",
				slog.String("old_wei", gasPrice.String()),
				slog.String("new_wei", doubled.String()),
				slog.Int("attempt", attempt))
			gasPrice = doubled
		default:
			return SendResult{}, &BroadcastError{Attempts: attempt, Err: sendErr}
		}
	}

	return SendResult{}, &BroadcastError{Attempts: maxBroadcastAttempts, Err: lastErr}
}

// mergeOptions layers caller options over the session defaults.
func (c *Chain) mergeOptions(opts *SendOptions) SendOptions {
	merged := c.sendDefaults
	if opts == nil {
		return merged
	}
	if opts.From != (common.Address{}) {
		merged.From = opts.From
	}
	if opts.Nonce != nil {
		merged.Nonce = opts.Nonce
	}
	if opts.GasPrice != nil {
		merged.GasPrice = opts.GasPrice
	}
	if opts.Gas != 0 {
		merged.Gas = opts.Gas
	}
	if opts.GasMultiplier > 0 {
		merged.GasMultiplier = opts.GasMultiplier
	}
	if opts.Value != nil {
		merged.Value = opts.Value
	}
	return merged
}

// isNonceStale matches the node rejection messages that mean the nonce has
// already been consumed or is competing with a pending transaction.
// Checked before isFeeUnderpriced because the replacement message also
// contains "underpriced".
func isNonceStale(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "replacement transaction underpriced")
}

// isFeeUnderpriced matches the rejection messages that mean the offered gas
// price is below what the node will accept.
func isFeeUnderpriced(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "max fee per gas less than block base fee") ||
		strings.Contains(msg, "transaction underpriced") ||
		strings.Contains(msg, "intrinsic gas price too low")
}
