package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// RevertError means the transaction was mined but on-chain execution
// failed. It is fatal: a reverted transaction is never resubmitted. The
// receipt is carried for diagnostics.
type RevertError struct {
	TxHash  common.Hash
	Receipt *types.Receipt
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("transaction %s reverted (gas used %d)", e.TxHash.Hex(), e.Receipt.GasUsed)
}

// BroadcastError wraps a broadcast rejection that either was not a
// recognized transient reason or survived the full retry budget.
type BroadcastError struct {
	Attempts int
	Err      error
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("broadcast rejected after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *BroadcastError) Unwrap() error { return e.Err }
