package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// nonceCache holds the optimistic next-nonce counter per sender address.
// The chain's pending transaction count is authoritative: a counter is
// seeded from it on first use and advanced locally only after a successful
// broadcast.
//
// Each address has its own lock, held for the whole assign-sign-broadcast
// critical section, so two concurrent submissions from one address can never
// compute the same nonce. Submissions from different addresses do not
// contend.
type nonceCache struct {
	mu      sync.Mutex
	entries map[common.Address]*nonceEntry
}

type nonceEntry struct {
	mu    sync.Mutex
	known bool
	next  uint64
}

func newNonceCache() *nonceCache {
	return &nonceCache{entries: make(map[common.Address]*nonceEntry)}
}

// acquire returns the entry for addr with its lock held. The caller must
// call release when its submission attempt finishes, success or not.
func (c *nonceCache) acquire(addr common.Address) *nonceEntry {
	c.mu.Lock()
	e, ok := c.entries[addr]
	if !ok {
		e = &nonceEntry{}
		c.entries[addr] = e
	}
	c.mu.Unlock()

	e.mu.Lock()
	return e
}

func (e *nonceEntry) release() {
	e.mu.Unlock()
}

// nextNonce returns the next nonce to use for addr, reading the pending
// count from the chain on first use. Must be called with the entry lock
// held.
func (e *nonceEntry) nextNonce(ctx context.Context, backend Backend, addr common.Address) (uint64, error) {
	if !e.known {
		pending, err := backend.PendingNonceAt(ctx, addr)
		if err != nil {
			return 0, fmt.Errorf("chain: pending nonce for %s: %w", addr.Hex(), err)
		}
		e.next = pending
		e.known = true
	}
	return e.next, nil
}

// advance records that a broadcast with nonce used succeeded, moving the
// counter to used+1 regardless of which retry branch produced the success.
// Must be called with the entry lock held.
func (e *nonceEntry) advance(used uint64) {
	e.next = used + 1
	e.known = true
}
