package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Raw orderbook events as they come off the ABI decoder, before tick-scale
// translation.
type rawOrderEvent struct {
	Id      uint32
	Amount0 *big.Int
	Amount1 *big.Int
	IsAsk   bool
}

type rawSwapEvent struct {
	AskId   uint32
	BidId   uint32
	Amount0 *big.Int
	Amount1 *big.Int
}

// rawReceiptEvents is the result of scanning one receipt's logs against the
// orderbook ABI.
type rawReceiptEvents struct {
	limitCreated  []rawOrderEvent
	marketCreated []rawOrderEvent
	canceled      []rawOrderEvent
	swaps         []rawSwapEvent
	discarded     int
}

// decodeOrderbookLogs extracts the four known event shapes from receipt
// logs. Logs from other contracts, logs with unknown topics, and logs whose
// data fails to unpack are counted and dropped; a malformed log must never
// abort reconciliation.
func decodeOrderbookLogs(logs []*types.Log, orderbook common.Address) rawReceiptEvents {
	var out rawReceiptEvents

	for _, lg := range logs {
		if lg.Address != orderbook || len(lg.Topics) == 0 {
			out.discarded++
			continue
		}
		event, err := orderbookABI.EventByID(lg.Topics[0])
		if err != nil {
			out.discarded++
			continue
		}

		switch event.Name {
		case "LimitOrderCreated", "MarketOrderCreated", "LimitOrderCanceled":
			var raw rawOrderEvent
			if err := orderbookABI.UnpackIntoInterface(&raw, event.Name, lg.Data); err != nil {
				out.discarded++
				continue
			}
			switch event.Name {
			case "LimitOrderCreated":
				out.limitCreated = append(out.limitCreated, raw)
			case "MarketOrderCreated":
				out.marketCreated = append(out.marketCreated, raw)
			case "LimitOrderCanceled":
				out.canceled = append(out.canceled, raw)
			}
		case "Swap":
			var raw rawSwapEvent
			if err := orderbookABI.UnpackIntoInterface(&raw, event.Name, lg.Data); err != nil {
				out.discarded++
				continue
			}
			out.swaps = append(out.swaps, raw)
		default:
			out.discarded++
		}
	}

	return out
}
