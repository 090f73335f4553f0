package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is an on-chain LimitOrderCreated or MarketOrderCreated
// event translated back into human-readable terms.
type OrderCreatedEvent struct {
	Orderbook string          `json:"orderbook"`
	OrderID   int64           `json:"order_id"`
	Size      decimal.Decimal `json:"size"`
	Price     decimal.Decimal `json:"price"`
	Type      OrderType       `json:"type"`
	Side      OrderSide       `json:"side"`
}

// OrderCanceledEvent is an on-chain LimitOrderCanceled event translated back
// into human-readable terms.
type OrderCanceledEvent struct {
	Orderbook string          `json:"orderbook"`
	OrderID   int64           `json:"order_id"`
	Size      decimal.Decimal `json:"size"`
	Price     decimal.Decimal `json:"price"`
	Type      OrderType       `json:"type"`
	Status    OrderStatus     `json:"status"`
	Side      OrderSide       `json:"side"`
}

// ProcessedReceipt groups the decoded orderbook events of one mined
// transaction. Logs that fail to decode against the known event shapes are
// dropped and counted in Discarded; they never abort reconciliation.
//
// NetworkFee is gasUsed * effectiveGasPrice in wei.
type ProcessedReceipt struct {
	LimitOrdersCreated  []OrderCreatedEvent  `json:"limit_orders_created"`
	MarketOrdersCreated []OrderCreatedEvent  `json:"market_orders_created"`
	LimitOrdersCanceled []OrderCanceledEvent `json:"limit_orders_canceled"`
	Trades              []Fill               `json:"trades"`
	Discarded           int                  `json:"discarded"`
	NetworkFee          *big.Int             `json:"network_fee"`
}
