package domain

import (
	"github.com/shopspring/decimal"
)

// OrderSide indicates whether an order buys or sells the base token.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// IsAsk reports whether the side rests on the ask side of the book.
func (s OrderSide) IsAsk() bool {
	return s == OrderSideSell
}

// OrderType distinguishes resting limit orders from immediate market orders.
type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

// OrderStatus is derived during reconciliation by comparing the requested
// size against the summed fill size. It is never stored on-chain.
type OrderStatus string

const (
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
)

// Fill is a single trade event attributed to an order. It is derived purely
// from on-chain event data and immutable once parsed from a receipt.
type Fill struct {
	Size  decimal.Decimal `json:"size"`
	Price decimal.Decimal `json:"price"`
	AskID int64           `json:"ask_id"`
	BidID int64           `json:"bid_id"`
}

// OrderResult is the reconciled outcome of a created order: the requested
// size and price, the fills the same transaction produced for it, and the
// status derived from the two. Constructed once per reconciliation, never
// mutated afterward.
type OrderResult struct {
	Orderbook  string          `json:"orderbook"`
	OrderID    int64           `json:"order_id"`
	Size       decimal.Decimal `json:"size"`
	FilledSize decimal.Decimal `json:"filled_size"`
	Price      decimal.Decimal `json:"price"`
	Status     OrderStatus     `json:"status"`
	Type       OrderType       `json:"type"`
	Side       OrderSide       `json:"side"`
	Fills      []Fill          `json:"fills"`
}

// CancelResult is the reconciled outcome of a canceled limit order.
type CancelResult struct {
	Orderbook string          `json:"orderbook"`
	OrderID   int64           `json:"order_id"`
	Size      decimal.Decimal `json:"size"`
	Price     decimal.Decimal `json:"price"`
	Status    OrderStatus     `json:"status"`
	Type      OrderType       `json:"type"`
	Side      OrderSide       `json:"side"`
}

// UpdateResult is the outcome of an update batch. On-chain an update is a
// cancel-then-recreate, so one receipt yields both created and canceled
// results. No ordering is guaranteed between the two subsets; each subset
// preserves its own event order.
type UpdateResult struct {
	Created  []OrderResult  `json:"created"`
	Canceled []CancelResult `json:"canceled"`
}
