package velox

// REST response shapes. Sizes and prices stay strings end to end; the REST
// surface is pass-through and never does arithmetic on them.

// OrderRecord is one order as reported by the /orders and /orderbook
// endpoints.
type OrderRecord struct {
	ID        int64  `json:"id"`
	Owner     string `json:"owner"`
	Size      string `json:"size"`
	Price     string `json:"price"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Side      string `json:"side"`
	Timestamp int64  `json:"timestamp"`
}

// OrderbookSnapshot is the current book of one pair.
type OrderbookSnapshot struct {
	Asks []OrderRecord `json:"asks"`
	Bids []OrderRecord `json:"bids"`
}

// TradeRecord is one trade as reported by the /trades endpoint and the
// trade stream.
type TradeRecord struct {
	Amount       string `json:"amount"`
	Price        string `json:"price"`
	AskID        int64  `json:"ask_id"`
	BidID        int64  `json:"bid_id"`
	Side         string `json:"side"`
	MakerAddress string `json:"maker_address"`
	TakerAddress string `json:"taker_address"`
	Timestamp    int64  `json:"timestamp"`
}

// Candle is one OHLCV candle from the /candles endpoint.
type Candle struct {
	Timestamp int64  `json:"timestamp"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

// OrdersQuery filters the /orders endpoint.
type OrdersQuery struct {
	Owner           string
	OrderbookSymbol string
	Status          string
	Type            string
	Limit           int
	StartTimestamp  int64
	EndTimestamp    int64
}

// TradesQuery filters the /trades endpoint.
type TradesQuery struct {
	Owner           string
	OrderbookSymbol string
	Limit           int
	Before          int64
}
