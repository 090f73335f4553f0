package domain

// OrderbookMeta describes one trading pair on a given chain. Instances are
// fetched from the market data provider once per session and treated as
// immutable afterward.
//
// PowPriceTick and PowSizeTick are the exchange tick granularities expressed
// as powers of ten in base units: a price is valid iff price * 10^token1
// decimals is a multiple of PowPriceTick, and likewise for sizes against
// PowSizeTick with token0 decimals.
type OrderbookMeta struct {
	Symbol       string `json:"symbol"`
	Address      string `json:"address"`
	ID           int    `json:"id"`
	PowPriceTick int64  `json:"pow_price_tick"`
	PowSizeTick  int64  `json:"pow_size_tick"`

	Token0Symbol  string `json:"token0_symbol"`
	Token0Address string `json:"token0_address"`
	Token1Symbol  string `json:"token1_symbol"`
	Token1Address string `json:"token1_address"`
}

// TokenInfo is the resolved metadata for one ERC-20 token. Decimals is read
// from the token contract once per symbol per session; PowDecimal caches
// 10^Decimals.
type TokenInfo struct {
	Symbol     string `json:"symbol"`
	Address    string `json:"address"`
	Decimals   int    `json:"decimals"`
	PowDecimal int64  `json:"pow_decimal"`
}

// ChainInfo describes one supported chain as reported by the market data
// provider: the router contract orders are submitted to and the factory that
// deployed the orderbooks.
type ChainInfo struct {
	ChainID        string `json:"chain_id"`
	RouterAddress  string `json:"router_address"`
	FactoryAddress string `json:"factory_address"`
}
