// Package velox is the market data provider client: the REST query surface
// for orderbook metadata, account data, and the off-chain hint and gas
// price oracles, plus the websocket streaming feed.
package velox

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/veloxdex/velox-go/internal/domain"
)

// DefaultTimeout bounds every REST round trip unless the caller configures
// a shorter one.
const DefaultTimeout = 3 * time.Second

// Client is the REST client for the exchange API. Public market data lives
// under /api/v1; the hint and gas price oracles are served from the API
// root.
type Client struct {
	baseURL      string
	auth         string
	blockchainID int64
	httpClient   *http.Client
}

// NewClient creates a REST client for the given API host. auth is sent as
// the Auth header on every request; blockchainID scopes all market data
// queries to one chain.
func NewClient(baseURL, auth string, blockchainID int64, timeout time.Duration) *Client {
	if timeout <= 0 || timeout > DefaultTimeout {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		auth:         auth,
		blockchainID: blockchainID,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// get performs one GET request and decodes the JSON body into out. Any
// non-2xx status or undecodable body is a domain.ProviderError; the client
// never retries on its own.
func (c *Client) get(ctx context.Context, path string, params url.Values, public bool, out any) error {
	endpoint := c.baseURL
	if public {
		endpoint += "/api/v1"
	}
	endpoint += path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("velox: create request: %w", err)
	}
	req.Header.Set("Auth", c.auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ProviderError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.ProviderError{Endpoint: path, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ProviderError{Endpoint: path, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

func (c *Client) chainParams() url.Values {
	params := url.Values{}
	params.Set("blockchain_id", strconv.FormatInt(c.blockchainID, 10))
	return params
}

// Blockchains returns every chain the exchange operates on, including the
// router and factory contract addresses.
func (c *Client) Blockchains(ctx context.Context) ([]domain.ChainInfo, error) {
	var resp struct {
		Blockchains []domain.ChainInfo `json:"blockchains"`
	}
	if err := c.get(ctx, "/blockchains", nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Blockchains, nil
}

// OrderbookMetas returns the metadata of every trading pair on the active
// chain.
func (c *Client) OrderbookMetas(ctx context.Context) ([]domain.OrderbookMeta, error) {
	var resp struct {
		OrderbookMetas []domain.OrderbookMeta `json:"orderbookmetas"`
	}
	if err := c.get(ctx, "/orderbookmetas", c.chainParams(), true, &resp); err != nil {
		return nil, err
	}
	return resp.OrderbookMetas, nil
}

// Orderbook returns the current resting orders of one pair.
func (c *Client) Orderbook(ctx context.Context, symbol string) (OrderbookSnapshot, error) {
	params := c.chainParams()
	params.Set("orderbook_symbol", symbol)

	var resp OrderbookSnapshot
	if err := c.get(ctx, "/orderbook", params, true, &resp); err != nil {
		return OrderbookSnapshot{}, err
	}
	return resp, nil
}

// Candles returns OHLCV candles for one pair at the given resolution in
// minutes.
func (c *Client) Candles(ctx context.Context, symbol string, resolutionMin int, startTimestamp, endTimestamp int64) ([]Candle, error) {
	params := c.chainParams()
	params.Set("orderbook_symbol", symbol)
	params.Set("resolution_min", strconv.Itoa(resolutionMin))
	params.Set("start_timestamp", strconv.FormatInt(startTimestamp, 10))
	params.Set("end_timestamp", strconv.FormatInt(endTimestamp, 10))

	var resp struct {
		Candles []Candle `json:"candles"`
	}
	if err := c.get(ctx, "/candles", params, true, &resp); err != nil {
		return nil, err
	}
	return resp.Candles, nil
}

// Orders returns the order history of one owner, optionally filtered.
func (c *Client) Orders(ctx context.Context, query OrdersQuery) ([]OrderRecord, error) {
	params := c.chainParams()
	params.Set("owner", query.Owner)
	setOptional(params, "orderbook_symbol", query.OrderbookSymbol)
	setOptional(params, "status", query.Status)
	setOptional(params, "type", query.Type)
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.StartTimestamp > 0 {
		params.Set("start_timestamp", strconv.FormatInt(query.StartTimestamp, 10))
	}
	if query.EndTimestamp > 0 {
		params.Set("end_timestamp", strconv.FormatInt(query.EndTimestamp, 10))
	}

	var resp struct {
		Orders []OrderRecord `json:"orders"`
	}
	if err := c.get(ctx, "/orders", params, true, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// Trades returns the trade history of one owner, newest first.
func (c *Client) Trades(ctx context.Context, query TradesQuery) ([]TradeRecord, error) {
	params := c.chainParams()
	params.Set("owner", query.Owner)
	setOptional(params, "orderbook_symbol", query.OrderbookSymbol)
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Before > 0 {
		params.Set("before", strconv.FormatInt(query.Before, 10))
	}

	var resp struct {
		Trades []TradeRecord `json:"trades"`
	}
	if err := c.get(ctx, "/trades", params, true, &resp); err != nil {
		return nil, err
	}
	return resp.Trades, nil
}

// HintIDs returns one positional hint per (price, side) pair, in request
// order. Prices and sides are comma-joined into a single query.
func (c *Client) HintIDs(ctx context.Context, orderbookSymbol string, prices []string, sides []domain.OrderSide) ([]uint32, error) {
	sideStrs := make([]string, len(sides))
	for i, side := range sides {
		sideStrs[i] = strings.ToLower(string(side))
	}

	params := c.chainParams()
	params.Set("orderbook_symbol", orderbookSymbol)
	params.Set("prices", strings.Join(prices, ","))
	params.Set("sides", strings.Join(sideStrs, ","))

	var resp struct {
		HintIDs []uint32 `json:"hint_ids"`
	}
	if err := c.get(ctx, "/hint_id", params, false, &resp); err != nil {
		return nil, err
	}
	return resp.HintIDs, nil
}

// GasPrice returns the oracle gas price in wei for the active chain.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	var resp struct {
		GasPrice int64 `json:"gas_price"`
	}
	if err := c.get(ctx, "/gas_price", c.chainParams(), false, &resp); err != nil {
		return nil, err
	}
	return big.NewInt(resp.GasPrice), nil
}

func setOptional(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}
