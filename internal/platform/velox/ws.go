package velox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// PriceLevel is one aggregated book level on the stream. Stream levels are
// display data; they are not used for order encoding.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderbookUpdate is a snapshot or incremental update of one pair's book.
// A size of zero removes the level.
type OrderbookUpdate struct {
	Channel string `json:"channel"`
	Type    string `json:"type"` // subscribed/orderbook or update/orderbook
	Orders  struct {
		Asks []PriceLevel `json:"asks"`
		Bids []PriceLevel `json:"bids"`
	} `json:"orders"`
}

// TradeUpdate carries new trades on a subscribed pair.
type TradeUpdate struct {
	Channel string        `json:"channel"`
	Type    string        `json:"type"`
	Owner   string        `json:"owner"`
	Trades  []TradeRecord `json:"trades"`
}

// OrderbookHandler receives book snapshots and updates.
type OrderbookHandler func(OrderbookUpdate)

// TradeHandler receives trade stream messages.
type TradeHandler func(TradeUpdate)

// FeedClient is the websocket client for the exchange's streaming feed. It
// manages the connection lifecycle and restores subscriptions after a
// reconnect.
type FeedClient struct {
	wsURL        string
	auth         string
	blockchainID int64
	log          *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	// Subscriptions to restore on reconnect.
	subscriptions []map[string]any

	handlerMu     sync.RWMutex
	bookHandlers  []OrderbookHandler
	tradeHandlers []TradeHandler

	done chan struct{}
}

// NewFeedClient creates a feed client for the given stream endpoint, e.g.
// "wss://api.velox.exchange/stream".
func NewFeedClient(wsURL, auth string, blockchainID int64, logger *slog.Logger) *FeedClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedClient{
		wsURL:        wsURL,
		auth:         auth,
		blockchainID: blockchainID,
		log:          logger.With(slog.String("component", "feed")),
		done:         make(chan struct{}),
	}
}

// OnOrderbook registers a handler for book snapshots and updates.
func (f *FeedClient) OnOrderbook(h OrderbookHandler) {
	f.handlerMu.Lock()
	f.bookHandlers = append(f.bookHandlers, h)
	f.handlerMu.Unlock()
}

// OnTrades registers a handler for trade stream messages.
func (f *FeedClient) OnTrades(h TradeHandler) {
	f.handlerMu.Lock()
	f.tradeHandlers = append(f.tradeHandlers, h)
	f.handlerMu.Unlock()
}

// Connect dials the stream endpoint and starts the read and ping loops.
func (f *FeedClient) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return fmt.Errorf("velox/feed: client is closed")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("velox/feed: dial %s: %w", f.wsURL, err)
	}
	f.conn = conn

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go f.readLoop()
	go f.pingLoop()

	return nil
}

// channel builds the chain-scoped channel name, e.g.
// "orderbook/42161:WETH_USDC".
func (f *FeedClient) channel(kind, symbol string) string {
	return fmt.Sprintf("%s/%d:%s", kind, f.blockchainID, symbol)
}

// SubscribeOrderbook subscribes to book updates for one pair, delivering
// the top topK levels per side.
func (f *FeedClient) SubscribeOrderbook(symbol string, topK int) error {
	return f.subscribe(map[string]any{
		"type":    "subscribe",
		"channel": f.channel("orderbook", symbol),
		"auth":    f.auth,
		"topK":    topK,
	})
}

// SubscribeTrades subscribes to trades on one pair. A non-empty owner
// filters to trades that address participates in.
func (f *FeedClient) SubscribeTrades(symbol, owner string) error {
	req := map[string]any{
		"type":    "subscribe",
		"channel": f.channel("trade", symbol),
		"auth":    f.auth,
	}
	if owner != "" {
		req["owner"] = owner
	}
	return f.subscribe(req)
}

func (f *FeedClient) subscribe(req map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conn == nil {
		return fmt.Errorf("velox/feed: not connected")
	}
	f.subscriptions = append(f.subscriptions, req)

	f.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := f.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("velox/feed: subscribe %v: %w", req["channel"], err)
	}
	return nil
}

func (f *FeedClient) readLoop() {
	for {
		f.mu.Lock()
		conn := f.conn
		f.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-f.done:
				return
			default:
			}
			f.log.Warn("read failed, reconnecting", slog.String("error", err.Error()))
			f.reconnect()
			return
		}
		f.dispatch(data)
	}
}

// dispatch routes one raw message by its type prefix. Unknown message
// types are ignored.
func (f *FeedClient) dispatch(data []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		f.log.Warn("undecodable stream message", slog.String("error", err.Error()))
		return
	}

	switch {
	case strings.HasSuffix(head.Type, "/orderbook"):
		var update OrderbookUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			f.log.Warn("undecodable orderbook message", slog.String("error", err.Error()))
			return
		}
		f.handlerMu.RLock()
		handlers := f.bookHandlers
		f.handlerMu.RUnlock()
		for _, h := range handlers {
			h(update)
		}
	case strings.HasSuffix(head.Type, "/trade"):
		var update TradeUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			f.log.Warn("undecodable trade message", slog.String("error", err.Error()))
			return
		}
		f.handlerMu.RLock()
		handlers := f.tradeHandlers
		f.handlerMu.RUnlock()
		for _, h := range handlers {
			h(update)
		}
	}
}

func (f *FeedClient) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.mu.Lock()
			conn := f.conn
			if conn != nil {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn("ping failed", slog.String("error", err.Error()))
				}
			}
			f.mu.Unlock()
		}
	}
}

// reconnect redials with exponential backoff and restores every
// subscription made so far.
func (f *FeedClient) reconnect() {
	delay := reconnectDelay
	for {
		select {
		case <-f.done:
			return
		case <-time.After(delay):
		}

		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return
		}
		conn, _, err := websocket.DefaultDialer.Dial(f.wsURL, nil)
		if err != nil {
			f.mu.Unlock()
			f.log.Warn("reconnect failed", slog.String("error", err.Error()), slog.Duration("next_in", delay))
			delay *= 2
			if delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
			continue
		}
		f.conn = conn
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		resub := make([]map[string]any, len(f.subscriptions))
		copy(resub, f.subscriptions)
		for _, req := range resub {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(req); err != nil {
				f.log.Warn("resubscribe failed", slog.String("error", err.Error()))
			}
		}
		f.mu.Unlock()

		go f.readLoop()
		return
	}
}

// Close shuts the feed down. The client cannot be reused afterwards.
func (f *FeedClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	close(f.done)
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return f.conn.Close()
	}
	return nil
}
