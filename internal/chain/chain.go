// Package chain implements the on-chain trading module: the order
// instruction codec, the transaction submitter, and the receipt
// reconciler. All blockchain I/O goes through the Backend interface and all
// market-data lookups through the MarketDataProvider interface, so the
// codec and reconciliation logic stay pure and testable.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/veloxdex/velox-go/internal/chain/tickmath"
	"github.com/veloxdex/velox-go/internal/domain"
)

// Defaults for transaction submission. Gas price values are in wei.
const (
	// DefaultGasLimit is used when gas estimation fails.
	DefaultGasLimit = 250_000

	// DefaultGasMultiplier pads gas estimates.
	DefaultGasMultiplier = 1.5

	// DefaultGasPrice is used when the gas price oracle is unavailable.
	DefaultGasPrice = 4_000_000_000

	// GasPriceMargin is added on top of the oracle gas price.
	GasPriceMargin = 300_000

	// orderGasLimit is the fixed gas limit for router order instructions;
	// order batches are never estimated.
	orderGasLimit = 4_000_000

	// defaultReceiptPollInterval paces the mined-receipt poll loop.
	defaultReceiptPollInterval = 2 * time.Second
)

// MarketDataProvider supplies the off-chain values the chain module
// consumes: per-order positional hints and the gas price oracle. It is
// implemented by the velox REST client.
type MarketDataProvider interface {
	// HintIDs returns one positional hint per (price, side) pair, in input
	// order.
	HintIDs(ctx context.Context, orderbookSymbol string, prices []string, sides []domain.OrderSide) ([]uint32, error)

	// GasPrice returns the oracle gas price in wei.
	GasPrice(ctx context.Context) (*big.Int, error)
}

// Config carries the construction parameters for a Chain. Orderbook
// metadata comes from the market data provider's /orderbookmetas endpoint
// and is immutable for the life of the module.
type Config struct {
	ChainID        *big.Int
	RouterAddress  common.Address
	FactoryAddress common.Address

	// Key signs outgoing transactions. Optional; a Chain without a key can
	// still serve reads and reconciliation.
	Key *ecdsa.PrivateKey

	Orderbooks []domain.OrderbookMeta

	// SendDefaults is merged under caller-supplied options on every
	// submission.
	SendDefaults SendOptions

	ReceiptPollInterval time.Duration
	Logger              *slog.Logger
}

// Chain is the client session for one chain. It owns the per-address nonce
// counters and the token table; neither is shared across processes, and the
// chain itself remains the source of truth for nonces.
type Chain struct {
	backend  Backend
	provider MarketDataProvider

	chainID *big.Int
	router  common.Address
	factory common.Address

	key     *ecdsa.PrivateKey
	account common.Address
	signer  types.Signer

	sendDefaults SendOptions
	receiptPoll  time.Duration
	log          *slog.Logger

	orderbooks map[string]domain.OrderbookMeta

	tokenMu    sync.RWMutex
	tokens     map[string]domain.TokenInfo
	tokenGroup singleflight.Group

	nonces *nonceCache
}

// New builds the chain module. It performs no network calls; token decimals
// are resolved lazily on first use per symbol.
func New(backend Backend, provider MarketDataProvider, cfg Config) (*Chain, error) {
	if cfg.ChainID == nil {
		return nil, fmt.Errorf("chain: chain id is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Chain{
		backend:      backend,
		provider:     provider,
		chainID:      cfg.ChainID,
		router:       cfg.RouterAddress,
		factory:      cfg.FactoryAddress,
		key:          cfg.Key,
		sendDefaults: cfg.SendDefaults,
		receiptPoll:  cfg.ReceiptPollInterval,
		log:          logger.With(slog.String("component", "chain")),
		orderbooks:   make(map[string]domain.OrderbookMeta, len(cfg.Orderbooks)),
		tokens:       make(map[string]domain.TokenInfo),
		nonces:       newNonceCache(),
	}
	if c.receiptPoll <= 0 {
		c.receiptPoll = defaultReceiptPollInterval
	}
	if c.key != nil {
		c.account = ethcrypto.PubkeyToAddress(c.key.PublicKey)
		c.signer = types.LatestSignerForChainID(c.chainID)
	}
	for _, ob := range cfg.Orderbooks {
		c.orderbooks[ob.Symbol] = ob
	}
	return c, nil
}

// Account returns the configured signing address, or the zero address when
// no key is set.
func (c *Chain) Account() common.Address { return c.account }

// RouterAddress returns the router contract all order instructions target.
func (c *Chain) RouterAddress() common.Address { return c.router }

// Orderbook returns the metadata for symbol.
func (c *Chain) Orderbook(symbol string) (domain.OrderbookMeta, error) {
	ob, ok := c.orderbooks[symbol]
	if !ok {
		return domain.OrderbookMeta{}, &domain.UnknownOrderbookError{Symbol: symbol}
	}
	return ob, nil
}

// Orderbooks returns the metadata for every known trading pair.
func (c *Chain) Orderbooks() []domain.OrderbookMeta {
	out := make([]domain.OrderbookMeta, 0, len(c.orderbooks))
	for _, ob := range c.orderbooks {
		out = append(out, ob)
	}
	return out
}

// Token resolves the metadata for a token symbol, reading decimals from the
// token contract on first use. Concurrent first uses converge on a single
// round trip; the resolved value is cached for the session.
func (c *Chain) Token(ctx context.Context, symbol string) (domain.TokenInfo, error) {
	c.tokenMu.RLock()
	info, ok := c.tokens[symbol]
	c.tokenMu.RUnlock()
	if ok {
		return info, nil
	}

	v, err, _ := c.tokenGroup.Do(symbol, func() (any, error) {
		c.tokenMu.RLock()
		info, ok := c.tokens[symbol]
		c.tokenMu.RUnlock()
		if ok {
			return info, nil
		}

		addr, ok := c.tokenAddress(symbol)
		if !ok {
			return domain.TokenInfo{}, &domain.UnknownTokenError{Symbol: symbol}
		}

		dec, err := c.erc20Decimals(ctx, addr)
		if err != nil {
			return domain.TokenInfo{}, fmt.Errorf("chain: read decimals of %s: %w", symbol, err)
		}
		if dec > 18 {
			return domain.TokenInfo{}, fmt.Errorf("chain: token %s has unsupported decimals %d", symbol, dec)
		}
		pow := int64(1)
		for i := 0; i < int(dec); i++ {
			pow *= 10
		}

		resolved := domain.TokenInfo{
			Symbol:     symbol,
			Address:    addr.Hex(),
			Decimals:   int(dec),
			PowDecimal: pow,
		}
		c.tokenMu.Lock()
		c.tokens[symbol] = resolved
		c.tokenMu.Unlock()
		return resolved, nil
	})
	if err != nil {
		return domain.TokenInfo{}, err
	}
	return v.(domain.TokenInfo), nil
}

// tokenAddress scans the orderbook table for the contract address of a
// token symbol. Every token the client can reference appears in at least
// one orderbook.
func (c *Chain) tokenAddress(symbol string) (common.Address, bool) {
	for _, ob := range c.orderbooks {
		if ob.Token0Symbol == symbol {
			return common.HexToAddress(ob.Token0Address), true
		}
		if ob.Token1Symbol == symbol {
			return common.HexToAddress(ob.Token1Address), true
		}
	}
	return common.Address{}, false
}

// ---------------------------------------------------------------------------
// ERC-20 reads and approvals
// ---------------------------------------------------------------------------

func (c *Chain) callERC20(ctx context.Context, to common.Address, method string, args ...any) ([]any, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s on %s: %w", method, to.Hex(), err)
	}
	vals, err := erc20ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s result: %w", method, err)
	}
	return vals, nil
}

func (c *Chain) erc20Decimals(ctx context.Context, token common.Address) (uint8, error) {
	vals, err := c.callERC20(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	dec, ok := vals[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("chain: unexpected decimals type %T", vals[0])
	}
	return dec, nil
}

// EthBalance returns the native balance of owner in ether. A zero owner
// means the configured signing account.
func (c *Chain) EthBalance(ctx context.Context, owner common.Address) (decimal.Decimal, error) {
	owner, err := c.resolveOwner(owner)
	if err != nil {
		return decimal.Decimal{}, err
	}
	wei, err := c.backend.BalanceAt(ctx, owner, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("chain: balance of %s: %w", owner.Hex(), err)
	}
	return tickmath.HumanFromAmount(wei, 1_000_000_000_000_000_000)
}

// TokenBalance returns the base-unit balance of owner for a token symbol.
func (c *Chain) TokenBalance(ctx context.Context, owner common.Address, symbol string) (*big.Int, error) {
	owner, err := c.resolveOwner(owner)
	if err != nil {
		return nil, err
	}
	token, err := c.Token(ctx, symbol)
	if err != nil {
		return nil, err
	}
	vals, err := c.callERC20(ctx, common.HexToAddress(token.Address), "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	bal, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chain: unexpected balanceOf type %T", vals[0])
	}
	return bal, nil
}

// TokenAllowance returns the base-unit allowance owner has granted spender.
func (c *Chain) TokenAllowance(ctx context.Context, owner, spender common.Address, symbol string) (*big.Int, error) {
	owner, err := c.resolveOwner(owner)
	if err != nil {
		return nil, err
	}
	token, err := c.Token(ctx, symbol)
	if err != nil {
		return nil, err
	}
	vals, err := c.callERC20(ctx, common.HexToAddress(token.Address), "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	allowance, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chain: unexpected allowance type %T", vals[0])
	}
	return allowance, nil
}

// SetMaxTokenAllowance approves spender for the maximum uint256 amount of a
// token. Unlike order instructions this goes through gas estimation.
func (c *Chain) SetMaxTokenAllowance(ctx context.Context, spender common.Address, symbol string, opts *SendOptions) (SendResult, error) {
	token, err := c.Token(ctx, symbol)
	if err != nil {
		return SendResult{}, err
	}
	data, err := erc20ABI.Pack("approve", spender, math.MaxBig256)
	if err != nil {
		return SendResult{}, fmt.Errorf("chain: pack approve: %w", err)
	}
	return c.sendTransaction(ctx, common.HexToAddress(token.Address), data, opts)
}

func (c *Chain) resolveOwner(owner common.Address) (common.Address, error) {
	if owner != (common.Address{}) {
		return owner, nil
	}
	if c.account == (common.Address{}) {
		return common.Address{}, domain.ErrNoSender
	}
	return c.account, nil
}
