// Package app wires the client together: node connection, exchange API
// discovery, key loading, and the optional audit store.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/errgroup"

	"github.com/veloxdex/velox-go/internal/chain"
	"github.com/veloxdex/velox-go/internal/config"
	"github.com/veloxdex/velox-go/internal/crypto"
	"github.com/veloxdex/velox-go/internal/domain"
	"github.com/veloxdex/velox-go/internal/platform/velox"
	"github.com/veloxdex/velox-go/internal/service"
	"github.com/veloxdex/velox-go/internal/store/postgres"
)

// Dependencies bundles everything the CLI commands need to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	REST    *velox.Client
	Backend *ethclient.Client
	Chain   *chain.Chain
	Trading *service.TradingService
	Store   domain.SubmissionStore

	// Feed is constructed but not connected; commands that stream call
	// Connect themselves.
	Feed *velox.FeedClient
}

// Wire constructs all concrete dependencies from the given configuration and
// returns them together with a cleanup function that should be called on
// shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Node connection ---
	backend, err := ethclient.DialContext(ctx, cfg.Node.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: dial node: %w", err)
	}
	closers = append(closers, backend.Close)
	deps.Backend = backend

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: node chain id: %w", err)
	}
	if chainID.Int64() != cfg.Exchange.BlockchainID {
		cleanup()
		return nil, nil, fmt.Errorf("wire: node is on chain %d but exchange.blockchain_id is %d",
			chainID.Int64(), cfg.Exchange.BlockchainID)
	}

	// --- Exchange API ---
	rest := velox.NewClient(cfg.Exchange.APIHost, cfg.Exchange.APIAuth,
		cfg.Exchange.BlockchainID, cfg.Exchange.APITimeout.Duration)
	deps.REST = rest

	// Discovery queries are independent; run them concurrently.
	var (
		chains     []domain.ChainInfo
		orderbooks []domain.OrderbookMeta
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		chains, err = rest.Blockchains(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orderbooks, err = rest.OrderbookMetas(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: exchange discovery: %w", err)
	}

	info, err := matchChain(chains, chainID)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	// --- Signing key (optional) ---
	chainCfg := chain.Config{
		ChainID:        chainID,
		RouterAddress:  common.HexToAddress(info.RouterAddress),
		FactoryAddress: common.HexToAddress(info.FactoryAddress),
		Orderbooks:     orderbooks,
		SendDefaults:   sendDefaults(cfg.Send),
		Logger:         logger,
	}
	if cfg.Wallet.PrivateKey != "" || cfg.Wallet.EncryptedKeyPath != "" {
		key, err := crypto.LoadSigningKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Wallet.PrivateKey,
			EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
			KeyPassword:      cfg.Wallet.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: load key: %w", err)
		}
		chainCfg.Key = key
	}

	chn, err := chain.New(backend, rest, chainCfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: chain: %w", err)
	}
	deps.Chain = chn

	// --- Audit store (optional) ---
	if strings.TrimSpace(cfg.Database.DSN) != "" {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
		deps.Store = postgres.NewSubmissionStore(pgClient.Pool())
	}

	deps.Trading = service.NewTradingService(chn, deps.Store, logger)
	deps.Feed = velox.NewFeedClient(cfg.Exchange.WSHost, cfg.Exchange.APIAuth,
		cfg.Exchange.BlockchainID, logger)

	return deps, cleanup, nil
}

// matchChain finds the exchange chain entry for the connected node.
func matchChain(chains []domain.ChainInfo, chainID *big.Int) (domain.ChainInfo, error) {
	want := chainID.String()
	for _, info := range chains {
		if info.ChainID == want {
			return info, nil
		}
	}
	return domain.ChainInfo{}, fmt.Errorf("wire: exchange does not operate on chain %s", want)
}

// sendDefaults translates the config section into session-wide submission
// defaults. A zero gas_limit keeps estimation enabled; order instructions
// always pin their own fixed limit regardless.
func sendDefaults(cfg config.SendConfig) chain.SendOptions {
	opts := chain.SendOptions{
		Gas:           cfg.GasLimit,
		GasMultiplier: cfg.GasMultiplier,
	}
	if cfg.GasPrice > 0 {
		opts.GasPrice = big.NewInt(cfg.GasPrice)
	}
	return opts
}
