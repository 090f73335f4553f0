// Command veloxcli is the command-line entry point for the velox client. It
// loads configuration, wires dependencies, and runs one trading or query
// command against the exchange.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/veloxdex/velox-go/internal/app"
	"github.com/veloxdex/velox-go/internal/config"
	"github.com/veloxdex/velox-go/internal/domain"
	"github.com/veloxdex/velox-go/internal/platform/velox"
)

const usage = `usage: veloxcli [-config path] <command> [flags]

commands:
  meta                        list trading pairs on the active chain
  balance -token SYM          print the signing account's token balance
  limit -book SYM -sizes a,b -prices x,y -sides buy,sell
                              place a batch of limit orders and wait for fills
  market -book SYM -size a -price x -side buy
                              place a market order and wait for fills
  update -book SYM -ids 1,2 -sizes a,b -prices x,y -sides buy,sell
                              replace resting orders
  cancel -book SYM -ids 1,2   cancel resting orders
  submissions -limit N        list recorded submissions (requires database)
  watch -book SYM             stream orderbook updates
`

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := app.Wire(ctx, cfg, logger)
	if err != nil {
		logger.Error("wiring failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	command := flag.Arg(0)
	args := flag.Args()[1:]

	if err := run(ctx, deps, command, args); err != nil {
		if err == context.Canceled {
			logger.Info("interrupted")
			return
		}
		logger.Error("command failed",
			slog.String("command", command),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
}

func run(ctx context.Context, deps *app.Dependencies, command string, args []string) error {
	switch command {
	case "meta":
		return runMeta(deps)
	case "balance":
		return runBalance(ctx, deps, args)
	case "limit":
		return runLimit(ctx, deps, args)
	case "market":
		return runMarket(ctx, deps, args)
	case "update":
		return runUpdate(ctx, deps, args)
	case "cancel":
		return runCancel(ctx, deps, args)
	case "submissions":
		return runSubmissions(ctx, deps, args)
	case "watch":
		return runWatch(ctx, deps, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runMeta(deps *app.Dependencies) error {
	return printJSON(deps.Chain.Orderbooks())
}

func runBalance(ctx context.Context, deps *app.Dependencies, args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	token := fs.String("token", "", "token symbol (empty for native balance)")
	fs.Parse(args)

	if *token == "" {
		bal, err := deps.Chain.EthBalance(ctx, deps.Chain.Account())
		if err != nil {
			return err
		}
		fmt.Println(bal.String())
		return nil
	}
	bal, err := deps.Chain.TokenBalance(ctx, deps.Chain.Account(), *token)
	if err != nil {
		return err
	}
	fmt.Println(bal.String())
	return nil
}

func runLimit(ctx context.Context, deps *app.Dependencies, args []string) error {
	fs := flag.NewFlagSet("limit", flag.ExitOnError)
	book := fs.String("book", "", "orderbook symbol")
	sizes := fs.String("sizes", "", "comma-separated order sizes")
	prices := fs.String("prices", "", "comma-separated order prices")
	sides := fs.String("sides", "", "comma-separated sides (buy/sell)")
	fs.Parse(args)

	parsedSides, err := parseSides(*sides)
	if err != nil {
		return err
	}
	results, err := deps.Trading.PlaceLimitOrders(ctx, *book,
		splitList(*sizes), splitList(*prices), parsedSides)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runMarket(ctx context.Context, deps *app.Dependencies, args []string) error {
	fs := flag.NewFlagSet("market", flag.ExitOnError)
	book := fs.String("book", "", "orderbook symbol")
	size := fs.String("size", "", "order size")
	price := fs.String("price", "", "worst acceptable price")
	side := fs.String("side", "", "buy or sell")
	fs.Parse(args)

	parsedSides, err := parseSides(*side)
	if err != nil {
		return err
	}
	results, err := deps.Trading.PlaceMarketOrder(ctx, *book, *size, *price, parsedSides[0])
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runUpdate(ctx context.Context, deps *app.Dependencies, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	book := fs.String("book", "", "orderbook symbol")
	ids := fs.String("ids", "", "comma-separated order ids to replace")
	sizes := fs.String("sizes", "", "comma-separated new sizes")
	prices := fs.String("prices", "", "comma-separated new prices")
	sides := fs.String("sides", "", "comma-separated sides of the old orders")
	fs.Parse(args)

	orderIDs, err := parseIDs(*ids)
	if err != nil {
		return err
	}
	parsedSides, err := parseSides(*sides)
	if err != nil {
		return err
	}
	result, err := deps.Trading.UpdateLimitOrders(ctx, *book, orderIDs,
		splitList(*sizes), splitList(*prices), parsedSides)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runCancel(ctx context.Context, deps *app.Dependencies, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	book := fs.String("book", "", "orderbook symbol")
	ids := fs.String("ids", "", "comma-separated order ids")
	fs.Parse(args)

	orderIDs, err := parseIDs(*ids)
	if err != nil {
		return err
	}
	results, err := deps.Trading.CancelOrders(ctx, *book, orderIDs)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runSubmissions(ctx context.Context, deps *app.Dependencies, args []string) error {
	fs := flag.NewFlagSet("submissions", flag.ExitOnError)
	limit := fs.Int("limit", 50, "maximum rows to return")
	fs.Parse(args)

	subs, err := deps.Trading.Submissions(ctx, *limit)
	if err != nil {
		return err
	}
	return printJSON(subs)
}

func runWatch(ctx context.Context, deps *app.Dependencies, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	book := fs.String("book", "", "orderbook symbol")
	topK := fs.Int("top", 10, "book depth per side")
	fs.Parse(args)

	deps.Feed.OnOrderbook(func(update velox.OrderbookUpdate) {
		_ = printJSON(update)
	})
	if err := deps.Feed.Connect(ctx); err != nil {
		return err
	}
	defer deps.Feed.Close()

	if err := deps.Feed.SubscribeOrderbook(*book, *topK); err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseSides(s string) ([]domain.OrderSide, error) {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, fmt.Errorf("missing -side(s)")
	}
	out := make([]domain.OrderSide, len(parts))
	for i, p := range parts {
		switch strings.ToUpper(p) {
		case string(domain.OrderSideBuy):
			out[i] = domain.OrderSideBuy
		case string(domain.OrderSideSell):
			out[i] = domain.OrderSideSell
		default:
			return nil, fmt.Errorf("invalid side %q (want buy or sell)", p)
		}
	}
	return out, nil
}

func parseIDs(s string) ([]int64, error) {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, fmt.Errorf("missing -ids")
	}
	out := make([]int64, len(parts))
	for i, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid order id %q: %w", p, err)
		}
		out[i] = id
	}
	return out, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
