package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"dex-liquidity-lab/internal/birdeye"
	"dex-liquidity-lab/internal/discovery"
	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/ladder"
	"dex-liquidity-lab/internal/pricing"
	"dex-liquidity-lab/internal/reporting"
	"dex-liquidity-lab/internal/storage"
	chstore "dex-liquidity-lab/internal/storage/clickhouse"
	"dex-liquidity-lab/internal/storage/memory"
	"dex-liquidity-lab/internal/storage/migrations"
	pgstore "dex-liquidity-lab/internal/storage/postgres"
	"dex-liquidity-lab/internal/zeroex"
)

func main() {
	// Parse flags
	pairAddr := flag.String("pair", "", "Pool address of a registered pair to sweep")
	token := flag.String("token", "", "Token address: auto-discover its deepest market and sweep it")
	all := flag.Bool("all", false, "Sweep every registered pair")
	ladderSpec := flag.String("ladder", "", "Comma-separated USD rungs (default: built-in ladder)")
	baseline := flag.Int64("baseline", 0, "Baseline notional in USD (default: built-in)")
	format := flag.String("format", "table", "Output format: table or csv")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (or POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "Optional ClickHouse DSN for impact history (or CLICKHOUSE_DSN)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	chainID := flag.Int64("chain-id", zeroex.DefaultChainID, "EVM chain id for quotes")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[ladder] ", log.LstdFlags)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Printf("WARN: load .env: %v", err)
	}

	zeroexKey := os.Getenv("ZEROEX_API_KEY")
	if zeroexKey == "" {
		logger.Fatal("ZEROEX_API_KEY is required")
	}
	birdeyeKey := os.Getenv("BIRDEYE_API_KEY")
	if birdeyeKey == "" {
		logger.Fatal("BIRDEYE_API_KEY is required")
	}

	usdLadder, err := parseLadder(*ladderSpec)
	if err != nil {
		logger.Fatalf("Invalid --ladder: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create stores (use interfaces)
	var pairStore storage.PairStore = memory.NewPairStore()
	var runStore storage.RunStore = memory.NewRunStore()
	var priceStore storage.TokenPriceStore = memory.NewTokenPriceStore()

	dsn := flagOrEnv(*postgresDSN, "POSTGRES_DSN")
	if !*useMemory && dsn == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	if !*useMemory {
		pool, err := pgstore.NewPool(ctx, dsn)
		if err != nil {
			logger.Fatalf("Connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("Apply migrations: %v", err)
		}

		pairStore = pgstore.NewPairStore(pool)
		runStore = pgstore.NewRunStore(pool)
		priceStore = pgstore.NewTokenPriceStore(pool)
	}

	// Optional history mirror
	var history ladder.HistorySink
	if chDSN := flagOrEnv(*clickhouseDSN, "CLICKHOUSE_DSN"); chDSN != "" {
		conn, err := chstore.NewConn(ctx, chDSN)
		if err != nil {
			logger.Fatalf("Connect to clickhouse: %v", err)
		}
		defer conn.Close()
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			logger.Fatalf("Apply clickhouse migrations: %v", err)
		}
		history = chstore.NewImpactHistoryStore(conn)
	}

	// Create clients
	oracle := zeroex.NewClient(zeroexKey, zeroex.WithChainID(*chainID))
	chain, err := birdeye.ChainFromID(*chainID)
	if err != nil {
		logger.Fatalf("Resolve chain: %v", err)
	}
	overview := birdeye.NewClient(birdeyeKey, chain)
	resolver := pricing.NewResolver(priceStore, overview)

	runner := ladder.NewRunner(ladder.RunnerOptions{
		Engine:  ladder.NewEngine(ladder.EngineOptions{Oracle: oracle, Logger: logger}),
		Prices:  resolver,
		Runs:    runStore,
		History: history,
		Logger:  logger,
	})

	pairs, err := resolveTargets(ctx, logger, pairStore, overview, *pairAddr, *token, *all)
	if err != nil {
		logger.Fatalf("Error: %v", err)
	}
	if len(pairs) == 0 {
		logger.Fatal("Nothing to sweep. Use --pair, --token or --all")
	}

	failed := 0
	for _, pair := range pairs {
		result, err := runner.RunPair(ctx, pair, *baseline, usdLadder)
		if err != nil {
			failed++
			logger.Printf("ERROR: run for %s failed: %v", pair.PairAddress, err)
			continue
		}
		render(*format, result)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// resolveTargets maps the selection flags to registered pairs, discovering
// and registering one on the fly for --token.
func resolveTargets(ctx context.Context, logger *log.Logger, pairs storage.PairStore, markets discovery.MarketLister, pairAddr, token string, all bool) ([]*domain.TokenPair, error) {
	switch {
	case all:
		return pairs.List(ctx)
	case pairAddr != "":
		pair, err := pairs.GetByPairAddress(ctx, pairAddr)
		if err != nil {
			return nil, fmt.Errorf("pair %s: %w", pairAddr, err)
		}
		return []*domain.TokenPair{pair}, nil
	case token != "":
		auto := discovery.NewAutoPair(markets, pairs, logger)
		pair, err := auto.Discover(ctx, token)
		if err != nil {
			return nil, err
		}
		return []*domain.TokenPair{pair}, nil
	default:
		return nil, nil
	}
}

func render(format string, result *ladder.RunResult) {
	report := &reporting.RunReport{Run: result.Run, Points: result.Points}
	switch format {
	case "csv":
		fmt.Print(reporting.RenderCSV(report))
	default:
		fmt.Print(reporting.RenderTable(report))
	}
}

// parseLadder parses "1,5,25" into rungs, preserving the given order.
func parseLadder(spec string) ([]int64, error) {
	if spec == "" {
		return nil, nil
	}
	var ladder []int64
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("rung %q: %w", part, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("rung %d must be positive", v)
		}
		ladder = append(ladder, v)
	}
	return ladder, nil
}

func flagOrEnv(flagValue, envKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envKey)
}
