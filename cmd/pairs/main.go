package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"dex-liquidity-lab/internal/birdeye"
	"dex-liquidity-lab/internal/discovery"
	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/storage"
	"dex-liquidity-lab/internal/storage/migrations"
	pgstore "dex-liquidity-lab/internal/storage/postgres"
	"dex-liquidity-lab/internal/zeroex"
)

const usage = `Usage:
  pairs list
  pairs add-auto <token-address>       discover the deepest market and register it
  pairs add -base <addr> -pool <addr> -quote <addr> [-base-symbol S] [-quote-symbol S] [-base-decimals N] [-quote-decimals N]
  pairs remove <base-address> <pool-address>
`

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (or POSTGRES_DSN)")
	chainID := flag.Int64("chain-id", zeroex.DefaultChainID, "EVM chain id")

	baseAddr := flag.String("base", "", "Base token address (add)")
	poolAddr := flag.String("pool", "", "Pool address (add)")
	quoteAddr := flag.String("quote", "", "Quote token address (add)")
	baseSymbol := flag.String("base-symbol", "", "Base token symbol (add)")
	quoteSymbol := flag.String("quote-symbol", "", "Quote token symbol (add)")
	baseDecimals := flag.Int("base-decimals", 18, "Base token decimals (add)")
	quoteDecimals := flag.Int("quote-decimals", 18, "Quote token decimals (add)")

	flag.Parse()

	logger := log.New(os.Stderr, "[pairs] ", log.LstdFlags)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Printf("WARN: load .env: %v", err)
	}

	dsn := *postgresDSN
	if dsn == "" {
		dsn = os.Getenv("POSTGRES_DSN")
	}
	if dsn == "" {
		logger.Fatal("--postgres-dsn or POSTGRES_DSN is required")
	}

	ctx := context.Background()
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		logger.Fatalf("Connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Apply migrations: %v", err)
	}
	store := pgstore.NewPairStore(pool)

	switch flag.Arg(0) {
	case "list":
		err = list(ctx, store)
	case "add-auto":
		token := flag.Arg(1)
		if token == "" {
			logger.Fatal("add-auto requires a token address")
		}
		err = addAuto(ctx, logger, store, token, *chainID)
	case "add":
		if *baseAddr == "" || *poolAddr == "" || *quoteAddr == "" {
			logger.Fatal("add requires -base, -pool and -quote")
		}
		err = store.Upsert(ctx, &domain.TokenPair{
			BaseAddress:   *baseAddr,
			BaseSymbol:    optional(*baseSymbol),
			BaseDecimals:  *baseDecimals,
			PairAddress:   *poolAddr,
			QuoteAddress:  *quoteAddr,
			QuoteSymbol:   optional(*quoteSymbol),
			QuoteDecimals: *quoteDecimals,
		})
		if err == nil {
			fmt.Printf("Registered %s at %s\n", *baseAddr, *poolAddr)
		}
	case "remove":
		base, pairAddress := flag.Arg(1), flag.Arg(2)
		if base == "" || pairAddress == "" {
			logger.Fatal("remove requires <base-address> <pool-address>")
		}
		var removed int64
		removed, err = store.Delete(ctx, base, pairAddress)
		if err == nil {
			fmt.Printf("Removed %d pair(s)\n", removed)
		}
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func list(ctx context.Context, store storage.PairStore) error {
	pairs, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		fmt.Println("No pairs registered")
		return nil
	}
	fmt.Printf("%-12s %-12s %-44s %-44s %s\n", "base", "quote", "base_address", "pool_address", "decimals")
	for _, p := range pairs {
		fmt.Printf("%-12s %-12s %-44s %-44s %d/%d\n",
			symbolOr(p.BaseSymbol), symbolOr(p.QuoteSymbol),
			p.BaseAddress, p.PairAddress, p.BaseDecimals, p.QuoteDecimals)
	}
	return nil
}

func addAuto(ctx context.Context, logger *log.Logger, store storage.PairStore, token string, chainID int64) error {
	apiKey := os.Getenv("BIRDEYE_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("BIRDEYE_API_KEY is required for add-auto")
	}
	chain, err := birdeye.ChainFromID(chainID)
	if err != nil {
		return err
	}

	auto := discovery.NewAutoPair(birdeye.NewClient(apiKey, chain), store, logger)
	pair, err := auto.Discover(ctx, token)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s/%s at %s\n", symbolOr(pair.BaseSymbol), symbolOr(pair.QuoteSymbol), pair.PairAddress)
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func symbolOr(s *string) string {
	if s == nil {
		return "?"
	}
	return *s
}
