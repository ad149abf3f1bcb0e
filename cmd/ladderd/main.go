package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dex-liquidity-lab/internal/birdeye"
	"dex-liquidity-lab/internal/config"
	"dex-liquidity-lab/internal/ladder"
	"dex-liquidity-lab/internal/observability"
	"dex-liquidity-lab/internal/pricing"
	"dex-liquidity-lab/internal/scheduler"
	"dex-liquidity-lab/internal/storage"
	chstore "dex-liquidity-lab/internal/storage/clickhouse"
	"dex-liquidity-lab/internal/storage/memory"
	"dex-liquidity-lab/internal/storage/migrations"
	pgstore "dex-liquidity-lab/internal/storage/postgres"
	"dex-liquidity-lab/internal/zeroex"
)

func main() {
	// Parse flags
	configPath := flag.String("config", config.DefaultPath, "Path to the JSON config document")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (or POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "Optional ClickHouse DSN for impact history (or CLICKHOUSE_DSN)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	chainID := flag.Int64("chain-id", zeroex.DefaultChainID, "EVM chain id for quotes")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[ladderd] ", log.LstdFlags)

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

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err := run(ctx, logger, *configPath, flagOrEnv(*postgresDSN, "POSTGRES_DSN"),
		flagOrEnv(*clickhouseDSN, "CLICKHOUSE_DSN"), zeroexKey, birdeyeKey, *chainID, *useMemory)

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func run(ctx context.Context, logger *log.Logger, configPath, postgresDSN, clickhouseDSN, zeroexKey, birdeyeKey string, chainID int64, useMemory bool) error {
	// Create stores (use interfaces)
	var pairStore storage.PairStore = memory.NewPairStore()
	var runStore storage.RunStore = memory.NewRunStore()
	var priceStore storage.TokenPriceStore = memory.NewTokenPriceStore()

	if !useMemory && postgresDSN == "" {
		return errors.New("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	if !useMemory {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return err
		}

		pairStore = pgstore.NewPairStore(pool)
		runStore = pgstore.NewRunStore(pool)
		priceStore = pgstore.NewTokenPriceStore(pool)
	}

	var history ladder.HistorySink
	if clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			return err
		}
		history = chstore.NewImpactHistoryStore(conn)
	}

	oracle := zeroex.NewClient(zeroexKey, zeroex.WithChainID(chainID))
	chain, err := birdeye.ChainFromID(chainID)
	if err != nil {
		return err
	}
	resolver := pricing.NewResolver(priceStore, birdeye.NewClient(birdeyeKey, chain))

	runner := ladder.NewRunner(ladder.RunnerOptions{
		Engine:  ladder.NewEngine(ladder.EngineOptions{Oracle: oracle, Logger: logger}),
		Prices:  resolver,
		Runs:    runStore,
		History: history,
		Logger:  logger,
	})

	sched := scheduler.New(scheduler.Options{
		Config: config.NewFileStore(configPath),
		Pairs:  pairStore,
		Runner: runner,
		Logger: logger,
	})

	logger.Printf("Starting scheduler with config %s", configPath)
	return sched.Run(ctx)
}

func flagOrEnv(flagValue, envKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envKey)
}
