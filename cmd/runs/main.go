package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/reporting"
	"dex-liquidity-lab/internal/storage"
	chstore "dex-liquidity-lab/internal/storage/clickhouse"
	"dex-liquidity-lab/internal/storage/migrations"
	pgstore "dex-liquidity-lab/internal/storage/postgres"
)

const usage = `Usage:
  runs list [-pair <pool-address>] [-limit N] [-offset N]
  runs show <run-id> [-format table|csv]
  runs delete <run-id>
  runs history -pair <pool-address> [-limit N]     (requires CLICKHOUSE_DSN)
`

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (or POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse DSN for history (or CLICKHOUSE_DSN)")
	pairAddr := flag.String("pair", "", "Filter by pool address")
	limit := flag.Int("limit", 20, "Maximum results")
	offset := flag.Int("offset", 0, "Results to skip (list)")
	format := flag.String("format", "table", "Output format for show: table or csv")

	flag.Parse()

	logger := log.New(os.Stderr, "[runs] ", log.LstdFlags)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Printf("WARN: load .env: %v", err)
	}

	ctx := context.Background()
	command := flag.Arg(0)

	if command == "history" {
		if err := history(ctx, flagOrEnv(*clickhouseDSN, "CLICKHOUSE_DSN"), *pairAddr, *limit); err != nil {
			logger.Fatalf("Error: %v", err)
		}
		return
	}

	dsn := flagOrEnv(*postgresDSN, "POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal("--postgres-dsn or POSTGRES_DSN is required")
	}
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		logger.Fatalf("Connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Apply migrations: %v", err)
	}
	store := pgstore.NewRunStore(pool)

	switch command {
	case "list":
		err = list(ctx, store, *pairAddr, *limit, *offset)
	case "show":
		var id int64
		id, err = parseRunID(flag.Arg(1))
		if err == nil {
			err = show(ctx, store, id, *format)
		}
	case "delete":
		var id int64
		id, err = parseRunID(flag.Arg(1))
		if err == nil {
			var removed int64
			removed, err = store.DeleteRun(ctx, id)
			if err == nil {
				fmt.Printf("Removed %d run(s)\n", removed)
			}
		}
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func list(ctx context.Context, store storage.RunStore, pairAddr string, limit, offset int) error {
	var (
		runs []*domain.LadderRun
		err  error
	)
	if pairAddr != "" {
		runs, err = store.ListRunsByPair(ctx, pairAddr, limit)
	} else {
		runs, err = store.ListRuns(ctx, limit, offset)
	}
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	fmt.Printf("%-8s %-22s %-20s %-10s %-12s %s\n", "id", "started", "pair", "baseline", "quote_usd", "rungs")
	for _, r := range runs {
		fmt.Printf("%-8d %-22s %-20s $%-9d %-12.4f %d\n",
			r.ID, time.Unix(r.StartedAt, 0).UTC().Format(time.RFC3339),
			(&reporting.RunReport{Run: r}).PairLabel(), r.BaselineUSD, r.QuoteUSD, len(r.USDLadder))
	}
	return nil
}

func show(ctx context.Context, store storage.RunStore, id int64, format string) error {
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("run %d: %w", id, err)
	}
	points, err := store.GetPoints(ctx, id)
	if err != nil {
		return fmt.Errorf("points for run %d: %w", id, err)
	}

	report := &reporting.RunReport{Run: run, Points: points}
	if format == "csv" {
		fmt.Print(reporting.RenderCSV(report))
	} else {
		fmt.Print(reporting.RenderTable(report))
	}
	return nil
}

func history(ctx context.Context, dsn, pairAddr string, limit int) error {
	if pairAddr == "" {
		return fmt.Errorf("history requires -pair")
	}
	if dsn == "" {
		return fmt.Errorf("history requires --clickhouse-dsn or CLICKHOUSE_DSN")
	}

	conn, err := chstore.NewConn(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close()

	rows, err := chstore.NewImpactHistoryStore(conn).GetByPair(ctx, pairAddr, limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No history for pair")
		return nil
	}

	fmt.Printf("%-22s %-8s %-10s %-10s %-10s\n", "started", "run", "usd", "buy_bps", "sell_bps")
	for _, r := range rows {
		fmt.Printf("%-22s %-8d $%-9d %-10s %-10s\n",
			time.Unix(r.StartedAt, 0).UTC().Format(time.RFC3339),
			r.RunID, r.USD, historyBps(r.BuyBps), historyBps(r.SellBps))
	}
	return nil
}

func historyBps(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%+.1f", *v)
}

func parseRunID(arg string) (int64, error) {
	if arg == "" {
		return 0, fmt.Errorf("run id is required")
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid run id %q", arg)
	}
	return id, nil
}

func flagOrEnv(flagValue, envKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envKey)
}
