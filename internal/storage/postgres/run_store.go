package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	id, started_at, pair_address,
	base_address, base_symbol, base_decimals,
	quote_address, quote_symbol, quote_decimals,
	baseline_usd, quote_usd, base_usd,
	unit_buy_baseline, unit_sell_baseline, usd_ladder
`

// CreateRun persists a run header and returns its assigned id.
func (s *RunStore) CreateRun(ctx context.Context, run *domain.LadderRun) (int64, error) {
	if run == nil || run.BaseAddress == "" || run.PairAddress == "" {
		return 0, storage.ErrInvalidInput
	}

	// JSON keeps the ladder an ordered list; [1,5,10] must come back as
	// [1,5,10], never a set.
	ladder, err := json.Marshal(run.USDLadder)
	if err != nil {
		return 0, fmt.Errorf("marshal usd ladder: %w", err)
	}

	query := `
		INSERT INTO ladder_runs (
			started_at, pair_address,
			base_address, base_symbol, base_decimals,
			quote_address, quote_symbol, quote_decimals,
			baseline_usd, quote_usd, base_usd,
			unit_buy_baseline, unit_sell_baseline, usd_ladder
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	var id int64
	err = s.pool.QueryRow(ctx, query,
		run.StartedAt,
		run.PairAddress,
		run.BaseAddress,
		run.BaseSymbol,
		run.BaseDecimals,
		run.QuoteAddress,
		run.QuoteSymbol,
		run.QuoteDecimals,
		run.BaselineUSD,
		run.QuoteUSD,
		run.BaseUSD,
		run.UnitBuyBaseline,
		run.UnitSellBaseline,
		string(ladder),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert ladder run: %w", err)
	}
	return id, nil
}

// SavePoints upserts points keyed by (run_id, usd).
func (s *RunStore) SavePoints(ctx context.Context, runID int64, points []*domain.LadderPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO ladder_points (
			run_id, usd, buy_bps, sell_bps,
			buy_liquidity_available, sell_liquidity_available,
			buy_top_source, sell_top_source,
			buy_route_concentration_percent, sell_route_concentration_percent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id, usd) DO UPDATE SET
			buy_bps                          = excluded.buy_bps,
			sell_bps                         = excluded.sell_bps,
			buy_liquidity_available          = excluded.buy_liquidity_available,
			sell_liquidity_available         = excluded.sell_liquidity_available,
			buy_top_source                   = excluded.buy_top_source,
			sell_top_source                  = excluded.sell_top_source,
			buy_route_concentration_percent  = excluded.buy_route_concentration_percent,
			sell_route_concentration_percent = excluded.sell_route_concentration_percent
	`

	for _, p := range points {
		if p == nil {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			runID,
			p.USD,
			p.BuyBps,
			p.SellBps,
			p.BuyLiquidityAvailable,
			p.SellLiquidityAvailable,
			p.BuyTopSource,
			p.SellTopSource,
			p.BuyRouteConcentrationPercent,
			p.SellRouteConcentrationPercent,
		)
		if err != nil {
			return fmt.Errorf("upsert ladder point: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetRun retrieves a run header by id.
func (s *RunStore) GetRun(ctx context.Context, id int64) (*domain.LadderRun, error) {
	query := `SELECT ` + runColumns + ` FROM ladder_runs WHERE id = $1`

	run, err := scanRun(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ladder run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves run headers ordered by recency (newest first).
func (s *RunStore) ListRuns(ctx context.Context, limit, offset int) ([]*domain.LadderRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM ladder_runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ladder runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// ListRunsByPair retrieves the most recent run headers for one pair.
func (s *RunStore) ListRunsByPair(ctx context.Context, pairAddress string, limit int) ([]*domain.LadderRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM ladder_runs
		WHERE pair_address = $1
		ORDER BY started_at DESC, id DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, pairAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("list ladder runs by pair: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetPoints retrieves a run's points ordered by usd ascending.
func (s *RunStore) GetPoints(ctx context.Context, runID int64) ([]*domain.LadderPoint, error) {
	query := `
		SELECT run_id, usd, buy_bps, sell_bps,
		       buy_liquidity_available, sell_liquidity_available,
		       buy_top_source, sell_top_source,
		       buy_route_concentration_percent, sell_route_concentration_percent
		FROM ladder_points
		WHERE run_id = $1
		ORDER BY usd ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get ladder points: %w", err)
	}
	defer rows.Close()

	points := make([]*domain.LadderPoint, 0)
	for rows.Next() {
		var p domain.LadderPoint

		err := rows.Scan(
			&p.RunID,
			&p.USD,
			&p.BuyBps,
			&p.SellBps,
			&p.BuyLiquidityAvailable,
			&p.SellLiquidityAvailable,
			&p.BuyTopSource,
			&p.SellTopSource,
			&p.BuyRouteConcentrationPercent,
			&p.SellRouteConcentrationPercent,
		)
		if err != nil {
			return nil, fmt.Errorf("scan point row: %w", err)
		}

		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate point rows: %w", err)
	}

	return points, nil
}

// DeleteRun removes a run; ladder_points cascade via foreign key.
func (s *RunStore) DeleteRun(ctx context.Context, id int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ladder_runs WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete ladder run: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanRun scans a single run row.
func scanRun(row pgx.Row) (*domain.LadderRun, error) {
	var run domain.LadderRun
	var ladder string

	err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&run.PairAddress,
		&run.BaseAddress,
		&run.BaseSymbol,
		&run.BaseDecimals,
		&run.QuoteAddress,
		&run.QuoteSymbol,
		&run.QuoteDecimals,
		&run.BaselineUSD,
		&run.QuoteUSD,
		&run.BaseUSD,
		&run.UnitBuyBaseline,
		&run.UnitSellBaseline,
		&ladder,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(ladder), &run.USDLadder); err != nil {
		return nil, fmt.Errorf("unmarshal usd ladder: %w", err)
	}
	return &run, nil
}

// scanRuns scans multiple run rows.
func scanRuns(rows pgx.Rows) ([]*domain.LadderRun, error) {
	var runs []*domain.LadderRun

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}
