package clickhouse

import (
	"context"
	"fmt"

	"dex-liquidity-lab/internal/domain"
)

// ImpactHistoryStore keeps an append-only, per-rung mirror of completed runs
// in ClickHouse. It is a feed for charting backends (impact over time per
// pair); the relational RunStore stays the system of record.
type ImpactHistoryStore struct {
	conn *Conn
}

// NewImpactHistoryStore creates a new ImpactHistoryStore.
func NewImpactHistoryStore(conn *Conn) *ImpactHistoryStore {
	return &ImpactHistoryStore{conn: conn}
}

// ImpactHistoryRow is one rung of one run, flattened with its run context.
type ImpactHistoryRow struct {
	PairAddress string
	RunID       int64
	StartedAt   int64 // Unix timestamp in seconds
	USD         int64
	BuyBps      *float64
	SellBps     *float64
	BaseUSD     float64
}

// AppendRun flattens a run's points into history rows and appends them.
func (s *ImpactHistoryStore) AppendRun(ctx context.Context, run *domain.LadderRun, points []*domain.LadderPoint) error {
	if run == nil || len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO impact_history (
			pair_address, run_id, started_at, usd, buy_bps, sell_bps, base_usd
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			run.PairAddress, run.ID, uint64(run.StartedAt), p.USD,
			p.BuyBps, p.SellBps, run.BaseUSD,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPair retrieves history rows for a pair ordered by run time then rung
// size. limit bounds the number of most recent runs included (0 = all).
func (s *ImpactHistoryStore) GetByPair(ctx context.Context, pairAddress string, limit int) ([]*ImpactHistoryRow, error) {
	query := `
		SELECT pair_address, run_id, started_at, usd, buy_bps, sell_bps, base_usd
		FROM impact_history
		WHERE pair_address = ?
		ORDER BY started_at ASC, run_id ASC, usd ASC
	`
	args := []interface{}{pairAddress}

	if limit > 0 {
		query = `
			SELECT pair_address, run_id, started_at, usd, buy_bps, sell_bps, base_usd
			FROM impact_history
			WHERE pair_address = ? AND run_id IN (
				SELECT DISTINCT run_id FROM impact_history
				WHERE pair_address = ?
				ORDER BY started_at DESC, run_id DESC
				LIMIT ?
			)
			ORDER BY started_at ASC, run_id ASC, usd ASC
		`
		args = []interface{}{pairAddress, pairAddress, limit}
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query impact history: %w", err)
	}
	defer rows.Close()

	var result []*ImpactHistoryRow
	for rows.Next() {
		var r ImpactHistoryRow
		var startedAt uint64

		err := rows.Scan(&r.PairAddress, &r.RunID, &startedAt, &r.USD, &r.BuyBps, &r.SellBps, &r.BaseUSD)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		r.StartedAt = int64(startedAt)

		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	return result, nil
}
