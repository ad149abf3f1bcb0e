package storage

import (
	"context"

	"dex-liquidity-lab/internal/domain"
)

// PairStore provides access to token_pairs storage.
type PairStore interface {
	// Upsert inserts a pair or refreshes symbols/decimals of the existing
	// (base_address, pair_address) row. Never creates duplicates.
	Upsert(ctx context.Context, p *domain.TokenPair) error

	// GetByPairAddress retrieves one pair by its pool address.
	// Returns ErrNotFound if not exists.
	GetByPairAddress(ctx context.Context, pairAddress string) (*domain.TokenPair, error)

	// List retrieves all known pairs, ordered by base symbol, quote symbol,
	// pair address.
	List(ctx context.Context) ([]*domain.TokenPair, error)

	// Delete removes a pair. Returns the number of rows removed.
	Delete(ctx context.Context, baseAddress, pairAddress string) (int64, error)
}

// RunStore provides access to ladder_runs and ladder_points storage.
// Header creation and point insertion are separate steps: a run with zero
// points is valid and readers must return it with an empty point list.
type RunStore interface {
	// CreateRun persists a run header and returns its assigned id.
	CreateRun(ctx context.Context, run *domain.LadderRun) (int64, error)

	// SavePoints upserts points keyed by (run_id, usd). Re-measuring a rung
	// overwrites its metrics, never duplicates the row.
	SavePoints(ctx context.Context, runID int64, points []*domain.LadderPoint) error

	// GetRun retrieves a run header by id. Returns ErrNotFound if not exists.
	GetRun(ctx context.Context, id int64) (*domain.LadderRun, error)

	// ListRuns retrieves run headers ordered by recency (newest first).
	ListRuns(ctx context.Context, limit, offset int) ([]*domain.LadderRun, error)

	// ListRunsByPair retrieves the most recent run headers for one pair,
	// newest first.
	ListRunsByPair(ctx context.Context, pairAddress string, limit int) ([]*domain.LadderRun, error)

	// GetPoints retrieves a run's points ordered by usd ascending,
	// regardless of insertion order.
	GetPoints(ctx context.Context, runID int64) ([]*domain.LadderPoint, error)

	// DeleteRun removes a run and cascades to all its points. Returns the
	// number of runs removed (0 or 1).
	DeleteRun(ctx context.Context, id int64) (int64, error)
}

// TokenPriceStore provides access to token_prices_live storage.
type TokenPriceStore interface {
	// Upsert inserts or replaces the live price for a token.
	Upsert(ctx context.Context, p *domain.TokenPrice) error

	// Get retrieves the live price for a token. Returns ErrNotFound if
	// not exists.
	Get(ctx context.Context, address string) (*domain.TokenPrice, error)
}
