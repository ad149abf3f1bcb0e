package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/storage"
)

// PairStore implements storage.PairStore using PostgreSQL.
type PairStore struct {
	pool *Pool
}

// NewPairStore creates a new PairStore.
func NewPairStore(pool *Pool) *PairStore {
	return &PairStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PairStore = (*PairStore)(nil)

// Upsert inserts a pair or refreshes symbols/decimals of the existing
// (base_address, pair_address) row.
func (s *PairStore) Upsert(ctx context.Context, p *domain.TokenPair) error {
	if p == nil || p.BaseAddress == "" || p.PairAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_pairs (
			base_address, base_symbol, base_decimals,
			pair_address,
			quote_address, quote_symbol, quote_decimals
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (base_address, pair_address) DO UPDATE SET
			base_symbol    = excluded.base_symbol,
			base_decimals  = excluded.base_decimals,
			quote_address  = excluded.quote_address,
			quote_symbol   = excluded.quote_symbol,
			quote_decimals = excluded.quote_decimals
	`

	_, err := s.pool.Exec(ctx, query,
		p.BaseAddress,
		p.BaseSymbol,
		p.BaseDecimals,
		p.PairAddress,
		p.QuoteAddress,
		p.QuoteSymbol,
		p.QuoteDecimals,
	)
	if err != nil {
		return fmt.Errorf("upsert token pair: %w", err)
	}
	return nil
}

// GetByPairAddress retrieves one pair by its pool address.
func (s *PairStore) GetByPairAddress(ctx context.Context, pairAddress string) (*domain.TokenPair, error) {
	query := `
		SELECT base_address, base_symbol, base_decimals,
		       pair_address, quote_address, quote_symbol, quote_decimals
		FROM token_pairs
		WHERE pair_address = $1
		ORDER BY base_address
		LIMIT 1
	`

	var p domain.TokenPair
	err := s.pool.QueryRow(ctx, query, pairAddress).Scan(
		&p.BaseAddress,
		&p.BaseSymbol,
		&p.BaseDecimals,
		&p.PairAddress,
		&p.QuoteAddress,
		&p.QuoteSymbol,
		&p.QuoteDecimals,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pair by address: %w", err)
	}
	return &p, nil
}

// List retrieves all pairs ordered by base symbol, quote symbol, pair address.
func (s *PairStore) List(ctx context.Context) ([]*domain.TokenPair, error) {
	query := `
		SELECT base_address, base_symbol, base_decimals,
		       pair_address, quote_address, quote_symbol, quote_decimals
		FROM token_pairs
		ORDER BY base_symbol, quote_symbol, pair_address
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list token pairs: %w", err)
	}
	defer rows.Close()

	return scanPairs(rows)
}

// Delete removes a pair. Returns the number of rows removed.
func (s *PairStore) Delete(ctx context.Context, baseAddress, pairAddress string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM token_pairs WHERE base_address = $1 AND pair_address = $2`,
		baseAddress, pairAddress,
	)
	if err != nil {
		return 0, fmt.Errorf("delete token pair: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanPairs scans multiple rows into a slice of TokenPair.
func scanPairs(rows pgx.Rows) ([]*domain.TokenPair, error) {
	var pairs []*domain.TokenPair

	for rows.Next() {
		var p domain.TokenPair

		err := rows.Scan(
			&p.BaseAddress,
			&p.BaseSymbol,
			&p.BaseDecimals,
			&p.PairAddress,
			&p.QuoteAddress,
			&p.QuoteSymbol,
			&p.QuoteDecimals,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pair row: %w", err)
		}

		pairs = append(pairs, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pair rows: %w", err)
	}

	return pairs, nil
}
