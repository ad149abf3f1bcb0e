package postgres

import (
	"context"
	"fmt"

	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/storage"
)

// TokenPriceStore implements storage.TokenPriceStore using PostgreSQL.
type TokenPriceStore struct {
	pool *Pool
}

// NewTokenPriceStore creates a new TokenPriceStore.
func NewTokenPriceStore(pool *Pool) *TokenPriceStore {
	return &TokenPriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenPriceStore = (*TokenPriceStore)(nil)

// Upsert inserts or replaces the live price for a token.
func (s *TokenPriceStore) Upsert(ctx context.Context, p *domain.TokenPrice) error {
	if p == nil || p.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_prices_live (address, symbol, price_usd, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE SET
			symbol     = excluded.symbol,
			price_usd  = excluded.price_usd,
			updated_at = excluded.updated_at
	`

	_, err := s.pool.Exec(ctx, query, p.Address, p.Symbol, p.PriceUSD, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert token price: %w", err)
	}
	return nil
}

// Get retrieves the live price for a token.
func (s *TokenPriceStore) Get(ctx context.Context, address string) (*domain.TokenPrice, error) {
	query := `
		SELECT address, symbol, price_usd, updated_at
		FROM token_prices_live
		WHERE address = $1
	`

	var p domain.TokenPrice
	err := s.pool.QueryRow(ctx, query, address).Scan(&p.Address, &p.Symbol, &p.PriceUSD, &p.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token price: %w", err)
	}
	return &p, nil
}
