// Package pricing resolves the live USD price of a token: cached store
// first, external overview service on miss, write-through on fetch.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dex-liquidity-lab/internal/birdeye"
	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/storage"
)

// OverviewClient fetches symbol and USD price for one token.
type OverviewClient interface {
	TokenOverview(ctx context.Context, address string) (*birdeye.Overview, error)
}

// Resolver is a read-through USD price lookup over a TokenPriceStore.
type Resolver struct {
	store    storage.TokenPriceStore
	overview OverviewClient
	now      func() time.Time
}

// NewResolver creates a new Resolver.
func NewResolver(store storage.TokenPriceStore, overview OverviewClient) *Resolver {
	return &Resolver{
		store:    store,
		overview: overview,
		now:      time.Now,
	}
}

// USDPrice returns USD per 1 token. A cached price is used when present and
// positive; otherwise the overview service is queried and the result is
// upserted into the store.
func (r *Resolver) USDPrice(ctx context.Context, address string) (float64, error) {
	cached, err := r.store.Get(ctx, address)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("read cached price: %w", err)
	}
	if cached != nil && cached.PriceUSD > 0 {
		return cached.PriceUSD, nil
	}

	ov, err := r.overview.TokenOverview(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("fetch token overview: %w", err)
	}

	price := &domain.TokenPrice{
		Address:   address,
		Symbol:    &ov.Symbol,
		PriceUSD:  ov.PriceUSD,
		UpdatedAt: r.now().Unix(),
	}
	if err := r.store.Upsert(ctx, price); err != nil {
		return 0, fmt.Errorf("cache fetched price: %w", err)
	}

	return ov.PriceUSD, nil
}
