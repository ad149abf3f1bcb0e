// Package discovery bootstraps measurable token pairs from market listings,
// so operators can add a pair knowing only the token address.
package discovery

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"dex-liquidity-lab/internal/birdeye"
	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/storage"
)

// defaultDecimals is assumed when a market listing omits token decimals.
const defaultDecimals = 18

// MarketLister lists the pools a token trades in.
type MarketLister interface {
	Markets(ctx context.Context, address string) ([]birdeye.Market, error)
}

// AutoPair resolves a token address to its deepest market and registers the
// resulting pair.
type AutoPair struct {
	markets MarketLister
	pairs   storage.PairStore
	logger  *log.Logger
}

// NewAutoPair creates a new AutoPair.
func NewAutoPair(markets MarketLister, pairs storage.PairStore, logger *log.Logger) *AutoPair {
	if logger == nil {
		logger = log.New(os.Stdout, "[discovery] ", log.LstdFlags)
	}
	return &AutoPair{markets: markets, pairs: pairs, logger: logger}
}

// Discover finds the highest-liquidity market for the token, orients the
// token as the pair's base side and upserts the pair. The token may appear
// on either side of the listed market.
func (a *AutoPair) Discover(ctx context.Context, tokenAddress string) (*domain.TokenPair, error) {
	markets, err := a.markets.Markets(ctx, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("list markets for %s: %w", tokenAddress, err)
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("no markets found for %s", tokenAddress)
	}

	best := markets[0]
	for _, m := range markets[1:] {
		if m.Liquidity > best.Liquidity {
			best = m
		}
	}

	pair, err := orientPair(best, tokenAddress)
	if err != nil {
		return nil, err
	}
	if err := a.pairs.Upsert(ctx, pair); err != nil {
		return nil, fmt.Errorf("store discovered pair: %w", err)
	}

	a.logger.Printf("Discovered pair %s: %s/%s (liquidity %.0f across %d markets)",
		pair.PairAddress, symbolOr(pair.BaseSymbol, "?"), symbolOr(pair.QuoteSymbol, "?"),
		best.Liquidity, len(markets))
	return pair, nil
}

// orientPair builds a TokenPair with tokenAddress as the base side.
func orientPair(m birdeye.Market, tokenAddress string) (*domain.TokenPair, error) {
	var tokenSide, otherSide birdeye.MarketSide
	switch {
	case strings.EqualFold(m.Base.Address, tokenAddress):
		tokenSide, otherSide = m.Base, m.Quote
	case strings.EqualFold(m.Quote.Address, tokenAddress):
		tokenSide, otherSide = m.Quote, m.Base
	default:
		return nil, fmt.Errorf("market %s does not contain token %s", m.Address, tokenAddress)
	}

	return &domain.TokenPair{
		BaseAddress:   tokenSide.Address,
		BaseSymbol:    symbolPtr(tokenSide.Symbol),
		BaseDecimals:  decimalsOrDefault(tokenSide.Decimals),
		PairAddress:   m.Address,
		QuoteAddress:  otherSide.Address,
		QuoteSymbol:   symbolPtr(otherSide.Symbol),
		QuoteDecimals: decimalsOrDefault(otherSide.Decimals),
	}, nil
}

func decimalsOrDefault(d *int) int {
	if d == nil || *d <= 0 {
		return defaultDecimals
	}
	return *d
}

func symbolPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func symbolOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
