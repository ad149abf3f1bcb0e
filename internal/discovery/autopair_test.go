package discovery

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"dex-liquidity-lab/internal/birdeye"
	"dex-liquidity-lab/internal/storage/memory"
)

type fakeMarkets struct {
	markets []birdeye.Market
	err     error
}

func (f *fakeMarkets) Markets(_ context.Context, _ string) ([]birdeye.Market, error) {
	return f.markets, f.err
}

func intPtr(v int) *int { return &v }

func market(pool string, liquidity float64, base, quote birdeye.MarketSide) birdeye.Market {
	return birdeye.Market{Address: pool, Liquidity: liquidity, Base: base, Quote: quote}
}

func newAutoPair(markets MarketLister) (*AutoPair, *memory.PairStore) {
	store := memory.NewPairStore()
	return NewAutoPair(markets, store, log.New(io.Discard, "", 0)), store
}

func TestAutoPair_PicksDeepestMarket(t *testing.T) {
	tok := birdeye.MarketSide{Address: "0xtok", Symbol: "TOK", Decimals: intPtr(18)}
	weth := birdeye.MarketSide{Address: "0xweth", Symbol: "WETH", Decimals: intPtr(18)}
	usdc := birdeye.MarketSide{Address: "0xusdc", Symbol: "USDC", Decimals: intPtr(6)}

	auto, store := newAutoPair(&fakeMarkets{markets: []birdeye.Market{
		market("0xshallow", 1000, tok, weth),
		market("0xdeep", 50000, tok, usdc),
		market("0xmid", 9000, tok, weth),
	}})

	pair, err := auto.Discover(context.Background(), "0xtok")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if pair.PairAddress != "0xdeep" {
		t.Errorf("Expected deepest market 0xdeep, got %s", pair.PairAddress)
	}
	if pair.QuoteAddress != "0xusdc" || pair.QuoteDecimals != 6 {
		t.Errorf("Quote side wrong: %+v", pair)
	}

	stored, err := store.GetByPairAddress(context.Background(), "0xdeep")
	if err != nil {
		t.Fatalf("Expected discovered pair persisted: %v", err)
	}
	if stored.BaseAddress != "0xtok" {
		t.Errorf("Stored base: got %s", stored.BaseAddress)
	}
}

func TestAutoPair_OrientsTokenAsBase(t *testing.T) {
	// Token listed on the quote side of the market.
	weth := birdeye.MarketSide{Address: "0xweth", Symbol: "WETH", Decimals: intPtr(18)}
	tok := birdeye.MarketSide{Address: "0xTOK", Symbol: "TOK", Decimals: intPtr(8)}

	auto, _ := newAutoPair(&fakeMarkets{markets: []birdeye.Market{
		market("0xpool", 100, weth, tok),
	}})

	// Case-insensitive address match.
	pair, err := auto.Discover(context.Background(), "0xtok")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if pair.BaseAddress != "0xTOK" || pair.BaseDecimals != 8 {
		t.Errorf("Expected token oriented as base, got %+v", pair)
	}
	if pair.QuoteAddress != "0xweth" {
		t.Errorf("Expected WETH as quote, got %s", pair.QuoteAddress)
	}
}

func TestAutoPair_DefaultsMissingDecimals(t *testing.T) {
	tok := birdeye.MarketSide{Address: "0xtok", Symbol: "TOK"}
	weth := birdeye.MarketSide{Address: "0xweth"}

	auto, _ := newAutoPair(&fakeMarkets{markets: []birdeye.Market{
		market("0xpool", 100, tok, weth),
	}})

	pair, err := auto.Discover(context.Background(), "0xtok")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if pair.BaseDecimals != 18 || pair.QuoteDecimals != 18 {
		t.Errorf("Expected decimals defaulted to 18, got %d/%d", pair.BaseDecimals, pair.QuoteDecimals)
	}
	if pair.QuoteSymbol != nil {
		t.Errorf("Expected missing symbol stored as nil, got %v", *pair.QuoteSymbol)
	}
}

func TestAutoPair_NoMarkets(t *testing.T) {
	auto, _ := newAutoPair(&fakeMarkets{})
	if _, err := auto.Discover(context.Background(), "0xtok"); err == nil {
		t.Fatal("Expected error when token has no markets")
	}
}

func TestAutoPair_ListerFailure(t *testing.T) {
	auto, _ := newAutoPair(&fakeMarkets{err: errors.New("birdeye down")})
	if _, err := auto.Discover(context.Background(), "0xtok"); err == nil {
		t.Fatal("Expected error when market listing fails")
	}
}
