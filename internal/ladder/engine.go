// Package ladder measures DEX price impact across a USD trade-size ladder.
//
// A run anchors both directions to a small baseline notional: the unit rate
// observed there defines impact = 0 bps, and every rung's rate is compared
// against it. Buys sell the quote token for the base token, sells do the
// opposite.
package ladder

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/observability"
	"dex-liquidity-lab/internal/zeroex"
)

// DefaultQuoteSpacing is the minimum delay between consecutive oracle calls.
const DefaultQuoteSpacing = 150 * time.Millisecond

// Oracle prices one indicative swap.
type Oracle interface {
	Price(ctx context.Context, req zeroex.PriceRequest) (*domain.Quote, error)
}

// PriceResolver returns USD per 1 token unit.
type PriceResolver interface {
	USDPrice(ctx context.Context, address string) (float64, error)
}

// Engine computes baselines and sweeps ladders against a pricing oracle.
// Oracle calls are paced by a rate limiter so a full sweep stays inside
// API rate limits.
type Engine struct {
	oracle  Oracle
	limiter *rate.Limiter
	logger  *log.Logger
}

// EngineOptions configures Engine.
type EngineOptions struct {
	Oracle Oracle

	// QuoteSpacing is the minimum delay between oracle calls.
	// Defaults to DefaultQuoteSpacing.
	QuoteSpacing time.Duration

	Logger *log.Logger
}

// NewEngine creates a new Engine.
func NewEngine(opts EngineOptions) *Engine {
	spacing := opts.QuoteSpacing
	if spacing <= 0 {
		spacing = DefaultQuoteSpacing
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[ladder] ", log.LstdFlags)
	}
	return &Engine{
		oracle:  opts.Oracle,
		limiter: rate.NewLimiter(rate.Every(spacing), 1),
		logger:  logger,
	}
}

// Baselines are the per-direction unit rates at the baseline notional, plus
// the base token USD price inferred from the buy side.
type Baselines struct {
	// BaseUSD is USD per 1 base unit, inferred as quote_usd / unit_buy.
	// Zero when the baseline buy produced no positive unit rate.
	BaseUSD decimal.Decimal

	UnitBuy  decimal.Decimal // base units received per 1 quote unit
	UnitSell decimal.Decimal // quote units received per 1 base unit
}

// ComputeBaselines quotes both directions at baselineUSD notional. The buy
// direction is authoritative: its unit rate prices the base token in USD,
// which then sizes the sell-side baseline. Any oracle failure here is fatal
// for the run and wraps ErrBaselineUnavailable.
func (e *Engine) ComputeBaselines(ctx context.Context, pair *domain.TokenPair, quoteUSD decimal.Decimal, baselineUSD int64) (*Baselines, error) {
	if baselineUSD <= 0 {
		return nil, fmt.Errorf("baseline notional must be positive, got %d", baselineUSD)
	}
	if !quoteUSD.IsPositive() {
		return nil, fmt.Errorf("%w: quote token USD price %s is not positive", ErrBaselineUnavailable, quoteUSD)
	}

	notional := decimal.NewFromInt(baselineUSD)

	sellQuoteUnits, err := toBaseUnits(notional.Div(quoteUSD), pair.QuoteDecimals)
	if err != nil {
		return nil, fmt.Errorf("size baseline buy: %w", err)
	}
	buyQuote, err := e.quote(ctx, "buy", "baseline", zeroex.PriceRequest{
		SellToken:    pair.QuoteAddress,
		BuyToken:     pair.BaseAddress,
		SellAmount:   sellQuoteUnits,
		SellDecimals: pair.QuoteDecimals,
		BuyDecimals:  pair.BaseDecimals,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: buy side at $%d: %w", ErrBaselineUnavailable, baselineUSD, err)
	}

	baseUSD := decimal.Zero
	if buyQuote.UnitPrice.IsPositive() {
		baseUSD = quoteUSD.Div(buyQuote.UnitPrice)
	}
	divisor := baseUSD
	if !divisor.IsPositive() {
		divisor = decimal.NewFromInt(1)
	}

	sellBaseUnits, err := toBaseUnits(notional.Div(divisor), pair.BaseDecimals)
	if err != nil {
		return nil, fmt.Errorf("size baseline sell: %w", err)
	}
	sellQuote, err := e.quote(ctx, "sell", "baseline", zeroex.PriceRequest{
		SellToken:    pair.BaseAddress,
		BuyToken:     pair.QuoteAddress,
		SellAmount:   sellBaseUnits,
		SellDecimals: pair.BaseDecimals,
		BuyDecimals:  pair.QuoteDecimals,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: sell side at $%d: %w", ErrBaselineUnavailable, baselineUSD, err)
	}

	return &Baselines{
		BaseUSD:  baseUSD,
		UnitBuy:  buyQuote.UnitPrice,
		UnitSell: sellQuote.UnitPrice,
	}, nil
}

// SweepParams carries the run context a sweep measures against.
type SweepParams struct {
	QuoteUSD  decimal.Decimal
	Baselines *Baselines
	USDLadder []int64 // walked in the given order
}

// Sweep quotes both directions at every ladder rung and returns one point
// per rung, in ladder order. A failed quote degrades only its own side of
// its own rung: the point keeps nil metrics for that side and the sweep
// continues. Only context cancellation aborts the walk; the points gathered
// so far are returned alongside the error.
func (e *Engine) Sweep(ctx context.Context, pair *domain.TokenPair, params SweepParams) ([]*domain.LadderPoint, error) {
	divisor := params.Baselines.BaseUSD
	if !divisor.IsPositive() {
		divisor = decimal.NewFromInt(1)
	}

	points := make([]*domain.LadderPoint, 0, len(params.USDLadder))
	for _, usd := range params.USDLadder {
		point := &domain.LadderPoint{USD: usd}
		notional := decimal.NewFromInt(usd)

		buyAmount := decimal.Zero
		if params.QuoteUSD.IsPositive() {
			buyAmount = notional.Div(params.QuoteUSD)
		}
		if err := e.sweepSide(ctx, pair, "buy", buyAmount, params.Baselines.UnitBuy, point); err != nil {
			return points, err
		}

		if err := e.sweepSide(ctx, pair, "sell", notional.Div(divisor), params.Baselines.UnitSell, point); err != nil {
			return points, err
		}

		points = append(points, point)
	}
	return points, nil
}

// sweepSide quotes one direction at one rung and fills the matching side of
// the point. Returns an error only when the context is done.
func (e *Engine) sweepSide(ctx context.Context, pair *domain.TokenPair, direction string, sellHuman, baseline decimal.Decimal, point *domain.LadderPoint) error {
	sellToken, buyToken := pair.QuoteAddress, pair.BaseAddress
	sellDecimals, buyDecimals := pair.QuoteDecimals, pair.BaseDecimals
	if direction == "sell" {
		sellToken, buyToken = pair.BaseAddress, pair.QuoteAddress
		sellDecimals, buyDecimals = pair.BaseDecimals, pair.QuoteDecimals
	}

	units, err := toBaseUnits(sellHuman, sellDecimals)
	if err != nil {
		e.logger.Printf("WARN: %s sizing failed at $%d on %s: %v", direction, point.USD, pair.PairAddress, err)
		observability.RecordRungUnmeasured()
		return nil
	}

	q, err := e.quote(ctx, direction, "sweep", zeroex.PriceRequest{
		SellToken:    sellToken,
		BuyToken:     buyToken,
		SellAmount:   units,
		SellDecimals: sellDecimals,
		BuyDecimals:  buyDecimals,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.logger.Printf("WARN: %s quote failed at $%d on %s: %v", direction, point.USD, pair.PairAddress, err)
		observability.RecordRungUnmeasured()
		return nil
	}

	bps := bpsFloat(ImpactBps(baseline, q.UnitPrice))
	liquidity := q.LiquidityAvailable
	var topSource *string
	var concentration *float64
	if q.TopSource != "" {
		src := q.TopSource
		conc := q.RouteConcentrationPercent
		topSource = &src
		concentration = &conc
	}

	if direction == "sell" {
		point.SellBps = bps
		point.SellLiquidityAvailable = &liquidity
		point.SellTopSource = topSource
		point.SellRouteConcentrationPercent = concentration
	} else {
		point.BuyBps = bps
		point.BuyLiquidityAvailable = &liquidity
		point.BuyTopSource = topSource
		point.BuyRouteConcentrationPercent = concentration
	}
	return nil
}

// quote paces and times one oracle call.
func (e *Engine) quote(ctx context.Context, direction, stage string, req zeroex.PriceRequest) (*domain.Quote, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	q, err := e.oracle.Price(ctx, req)
	observability.RecordOracleQuote(direction, stage, time.Since(start).Seconds(), err)
	return q, err
}
