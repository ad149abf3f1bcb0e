package ladder

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/observability"
	"dex-liquidity-lab/internal/storage"
)

// HistorySink receives a finished run for append-only analytical storage.
// It is advisory: the relational store remains the system of record.
type HistorySink interface {
	AppendRun(ctx context.Context, run *domain.LadderRun, points []*domain.LadderPoint) error
}

// Runner executes full ladder runs: resolve the quote token's USD price,
// bootstrap baselines, persist the run header, sweep the ladder, persist
// the points.
type Runner struct {
	engine  *Engine
	prices  PriceResolver
	runs    storage.RunStore
	history HistorySink
	logger  *log.Logger
	now     func() time.Time
}

// RunnerOptions configures Runner.
type RunnerOptions struct {
	Engine *Engine
	Prices PriceResolver
	Runs   storage.RunStore

	// History is optional. Append failures are logged, never fatal.
	History HistorySink

	Logger *log.Logger
}

// NewRunner creates a new Runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[ladder] ", log.LstdFlags)
	}
	return &Runner{
		engine:  opts.Engine,
		prices:  opts.Prices,
		runs:    opts.Runs,
		history: opts.History,
		logger:  logger,
		now:     time.Now,
	}
}

// RunResult is a completed run with its measured points in ladder order.
type RunResult struct {
	Run    *domain.LadderRun
	Points []*domain.LadderPoint
}

// RunPair executes one run for one pair. Zero or nil arguments fall back to
// domain defaults; the values actually used are recorded on the run header.
// The header is created before the sweep, so an interrupted run is still
// readable as a run with the points gathered up to that moment.
func (r *Runner) RunPair(ctx context.Context, pair *domain.TokenPair, baselineUSD int64, usdLadder []int64) (*RunResult, error) {
	if baselineUSD <= 0 {
		baselineUSD = domain.DefaultBaselineUSD
	}
	if len(usdLadder) == 0 {
		usdLadder = domain.DefaultUSDLadder
	}
	started := r.now()

	quoteUSD, err := r.prices.USDPrice(ctx, pair.QuoteAddress)
	if err != nil {
		observability.RecordRun("price_error", time.Since(started).Seconds())
		return nil, fmt.Errorf("resolve quote token USD price: %w", err)
	}

	baselines, err := r.engine.ComputeBaselines(ctx, pair, decimal.NewFromFloat(quoteUSD), baselineUSD)
	if err != nil {
		observability.RecordRun("baseline_error", time.Since(started).Seconds())
		return nil, err
	}

	run := &domain.LadderRun{
		StartedAt:        started.Unix(),
		PairAddress:      pair.PairAddress,
		BaseAddress:      pair.BaseAddress,
		BaseSymbol:       pair.BaseSymbol,
		BaseDecimals:     pair.BaseDecimals,
		QuoteAddress:     pair.QuoteAddress,
		QuoteSymbol:      pair.QuoteSymbol,
		QuoteDecimals:    pair.QuoteDecimals,
		BaselineUSD:      baselineUSD,
		QuoteUSD:         quoteUSD,
		BaseUSD:          baselines.BaseUSD.InexactFloat64(),
		UnitBuyBaseline:  baselines.UnitBuy.String(),
		UnitSellBaseline: baselines.UnitSell.String(),
		USDLadder:        append([]int64(nil), usdLadder...),
	}
	id, err := r.runs.CreateRun(ctx, run)
	if err != nil {
		observability.RecordRun("storage_error", time.Since(started).Seconds())
		return nil, fmt.Errorf("create run header: %w", err)
	}
	run.ID = id
	r.logger.Printf("Run %d started for %s: quote_usd=%f base_usd=%s baseline=$%d rungs=%d",
		id, pair.PairAddress, quoteUSD, baselines.BaseUSD, baselineUSD, len(usdLadder))

	points, sweepErr := r.engine.Sweep(ctx, pair, SweepParams{
		QuoteUSD:  decimal.NewFromFloat(quoteUSD),
		Baselines: baselines,
		USDLadder: usdLadder,
	})
	for _, p := range points {
		p.RunID = id
	}
	if len(points) > 0 {
		if err := r.runs.SavePoints(ctx, id, points); err != nil {
			observability.RecordRun("storage_error", time.Since(started).Seconds())
			return nil, fmt.Errorf("save points for run %d: %w", id, err)
		}
		observability.RecordPointsSaved(len(points))
	}
	if sweepErr != nil {
		observability.RecordRun("canceled", time.Since(started).Seconds())
		return nil, fmt.Errorf("sweep run %d: %w", id, sweepErr)
	}

	result := &RunResult{Run: run, Points: points}

	if r.history != nil {
		if err := r.history.AppendRun(ctx, run, points); err != nil {
			r.logger.Printf("WARN: history append for run %d failed: %v", id, err)
		}
	}

	observability.RecordRun("success", time.Since(started).Seconds())
	observability.UpdateLastSuccessfulRun(r.now().Unix())
	r.logger.Printf("Run %d finished: %d points in %s", id, len(points), time.Since(started).Round(time.Millisecond))
	return result, nil
}
