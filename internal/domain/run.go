package domain

// Default sweep parameters. A run records the ladder it actually used, so
// changing these defaults never changes the meaning of stored runs.
var DefaultUSDLadder = []int64{
	1, 5, 10, 25, 50, 100, 250, 500,
	1000, 2500, 5000, 10000, 25000, 50000, 100000,
	250000, 500000,
}

// DefaultBaselineUSD is the notional whose unit rate defines impact = 0 bps.
const DefaultBaselineUSD int64 = 5

// LadderRun is one sweep execution for one pair at one point in time.
// Corresponds to ladder_runs table. Immutable after creation except for
// cascading deletion.
type LadderRun struct {
	ID        int64 // BIGSERIAL primary key
	StartedAt int64 // Unix timestamp in seconds

	PairAddress   string
	BaseAddress   string
	BaseSymbol    *string
	BaseDecimals  int
	QuoteAddress  string
	QuoteSymbol   *string
	QuoteDecimals int

	BaselineUSD int64   // notional anchoring impact = 0
	QuoteUSD    float64 // USD per 1 quote unit used for this run
	BaseUSD     float64 // USD per 1 base unit inferred for this run

	// Baseline unit rates as exact decimal strings. Never binary floats:
	// these are replayed for audit and must not drift.
	UnitBuyBaseline  string // base units received per 1 quote unit
	UnitSellBaseline string // quote units received per 1 base unit

	USDLadder []int64 // ordered ladder actually used, round-trips exactly
}

// LadderPoint is one rung of one run. Corresponds to ladder_points table;
// (run_id, usd) is the unique key and re-measuring upserts in place.
// Metric fields are nil when the rung's quote failed or impact was undefined.
type LadderPoint struct {
	RunID int64
	USD   int64

	BuyBps  *float64 // signed impact in basis points, positive = worse price
	SellBps *float64

	BuyLiquidityAvailable  *bool
	SellLiquidityAvailable *bool

	BuyTopSource  *string
	SellTopSource *string

	BuyRouteConcentrationPercent  *float64 // 0..100, share of the dominant source
	SellRouteConcentrationPercent *float64
}
