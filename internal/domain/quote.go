package domain

import "github.com/shopspring/decimal"

func init() {
	// On-chain unit math divides very small by very large numbers.
	// The default division precision (16 digits) loses real information
	// for 18-decimals tokens.
	if decimal.DivisionPrecision < 38 {
		decimal.DivisionPrecision = 38
	}
}

// RouteFill is one liquidity source's share of a quoted route.
type RouteFill struct {
	Source        string
	ProportionBps int64 // 0..10000
}

// Quote is a parsed swap-pricing observation for one direction at one size.
type Quote struct {
	SellToken string
	BuyToken  string

	SellAmount decimal.Decimal // raw integer units
	BuyAmount  decimal.Decimal // raw integer units

	SellAmountHuman decimal.Decimal // decimals applied
	BuyAmountHuman  decimal.Decimal

	// UnitPrice is buy amount per 1 sold unit, both human-readable.
	// Zero (not an error) when the sell side is zero.
	UnitPrice decimal.Decimal

	LiquidityAvailable bool
	BlockNumber        *int64

	Fills []RouteFill
	// TopSource is the dominant routing source, empty when the route
	// reported no fills.
	TopSource                 string
	RouteConcentrationPercent float64 // 0..100
}
