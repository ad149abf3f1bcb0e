package zeroex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"dex-liquidity-lab/internal/domain"
)

// flexInt64 accepts both quoted and bare JSON numbers; the 0x API encodes
// integer amounts as strings but some route fields arrive as numbers.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parse integer %q: %w", string(data), err)
	}
	*f = flexInt64(v)
	return nil
}

// priceResponse mirrors the subset of the 0x v2 price payload this system
// consumes.
type priceResponse struct {
	SellToken          string `json:"sellToken"`
	BuyToken           string `json:"buyToken"`
	SellAmount         string `json:"sellAmount"`
	BuyAmount          string `json:"buyAmount"`
	LiquidityAvailable bool   `json:"liquidityAvailable"`
	BlockNumber        string `json:"blockNumber"`
	Route              struct {
		Fills []struct {
			Source        string    `json:"source"`
			ProportionBps flexInt64 `json:"proportionBps"`
		} `json:"fills"`
	} `json:"route"`
}

// parsePriceResponse decodes a raw price payload and derives the
// human-readable amounts, unit price and route concentration.
func parsePriceResponse(body []byte, sellDecimals, buyDecimals int) (*domain.Quote, error) {
	var resp priceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	sellAmount, err := amountOrZero(resp.SellAmount)
	if err != nil {
		return nil, fmt.Errorf("parse sell amount: %w", err)
	}
	buyAmount, err := amountOrZero(resp.BuyAmount)
	if err != nil {
		return nil, fmt.Errorf("parse buy amount: %w", err)
	}

	sellHuman := sellAmount.Shift(int32(-sellDecimals))
	buyHuman := buyAmount.Shift(int32(-buyDecimals))

	// Unit price is buy per 1 sold. A zero sell side yields a zero unit
	// price, not a division error.
	unitPrice := decimal.Zero
	if sellHuman.IsPositive() {
		unitPrice = buyHuman.Div(sellHuman)
	}

	quote := &domain.Quote{
		SellToken:          resp.SellToken,
		BuyToken:           resp.BuyToken,
		SellAmount:         sellAmount,
		BuyAmount:          buyAmount,
		SellAmountHuman:    sellHuman,
		BuyAmountHuman:     buyHuman,
		UnitPrice:          unitPrice,
		LiquidityAvailable: resp.LiquidityAvailable,
	}

	if resp.BlockNumber != "" {
		block, err := strconv.ParseInt(resp.BlockNumber, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse block number %q: %w", resp.BlockNumber, err)
		}
		quote.BlockNumber = &block
	}

	// Route concentration: top source by proportionBps.
	topBps := int64(-1)
	for _, f := range resp.Route.Fills {
		bps := int64(f.ProportionBps)
		quote.Fills = append(quote.Fills, domain.RouteFill{
			Source:        f.Source,
			ProportionBps: bps,
		})
		if bps > topBps {
			topBps = bps
			quote.TopSource = f.Source
		}
	}
	if topBps >= 0 {
		quote.RouteConcentrationPercent = float64(topBps) / 100
	}

	return quote, nil
}

// amountOrZero parses a raw integer amount string, treating absent as zero.
func amountOrZero(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
