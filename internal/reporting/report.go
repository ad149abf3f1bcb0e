// Package reporting renders ladder runs for humans and spreadsheets.
package reporting

import (
	"fmt"

	"dex-liquidity-lab/internal/domain"
)

// RunReport pairs a run header with its points for rendering.
type RunReport struct {
	Run    *domain.LadderRun
	Points []*domain.LadderPoint
}

// PairLabel is the display name of the run's market, e.g. "TOK/WETH".
func (r *RunReport) PairLabel() string {
	base := stringOr(r.Run.BaseSymbol, shortAddress(r.Run.BaseAddress))
	quote := stringOr(r.Run.QuoteSymbol, shortAddress(r.Run.QuoteAddress))
	return base + "/" + quote
}

// absent is rendered wherever a metric is undefined for a rung.
const absent = "-"

func fmtBps(v *float64) string {
	if v == nil {
		return absent
	}
	return fmt.Sprintf("%+.1f", *v)
}

func fmtBool(v *bool) string {
	if v == nil {
		return absent
	}
	if *v {
		return "yes"
	}
	return "no"
}

func fmtPercent(v *float64) string {
	if v == nil {
		return absent
	}
	return fmt.Sprintf("%.0f%%", *v)
}

func fmtSource(v *string) string {
	if v == nil || *v == "" {
		return absent
	}
	return *v
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

func shortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + ".." + addr[len(addr)-4:]
}
