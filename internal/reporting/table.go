package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderTable renders a run as a fixed-width console table.
func RenderTable(r *RunReport) string {
	var sb strings.Builder

	run := r.Run
	sb.WriteString(fmt.Sprintf("Run %d  %s  %s\n",
		run.ID, r.PairLabel(), time.Unix(run.StartedAt, 0).UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("pool %s  baseline $%d  quote $%.4f  base $%.8f\n\n",
		run.PairAddress, run.BaselineUSD, run.QuoteUSD, run.BaseUSD))

	const rowFmt = "%10s  %10s  %10s  %8s  %8s  %-14s  %-14s  %6s  %6s\n"
	sb.WriteString(fmt.Sprintf(rowFmt,
		"usd", "buy_bps", "sell_bps", "buy_liq", "sell_liq",
		"buy_source", "sell_source", "buy_%", "sell_%"))
	sb.WriteString(strings.Repeat("-", 102) + "\n")

	for _, p := range r.Points {
		sb.WriteString(fmt.Sprintf(rowFmt,
			fmt.Sprintf("$%d", p.USD),
			fmtBps(p.BuyBps),
			fmtBps(p.SellBps),
			fmtBool(p.BuyLiquidityAvailable),
			fmtBool(p.SellLiquidityAvailable),
			fmtSource(p.BuyTopSource),
			fmtSource(p.SellTopSource),
			fmtPercent(p.BuyRouteConcentrationPercent),
			fmtPercent(p.SellRouteConcentrationPercent)))
	}

	if len(r.Points) == 0 {
		sb.WriteString("(no points)\n")
	}
	return sb.String()
}
