package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders a run's points as CSV. Absent metrics become empty
// fields, never zeros.
func RenderCSV(r *RunReport) string {
	var sb strings.Builder

	sb.WriteString("run_id,usd,buy_bps,sell_bps,buy_liquidity,sell_liquidity,")
	sb.WriteString("buy_top_source,sell_top_source,buy_concentration_pct,sell_concentration_pct\n")

	for _, p := range r.Points {
		sb.WriteString(fmt.Sprintf("%d,%d,%s,%s,%s,%s,%s,%s,%s,%s\n",
			p.RunID,
			p.USD,
			csvFloat(p.BuyBps),
			csvFloat(p.SellBps),
			csvBool(p.BuyLiquidityAvailable),
			csvBool(p.SellLiquidityAvailable),
			csvString(p.BuyTopSource),
			csvString(p.SellTopSource),
			csvFloat(p.BuyRouteConcentrationPercent),
			csvFloat(p.SellRouteConcentrationPercent)))
	}

	return sb.String()
}

func csvFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.6f", *v)
}

func csvBool(v *bool) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%t", *v)
}

func csvString(v *string) string {
	if v == nil {
		return ""
	}
	if strings.ContainsAny(*v, ",\"\n") {
		return "\"" + strings.ReplaceAll(*v, "\"", "\"\"") + "\""
	}
	return *v
}
