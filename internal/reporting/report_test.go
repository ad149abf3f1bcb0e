package reporting

import (
	"strings"
	"testing"

	"dex-liquidity-lab/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func sampleReport() *RunReport {
	base, quote := "TOK", "WETH"
	return &RunReport{
		Run: &domain.LadderRun{
			ID:          7,
			StartedAt:   1700000000,
			PairAddress: "0xpool",
			BaseSymbol:  &base,
			QuoteSymbol: &quote,
			BaselineUSD: 5,
			QuoteUSD:    2000,
			BaseUSD:     0.1,
		},
		Points: []*domain.LadderPoint{
			{
				RunID: 7, USD: 5,
				BuyBps: ptr(0.0), SellBps: ptr(0.0),
				BuyLiquidityAvailable: ptr(true), SellLiquidityAvailable: ptr(true),
				BuyTopSource: ptr("Uniswap_V3"), SellTopSource: ptr("Uniswap_V3"),
				BuyRouteConcentrationPercent: ptr(100.0), SellRouteConcentrationPercent: ptr(100.0),
			},
			{
				// Buy side failed at this rung.
				RunID: 7, USD: 100,
				SellBps:                ptr(42.7),
				SellLiquidityAvailable: ptr(true),
				SellTopSource:          ptr("Aerodrome"),
			},
		},
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(sampleReport())

	if !strings.Contains(out, "Run 7  TOK/WETH") {
		t.Errorf("Missing header, got:\n%s", out)
	}
	if !strings.Contains(out, "+0.0") {
		t.Errorf("Expected signed zero bps rendered, got:\n%s", out)
	}
	if !strings.Contains(out, "+42.7") {
		t.Errorf("Expected sell bps rendered, got:\n%s", out)
	}
	// The failed buy side must render as absent, not as zero.
	line100 := ""
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "$100") {
			line100 = line
		}
	}
	if line100 == "" {
		t.Fatalf("No $100 row in:\n%s", out)
	}
	if !strings.Contains(line100, "-") {
		t.Errorf("Expected absent markers on failed side: %q", line100)
	}
	if strings.Contains(line100, "+0.0") {
		t.Errorf("Absent buy bps must not render as zero: %q", line100)
	}
}

func TestRenderTable_EmptyRun(t *testing.T) {
	r := sampleReport()
	r.Points = nil

	out := RenderTable(r)
	if !strings.Contains(out, "(no points)") {
		t.Errorf("Expected empty-run marker, got:\n%s", out)
	}
}

func TestRenderCSV(t *testing.T) {
	out := RenderCSV(sampleReport())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "run_id,usd,buy_bps") {
		t.Errorf("Header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "7,5,0.000000,0.000000,true,true,Uniswap_V3") {
		t.Errorf("Row 1: %q", lines[1])
	}
	// Absent metrics are empty fields.
	if !strings.HasPrefix(lines[2], "7,100,,42.700000,,true,,Aerodrome") {
		t.Errorf("Row 2: %q", lines[2])
	}
}

func TestPairLabel_FallsBackToAddresses(t *testing.T) {
	r := sampleReport()
	r.Run.BaseSymbol = nil
	r.Run.BaseAddress = "0x1234567890abcdef"

	label := r.PairLabel()
	if !strings.HasPrefix(label, "0x1234..") || !strings.HasSuffix(label, "/WETH") {
		t.Errorf("PairLabel: %q", label)
	}
}
