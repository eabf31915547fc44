package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cfo-copilot/internal/metrics"
)

func definedPoint(label string, value int64, unit metrics.Unit) metrics.Point {
	return metrics.Point{Label: label, Value: decimal.NewFromInt(value), Unit: unit, Defined: true}
}

func TestTextVariance(t *testing.T) {
	result := metrics.Result{
		Template: "revenue_vs_budget",
		Period:   "March 2025",
		Currency: "USD",
		Scalar:   definedPoint("variance", 15000, metrics.UnitCurrency),
		Series: []metrics.Point{
			definedPoint("actual", 115000, metrics.UnitCurrency),
			definedPoint("budget", 100000, metrics.UnitCurrency),
			definedPoint("variance", 15000, metrics.UnitCurrency),
			definedPoint("variance_pct", 15, metrics.UnitPercent),
		},
	}

	text := Text(result)
	for _, want := range []string{"March 2025", "115000.00 USD", "15.0%", "Above budget."} {
		if !strings.Contains(text, want) {
			t.Fatalf("narrative missing %q:\n%s", want, text)
		}
	}
}

func TestTextVarianceUndefinedPct(t *testing.T) {
	result := metrics.Result{
		Template: "revenue_vs_budget",
		Period:   "March 2025",
		Currency: "USD",
		Series: []metrics.Point{
			{Label: "variance_pct", Unit: metrics.UnitPercent},
		},
	}

	if text := Text(result); !strings.Contains(text, "undefined") {
		t.Fatalf("undefined points must render as undefined:\n%s", text)
	}
}

func TestTextOpexShares(t *testing.T) {
	result := metrics.Result{
		Template: "opex_breakdown",
		Period:   "March 2025",
		Currency: "USD",
		Scalar:   definedPoint("total_opex", 400, metrics.UnitCurrency),
		Series: []metrics.Point{
			definedPoint("Marketing", 300, metrics.UnitCurrency),
			definedPoint("Sales", 100, metrics.UnitCurrency),
		},
	}

	text := Text(result)
	if !strings.Contains(text, "Marketing: 300.00 USD (75.0%)") {
		t.Fatalf("breakdown should include shares:\n%s", text)
	}
}

func TestTextRunwayStatus(t *testing.T) {
	cases := []struct {
		months int64
		status string
	}{
		{4, "critical"},
		{9, "caution"},
		{20, "healthy"},
	}

	for _, tc := range cases {
		result := metrics.Result{
			Template: "cash_runway",
			Period:   "March 2025",
			Currency: "USD",
			Scalar:   definedPoint("runway_months", tc.months, metrics.UnitMonths),
		}
		if text := Text(result); !strings.Contains(text, tc.status) {
			t.Fatalf("runway of %d months should read %s:\n%s", tc.months, tc.status, text)
		}
	}
}

func TestTextRunwayUnbounded(t *testing.T) {
	result := metrics.Result{
		Template: "cash_runway",
		Period:   "March 2025",
		Currency: "USD",
		Scalar:   metrics.Point{Label: "runway_months", Unit: metrics.UnitMonths},
		Note:     "cash is stable or growing; runway is unbounded",
	}

	if text := Text(result); !strings.Contains(text, "unbounded") {
		t.Fatalf("unbounded runway narrative missing:\n%s", text)
	}
}

func TestTextHelpAndDataGap(t *testing.T) {
	help := metrics.Result{Template: "help", Note: "try asking about revenue"}
	if Text(help) != "try asking about revenue" {
		t.Fatalf("help should render its note verbatim: %q", Text(help))
	}

	gap := metrics.Result{Template: "data_gap", Period: "March 2025", Note: "no GBP rate recorded at or before 2025-03"}
	text := Text(gap)
	if !strings.Contains(text, "March 2025") || !strings.Contains(text, "GBP") {
		t.Fatalf("data-gap narrative should name period and gap:\n%s", text)
	}
}

func TestChartPNGTrend(t *testing.T) {
	result := metrics.Result{
		Template: "gross_margin_trend",
		Period:   "January 2025 to March 2025",
		Currency: "USD",
		Scalar:   definedPoint("margin_pct", 60, metrics.UnitPercent),
		Series: []metrics.Point{
			definedPoint("2025-01", 70, metrics.UnitPercent),
			definedPoint("2025-02", 65, metrics.UnitPercent),
			definedPoint("2025-03", 60, metrics.UnitPercent),
		},
	}

	var buf bytes.Buffer
	if err := ChartPNG(result, &buf, Options{Width: 640, Height: 360}); err != nil {
		t.Fatalf("trend chart should render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatal("output is not a PNG")
	}
}

func TestChartPNGBreakdown(t *testing.T) {
	result := metrics.Result{
		Template: "opex_breakdown",
		Period:   "March 2025",
		Currency: "USD",
		Scalar:   definedPoint("total_opex", 400, metrics.UnitCurrency),
		Series: []metrics.Point{
			definedPoint("Marketing", 300, metrics.UnitCurrency),
			definedPoint("Sales", 100, metrics.UnitCurrency),
		},
	}

	var buf bytes.Buffer
	if err := ChartPNG(result, &buf, Options{Width: 640, Height: 360}); err != nil {
		t.Fatalf("breakdown chart should render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatal("output is not a PNG")
	}
}

func TestChartPNGEmptySeries(t *testing.T) {
	if err := ChartPNG(metrics.Result{Template: "help"}, &bytes.Buffer{}, Options{}); err == nil {
		t.Fatal("empty series must not chart")
	}
}
