package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cfo-copilot/internal/dataset"
	"cfo-copilot/internal/fx"
	"cfo-copilot/internal/nlq"
)

func period(year int, month time.Month) dataset.Period {
	return dataset.Period{Year: year, Month: month}
}

func rec(p dataset.Period, category string, actual, budget int64) dataset.FinancialRecord {
	return dataset.FinancialRecord{
		Period:   p,
		Category: category,
		Actual:   decimal.NewFromInt(actual),
		Budget:   decimal.NewFromInt(budget),
		Currency: "USD",
	}
}

// fixtureContext is three months of USD data with declining cash:
// margins 70%, 60%, 60%; March revenue 115000 vs budget 100000.
func fixtureContext(t *testing.T) *dataset.Context {
	t.Helper()

	jan, feb, mar := period(2025, time.January), period(2025, time.February), period(2025, time.March)

	records := []dataset.FinancialRecord{
		rec(jan, "Revenue", 1000, 900),
		rec(jan, "COGS", 300, 280),
		rec(jan, "Opex:Marketing", 200, 190),
		rec(jan, "Opex:Sales", 100, 120),
		rec(feb, "Revenue", 1100, 1000),
		rec(feb, "COGS", 440, 400),
		rec(feb, "Opex:Marketing", 210, 200),
		rec(feb, "Opex:Sales", 110, 115),
		rec(mar, "Revenue", 115000, 100000),
		rec(mar, "COGS", 46000, 40000),
		rec(mar, "Opex:Marketing", 220, 210),
		rec(mar, "Opex:Sales", 120, 110),
	}

	cash := []dataset.CashBalance{
		{Period: jan, Balance: decimal.NewFromInt(5000000), Currency: "USD"},
		{Period: feb, Balance: decimal.NewFromInt(4800000), Currency: "USD"},
		{Period: mar, Balance: decimal.NewFromInt(4600000), Currency: "USD"},
	}

	data, err := dataset.Build("USD", records, nil, cash)
	if err != nil {
		t.Fatalf("build context: %v", err)
	}
	return data
}

func singleMonthParams(p dataset.Period) nlq.Params {
	return nlq.Params{From: p, To: p, Currency: "USD"}
}

func mustEqual(t *testing.T, got decimal.Decimal, want int64, what string) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("%s = %s, want %d", what, got, want)
	}
}

func TestRevenueVsBudget(t *testing.T) {
	data := fixtureContext(t)

	result, err := RevenueVsBudget(data, singleMonthParams(period(2025, time.March)))
	if err != nil {
		t.Fatalf("should succeed: %v", err)
	}

	if result.Template != "revenue_vs_budget" {
		t.Fatalf("unexpected template: %s", result.Template)
	}
	mustEqual(t, result.Scalar.Value, 15000, "variance")

	byLabel := map[string]Point{}
	for _, p := range result.Series {
		byLabel[p.Label] = p
	}
	mustEqual(t, byLabel["actual"].Value, 115000, "actual")
	mustEqual(t, byLabel["budget"].Value, 100000, "budget")
	mustEqual(t, byLabel["variance"].Value, 15000, "variance")

	pct := byLabel["variance_pct"]
	if !pct.Defined {
		t.Fatal("variance_pct should be defined")
	}
	mustEqual(t, pct.Value, 15, "variance_pct")
}

func TestRevenueVsBudgetCategoryFilter(t *testing.T) {
	data := fixtureContext(t)

	params := singleMonthParams(period(2025, time.March))
	params.Category = "Opex:Marketing"

	result, err := RevenueVsBudget(data, params)
	if err != nil {
		t.Fatalf("should succeed: %v", err)
	}
	// 220 actual vs 210 budget for the filtered category.
	mustEqual(t, result.Scalar.Value, 10, "filtered variance")
}

func TestRevenueVsBudgetZeroBudgetUndefined(t *testing.T) {
	jan := period(2025, time.January)
	data, err := dataset.Build("USD", []dataset.FinancialRecord{rec(jan, "Revenue", 500, 0)}, nil, nil)
	if err != nil {
		t.Fatalf("build context: %v", err)
	}

	result, err := RevenueVsBudget(data, singleMonthParams(jan))
	if err != nil {
		t.Fatalf("should succeed: %v", err)
	}

	for _, p := range result.Series {
		if p.Label == "variance_pct" {
			if p.Defined {
				t.Fatal("variance_pct must be undefined when budget is zero")
			}
			return
		}
	}
	t.Fatal("variance_pct point missing")
}

func TestOpexBreakdown(t *testing.T) {
	data := fixtureContext(t)

	result, err := OpexBreakdown(data, singleMonthParams(period(2025, time.March)))
	if err != nil {
		t.Fatalf("should succeed: %v", err)
	}

	if len(result.Series) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(result.Series))
	}
	if result.Series[0].Label != "Marketing" || result.Series[1].Label != "Sales" {
		t.Fatalf("entries should sort descending by amount: %v", result.Series)
	}
	mustEqual(t, result.Series[0].Value, 220, "marketing")
	mustEqual(t, result.Series[1].Value, 120, "sales")

	// The entries must sum to the period's total opex.
	sum := decimal.Zero
	for _, p := range result.Series {
		sum = sum.Add(p.Value)
	}
	if !sum.Equal(result.Scalar.Value) {
		t.Fatalf("breakdown sum %s != total %s", sum, result.Scalar.Value)
	}
	mustEqual(t, result.Scalar.Value, 340, "total opex")
}

func TestGrossMarginTrend(t *testing.T) {
	data := fixtureContext(t)

	result, err := GrossMarginTrend(data, singleMonthParams(period(2025, time.March)), 3)
	if err != nil {
		t.Fatalf("should succeed: %v", err)
	}

	if len(result.Series) != 3 {
		t.Fatalf("trailing window should produce 3 periods, got %d", len(result.Series))
	}
	mustEqual(t, result.Series[0].Value, 70, "january margin")
	mustEqual(t, result.Series[1].Value, 60, "february margin")
	mustEqual(t, result.Series[2].Value, 60, "march margin")
	mustEqual(t, result.Scalar.Value, 60, "headline margin")
}

func TestGrossMarginZeroRevenueUndefined(t *testing.T) {
	jan := period(2025, time.January)
	data, err := dataset.Build("USD", []dataset.FinancialRecord{
		rec(jan, "Revenue", 0, 0),
		rec(jan, "COGS", 100, 100),
	}, nil, nil)
	if err != nil {
		t.Fatalf("build context: %v", err)
	}

	result, err := GrossMarginTrend(data, singleMonthParams(jan), 1)
	if err != nil {
		t.Fatalf("should succeed: %v", err)
	}
	if result.Series[0].Defined {
		t.Fatal("zero-revenue margin must be undefined, not computed")
	}
	if result.Scalar.Defined {
		t.Fatal("headline margin must be undefined too")
	}
}

func TestCashRunway(t *testing.T) {
	data := fixtureContext(t)

	result, err := CashRunway(data, singleMonthParams(period(2025, time.March)), 3)
	if err != nil {
		t.Fatalf("should succeed: %v", err)
	}

	if !result.Scalar.Defined {
		t.Fatal("runway should be defined for declining cash")
	}
	// Burn is 200000/month over two observable steps; 4.6M / 200k = 23.
	mustEqual(t, result.Scalar.Value, 23, "runway months")
	if result.Scalar.Unit != UnitMonths {
		t.Fatalf("runway unit should be months, got %d", result.Scalar.Unit)
	}
}

func TestCashRunwayUnboundedWhenGrowing(t *testing.T) {
	jan, feb, mar := period(2025, time.January), period(2025, time.February), period(2025, time.March)
	data, err := dataset.Build("USD", []dataset.FinancialRecord{rec(mar, "Revenue", 1, 1)}, nil, []dataset.CashBalance{
		{Period: jan, Balance: decimal.NewFromInt(1000), Currency: "USD"},
		{Period: feb, Balance: decimal.NewFromInt(1100), Currency: "USD"},
		{Period: mar, Balance: decimal.NewFromInt(1200), Currency: "USD"},
	})
	if err != nil {
		t.Fatalf("build context: %v", err)
	}

	result, err := CashRunway(data, singleMonthParams(mar), 3)
	if err != nil {
		t.Fatalf("should succeed: %v", err)
	}
	if result.Scalar.Defined {
		t.Fatal("growing cash means unbounded runway, not a number")
	}
	if result.Note == "" {
		t.Fatal("unbounded runway should carry an explanatory note")
	}
}

func TestCashRunwayInsufficientHistory(t *testing.T) {
	jan := period(2025, time.January)
	data, err := dataset.Build("USD", []dataset.FinancialRecord{rec(jan, "Revenue", 1, 1)}, nil, []dataset.CashBalance{
		{Period: jan, Balance: decimal.NewFromInt(1000), Currency: "USD"},
	})
	if err != nil {
		t.Fatalf("build context: %v", err)
	}

	result, err := CashRunway(data, singleMonthParams(jan), 3)
	if err != nil {
		t.Fatalf("should succeed: %v", err)
	}
	if result.Scalar.Defined || result.Note == "" {
		t.Fatal("one balance cannot produce a burn rate")
	}
}

func TestEbitdaProxy(t *testing.T) {
	data := fixtureContext(t)

	result, err := EbitdaProxy(data, singleMonthParams(period(2025, time.March)))
	if err != nil {
		t.Fatalf("should succeed: %v", err)
	}

	// 115000 - 46000 - 340.
	mustEqual(t, result.Scalar.Value, 68660, "ebitda")

	byLabel := map[string]Point{}
	for _, p := range result.Series {
		byLabel[p.Label] = p
	}
	mustEqual(t, byLabel["revenue"].Value, 115000, "revenue")
	mustEqual(t, byLabel["cogs"].Value, 46000, "cogs")
	mustEqual(t, byLabel["opex"].Value, 340, "opex")
}

func TestCashTrend(t *testing.T) {
	data := fixtureContext(t)

	result, err := CashTrend(data, nlq.Params{
		From:     period(2025, time.January),
		To:       period(2025, time.March),
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("should succeed: %v", err)
	}
	if len(result.Series) != 3 {
		t.Fatalf("expected 3 balances, got %d", len(result.Series))
	}
	mustEqual(t, result.Scalar.Value, 4600000, "latest balance")
}

func TestCurrencyNormalization(t *testing.T) {
	jan := period(2025, time.January)
	gbpRevenue := dataset.FinancialRecord{
		Period:   jan,
		Category: "Revenue",
		Actual:   decimal.NewFromInt(100),
		Budget:   decimal.NewFromInt(80),
		Currency: "GBP",
	}
	rates := []dataset.FXRate{{Period: jan, Currency: "GBP", Rate: decimal.NewFromFloat(1.25)}}

	data, err := dataset.Build("USD", []dataset.FinancialRecord{gbpRevenue}, rates, nil)
	if err != nil {
		t.Fatalf("build context: %v", err)
	}

	result, err := RevenueVsBudget(data, singleMonthParams(jan))
	if err != nil {
		t.Fatalf("should succeed: %v", err)
	}
	// 100 GBP * 1.25 = 125 USD actual; 80 GBP * 1.25 = 100 USD budget.
	mustEqual(t, result.Scalar.Value, 25, "converted variance")
}

func TestMissingRatePropagates(t *testing.T) {
	jan := period(2025, time.January)
	gbpRevenue := dataset.FinancialRecord{
		Period:   jan,
		Category: "Revenue",
		Actual:   decimal.NewFromInt(100),
		Currency: "GBP",
	}

	data, err := dataset.Build("USD", []dataset.FinancialRecord{gbpRevenue}, nil, nil)
	if err != nil {
		t.Fatalf("build context: %v", err)
	}

	_, err = RevenueVsBudget(data, singleMonthParams(jan))
	if err == nil {
		t.Fatal("missing rate must propagate, not silently zero")
	}
	var missing *fx.MissingRateError
	if !errors.As(err, &missing) {
		t.Fatalf("error should be MissingRateError, got %T", err)
	}
}

func TestMetricsArePure(t *testing.T) {
	data := fixtureContext(t)
	params := singleMonthParams(period(2025, time.March))

	first, err := RevenueVsBudget(data, params)
	if err != nil {
		t.Fatalf("should succeed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := RevenueVsBudget(data, params)
		if err != nil {
			t.Fatalf("repeat call failed: %v", err)
		}
		if !again.Scalar.Value.Equal(first.Scalar.Value) || len(again.Series) != len(first.Series) {
			t.Fatal("identical inputs must produce identical results")
		}
	}
}
