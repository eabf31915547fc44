package fx

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cfo-copilot/internal/dataset"
)

func period(year int, month time.Month) dataset.Period {
	return dataset.Period{Year: year, Month: month}
}

func testContext(t *testing.T) *dataset.Context {
	t.Helper()

	records := []dataset.FinancialRecord{
		{Period: period(2025, time.January), Category: "Revenue", Actual: decimal.NewFromInt(1), Currency: "USD"},
		{Period: period(2025, time.April), Category: "Revenue", Actual: decimal.NewFromInt(1), Currency: "USD"},
	}
	rates := []dataset.FXRate{
		{Period: period(2025, time.January), Currency: "GBP", Rate: decimal.NewFromFloat(1.25)},
		{Period: period(2025, time.February), Currency: "GBP", Rate: decimal.NewFromFloat(1.26)},
	}

	data, err := dataset.Build("USD", records, rates, nil)
	if err != nil {
		t.Fatalf("build context: %v", err)
	}
	return data
}

func TestToReportingIdentity(t *testing.T) {
	data := testContext(t)

	amount := decimal.NewFromFloat(123.45)
	got, err := ToReporting(amount, "USD", period(2025, time.January), data)
	if err != nil {
		t.Fatalf("identity conversion should not fail: %v", err)
	}
	if !got.Equal(amount) {
		t.Fatalf("identity conversion changed the amount: %s", got)
	}
}

func TestToReportingExactRate(t *testing.T) {
	data := testContext(t)

	got, err := ToReporting(decimal.NewFromInt(100), "GBP", period(2025, time.January), data)
	if err != nil {
		t.Fatalf("conversion should succeed: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("expected 125, got %s", got)
	}
}

func TestToReportingStaleFallback(t *testing.T) {
	data := testContext(t)

	// No GBP rate for April; the February rate is the nearest prior.
	got, err := ToReporting(decimal.NewFromInt(100), "GBP", period(2025, time.April), data)
	if err != nil {
		t.Fatalf("stale fallback should succeed: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(126)) {
		t.Fatalf("expected 126 via february rate, got %s", got)
	}
}

func TestToReportingMissingRate(t *testing.T) {
	data := testContext(t)

	_, err := ToReporting(decimal.NewFromInt(1), "GBP", period(2024, time.December), data)
	if err == nil {
		t.Fatal("no rate exists at or before 2024-12; conversion must fail")
	}

	var missing *MissingRateError
	if !errors.As(err, &missing) {
		t.Fatalf("error should be MissingRateError, got %T", err)
	}
	if missing.Currency != "GBP" || missing.Period != period(2024, time.December) {
		t.Fatalf("error should carry currency and period: %+v", missing)
	}

	if _, err := ToReporting(decimal.NewFromInt(1), "JPY", period(2025, time.January), data); err == nil {
		t.Fatal("unknown currency must fail")
	}
}

func TestRoundTrip(t *testing.T) {
	data := testContext(t)
	epsilon := decimal.New(1, -9)

	amount := decimal.NewFromFloat(9876.54)
	reporting, err := ToReporting(amount, "GBP", period(2025, time.February), data)
	if err != nil {
		t.Fatalf("to reporting: %v", err)
	}
	back, err := FromReporting(reporting, "GBP", period(2025, time.February), data)
	if err != nil {
		t.Fatalf("from reporting: %v", err)
	}

	if back.Sub(amount).Abs().GreaterThan(epsilon) {
		t.Fatalf("round trip drifted: %s vs %s", back, amount)
	}
}
