// Package ingest loads the four source tables from CSV files into a
// dataset Context. Expected files under the dataset directory:
//
//	actuals.csv  month,category,amount,currency
//	budget.csv   month,category,amount,currency
//	fx.csv       month,currency,rate
//	cash.csv     month,balance,currency
//
// Actual and budget rows merge into one financial record per
// (month, category); a budget line with no matching actual (or vice versa)
// contributes a zero on the missing side.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"cfo-copilot/internal/dataset"
)

// LoadDir reads the CSV tables from dir and builds the dataset Context.
func LoadDir(dir, baseCurrency string) (*dataset.Context, error) {
	actuals, err := readAmountTable(filepath.Join(dir, "actuals.csv"))
	if err != nil {
		return nil, err
	}
	budget, err := readAmountTable(filepath.Join(dir, "budget.csv"))
	if err != nil {
		return nil, err
	}
	rates, err := readRateTable(filepath.Join(dir, "fx.csv"))
	if err != nil {
		return nil, err
	}
	cash, err := readCashTable(filepath.Join(dir, "cash.csv"))
	if err != nil {
		return nil, err
	}

	records, err := mergeRecords(actuals, budget)
	if err != nil {
		return nil, err
	}

	return dataset.Build(baseCurrency, records, rates, cash)
}

type amountRow struct {
	period   dataset.Period
	category string
	amount   decimal.Decimal
	currency string
}

func mergeRecords(actuals, budget []amountRow) ([]dataset.FinancialRecord, error) {
	type key struct {
		period   dataset.Period
		category string
	}

	merged := make(map[key]*dataset.FinancialRecord)
	var order []key

	for _, row := range actuals {
		k := key{period: row.period, category: row.category}
		if _, dup := merged[k]; dup {
			return nil, fmt.Errorf("ingest: duplicate actuals row for %s / %q", row.period, row.category)
		}
		merged[k] = &dataset.FinancialRecord{
			Period:   row.period,
			Category: row.category,
			Actual:   row.amount,
			Currency: row.currency,
		}
		order = append(order, k)
	}

	seenBudget := make(map[key]struct{})
	for _, row := range budget {
		k := key{period: row.period, category: row.category}
		if _, dup := seenBudget[k]; dup {
			return nil, fmt.Errorf("ingest: duplicate budget row for %s / %q", row.period, row.category)
		}
		seenBudget[k] = struct{}{}

		rec, ok := merged[k]
		if !ok {
			merged[k] = &dataset.FinancialRecord{
				Period:   row.period,
				Category: row.category,
				Budget:   row.amount,
				Currency: row.currency,
			}
			order = append(order, k)
			continue
		}
		if rec.Currency != row.currency {
			return nil, fmt.Errorf("ingest: currency mismatch for %s / %q: actuals %s, budget %s",
				row.period, row.category, rec.Currency, row.currency)
		}
		rec.Budget = row.amount
	}

	out := make([]dataset.FinancialRecord, 0, len(order))
	for _, k := range order {
		out = append(out, *merged[k])
	}
	return out, nil
}

func readAmountTable(path string) ([]amountRow, error) {
	rows, err := readTable(path, []string{"month", "category", "amount", "currency"})
	if err != nil {
		return nil, err
	}

	out := make([]amountRow, 0, len(rows))
	for i, row := range rows {
		period, err := dataset.ParsePeriod(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", filepath.Base(path), i+2, err)
		}
		amount, err := decimal.NewFromString(row[2])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: parse amount %q: %w", filepath.Base(path), i+2, row[2], err)
		}
		out = append(out, amountRow{
			period:   period,
			category: strings.TrimSpace(row[1]),
			amount:   amount,
			currency: strings.ToUpper(strings.TrimSpace(row[3])),
		})
	}
	return out, nil
}

func readRateTable(path string) ([]dataset.FXRate, error) {
	rows, err := readTable(path, []string{"month", "currency", "rate"})
	if err != nil {
		return nil, err
	}

	out := make([]dataset.FXRate, 0, len(rows))
	for i, row := range rows {
		period, err := dataset.ParsePeriod(row[0])
		if err != nil {
			return nil, fmt.Errorf("fx.csv row %d: %w", i+2, err)
		}
		rate, err := decimal.NewFromString(row[2])
		if err != nil {
			return nil, fmt.Errorf("fx.csv row %d: parse rate %q: %w", i+2, row[2], err)
		}
		out = append(out, dataset.FXRate{
			Period:   period,
			Currency: strings.ToUpper(strings.TrimSpace(row[1])),
			Rate:     rate,
		})
	}
	return out, nil
}

func readCashTable(path string) ([]dataset.CashBalance, error) {
	rows, err := readTable(path, []string{"month", "balance", "currency"})
	if err != nil {
		return nil, err
	}

	out := make([]dataset.CashBalance, 0, len(rows))
	for i, row := range rows {
		period, err := dataset.ParsePeriod(row[0])
		if err != nil {
			return nil, fmt.Errorf("cash.csv row %d: %w", i+2, err)
		}
		balance, err := decimal.NewFromString(row[1])
		if err != nil {
			return nil, fmt.Errorf("cash.csv row %d: parse balance %q: %w", i+2, row[1], err)
		}
		out = append(out, dataset.CashBalance{
			Period:   period,
			Balance:  balance,
			Currency: strings.ToUpper(strings.TrimSpace(row[2])),
		})
	}
	return out, nil
}

func readTable(path string, header []string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(header)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	for i, name := range header {
		if !strings.EqualFold(strings.TrimSpace(rows[0][i]), name) {
			return nil, fmt.Errorf("%s: expected header %v, got %v", filepath.Base(path), header, rows[0])
		}
	}

	return rows[1:], nil
}
