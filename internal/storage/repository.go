// Package storage loads the financial source tables from PostgreSQL. It is
// the alternative ingestion path to the CSV loader, selected when
// database.dsn is configured. Months are stored as YYYY-MM text and amounts
// as numerics, scanned through strings so no precision is lost.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"cfo-copilot/internal/dataset"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	// Actuals and budget merge SQL-side into one row per (month, category);
	// a missing side contributes zero.
	listRecordsSQL = `SELECT
        COALESCE(a.month, b.month)       AS month,
        COALESCE(a.category, b.category) AS category,
        COALESCE(a.amount, 0)            AS actual,
        COALESCE(b.amount, 0)            AS budget,
        COALESCE(a.currency, b.currency) AS currency
    FROM actuals a
    FULL OUTER JOIN budget b USING (month, category)
    ORDER BY 1, 2;`

	listRatesSQL = `SELECT month, currency, rate
    FROM fx_rates
    ORDER BY month, currency;`

	listCashSQL = `SELECT month, balance, currency
    FROM cash_balances
    ORDER BY month;`
)

// Store reads the dataset tables from Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// LoadContext reads all four tables and builds the dataset Context.
func (s *Store) LoadContext(ctx context.Context, baseCurrency string) (*dataset.Context, error) {
	records, err := s.listRecords(ctx)
	if err != nil {
		return nil, err
	}
	rates, err := s.listRates(ctx)
	if err != nil {
		return nil, err
	}
	cash, err := s.listCash(ctx)
	if err != nil {
		return nil, err
	}
	return dataset.Build(baseCurrency, records, rates, cash)
}

func (s *Store) listRecords(ctx context.Context) ([]dataset.FinancialRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecordsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list financial records: %w", queryErr)
	}
	defer rows.Close()

	records := make([]dataset.FinancialRecord, 0)
	for rows.Next() {
		var month, category, actual, budget, currency string
		if err := rows.Scan(&month, &category, &actual, &budget, &currency); err != nil {
			return nil, fmt.Errorf("scan financial record: %w", err)
		}

		period, err := dataset.ParsePeriod(month)
		if err != nil {
			return nil, err
		}
		actualAmount, err := decimal.NewFromString(actual)
		if err != nil {
			return nil, fmt.Errorf("parse actual for %s / %q: %w", month, category, err)
		}
		budgetAmount, err := decimal.NewFromString(budget)
		if err != nil {
			return nil, fmt.Errorf("parse budget for %s / %q: %w", month, category, err)
		}

		records = append(records, dataset.FinancialRecord{
			Period:   period,
			Category: category,
			Actual:   actualAmount,
			Budget:   budgetAmount,
			Currency: currency,
		})
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func (s *Store) listRates(ctx context.Context) ([]dataset.FXRate, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRatesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list fx rates: %w", queryErr)
	}
	defer rows.Close()

	rates := make([]dataset.FXRate, 0)
	for rows.Next() {
		var month, currency, rate string
		if err := rows.Scan(&month, &currency, &rate); err != nil {
			return nil, fmt.Errorf("scan fx rate: %w", err)
		}

		period, err := dataset.ParsePeriod(month)
		if err != nil {
			return nil, err
		}
		value, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("parse rate for %s / %s: %w", month, currency, err)
		}

		rates = append(rates, dataset.FXRate{Period: period, Currency: currency, Rate: value})
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return rates, nil
}

func (s *Store) listCash(ctx context.Context) ([]dataset.CashBalance, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listCashSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list cash balances: %w", queryErr)
	}
	defer rows.Close()

	balances := make([]dataset.CashBalance, 0)
	for rows.Next() {
		var month, balance, currency string
		if err := rows.Scan(&month, &balance, &currency); err != nil {
			return nil, fmt.Errorf("scan cash balance: %w", err)
		}

		period, err := dataset.ParsePeriod(month)
		if err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("parse balance for %s: %w", month, err)
		}

		balances = append(balances, dataset.CashBalance{Period: period, Balance: amount, Currency: currency})
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return balances, nil
}
