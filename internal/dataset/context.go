package dataset

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Context is the immutable, in-memory view of the financial dataset. It is
// built once at startup and shared read-only across queries, so concurrent
// reads need no locking.
type Context struct {
	baseCurrency string

	periods    []Period
	categories []string

	records map[Period][]FinancialRecord
	rates   map[Period]map[string]decimal.Decimal
	cash    map[Period]CashBalance

	earliestRate map[string]Period
}

type recordKey struct {
	period   Period
	category string
}

// Build assembles and validates a Context from the four source tables.
// Exactly one financial record per (period, category) and one cash balance
// per period are enforced here so every later lookup is unambiguous.
func Build(baseCurrency string, records []FinancialRecord, rates []FXRate, cash []CashBalance) (*Context, error) {
	if baseCurrency == "" {
		return nil, fmt.Errorf("dataset: base currency is required")
	}

	ctx := &Context{
		baseCurrency: baseCurrency,
		records:      make(map[Period][]FinancialRecord),
		rates:        make(map[Period]map[string]decimal.Decimal),
		cash:         make(map[Period]CashBalance),
		earliestRate: make(map[string]Period),
	}

	seen := make(map[recordKey]struct{}, len(records))
	periodSet := make(map[Period]struct{})
	categorySet := make(map[string]struct{})

	for _, rec := range records {
		if rec.Period.IsZero() {
			return nil, fmt.Errorf("dataset: record for category %q has no period", rec.Category)
		}
		key := recordKey{period: rec.Period, category: rec.Category}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("dataset: duplicate record for %s / %q", rec.Period, rec.Category)
		}
		seen[key] = struct{}{}
		if rec.Currency == "" {
			rec.Currency = baseCurrency
		}
		ctx.records[rec.Period] = append(ctx.records[rec.Period], rec)
		periodSet[rec.Period] = struct{}{}
		categorySet[rec.Category] = struct{}{}
	}

	for _, rate := range rates {
		if rate.Currency == "" || rate.Period.IsZero() {
			return nil, fmt.Errorf("dataset: fx rate row missing period or currency")
		}
		byCurrency, ok := ctx.rates[rate.Period]
		if !ok {
			byCurrency = make(map[string]decimal.Decimal)
			ctx.rates[rate.Period] = byCurrency
		}
		if _, dup := byCurrency[rate.Currency]; dup {
			return nil, fmt.Errorf("dataset: duplicate fx rate for %s / %s", rate.Period, rate.Currency)
		}
		byCurrency[rate.Currency] = rate.Rate
		if first, ok := ctx.earliestRate[rate.Currency]; !ok || rate.Period.Before(first) {
			ctx.earliestRate[rate.Currency] = rate.Period
		}
	}

	for _, bal := range cash {
		if bal.Period.IsZero() {
			return nil, fmt.Errorf("dataset: cash balance row has no period")
		}
		if _, dup := ctx.cash[bal.Period]; dup {
			return nil, fmt.Errorf("dataset: duplicate cash balance for %s", bal.Period)
		}
		if bal.Currency == "" {
			bal.Currency = baseCurrency
		}
		ctx.cash[bal.Period] = bal
		periodSet[bal.Period] = struct{}{}
	}

	for p := range periodSet {
		ctx.periods = append(ctx.periods, p)
	}
	sort.Slice(ctx.periods, func(i, j int) bool { return ctx.periods[i].Before(ctx.periods[j]) })

	for c := range categorySet {
		ctx.categories = append(ctx.categories, c)
	}
	sort.Strings(ctx.categories)

	for _, recs := range ctx.records {
		sort.Slice(recs, func(i, j int) bool { return recs[i].Category < recs[j].Category })
	}

	if len(ctx.periods) == 0 {
		return nil, fmt.Errorf("dataset: no periods present in any source table")
	}

	return ctx, nil
}

// BaseCurrency is the reporting currency all amounts normalise to.
func (c *Context) BaseCurrency() string {
	return c.baseCurrency
}

// Periods returns all dataset periods in ascending order.
func (c *Context) Periods() []Period {
	out := make([]Period, len(c.periods))
	copy(out, c.periods)
	return out
}

// LatestPeriod returns the most recent period in the dataset. It acts as
// "now" when resolving relative period phrases.
func (c *Context) LatestPeriod() Period {
	return c.periods[len(c.periods)-1]
}

// EarliestPeriod returns the oldest period in the dataset.
func (c *Context) EarliestPeriod() Period {
	return c.periods[0]
}

// Categories returns the distinct account categories, sorted.
func (c *Context) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// RecordsFor returns the financial records for one period, sorted by
// category. The returned slice is a copy.
func (c *Context) RecordsFor(p Period) []FinancialRecord {
	recs := c.records[p]
	out := make([]FinancialRecord, len(recs))
	copy(out, recs)
	return out
}

// Rate returns the exact FX rate for (period, currency) if one is recorded.
func (c *Context) Rate(p Period, currency string) (decimal.Decimal, bool) {
	byCurrency, ok := c.rates[p]
	if !ok {
		return decimal.Decimal{}, false
	}
	rate, ok := byCurrency[currency]
	return rate, ok
}

// EarliestRatePeriod returns the first period with a recorded rate for the
// currency, bounding stale-rate searches.
func (c *Context) EarliestRatePeriod(currency string) (Period, bool) {
	p, ok := c.earliestRate[currency]
	return p, ok
}

// KnowsCurrency reports whether the currency is the reporting currency or
// appears anywhere in the FX table.
func (c *Context) KnowsCurrency(currency string) bool {
	if currency == c.baseCurrency {
		return true
	}
	_, ok := c.earliestRate[currency]
	return ok
}

// Cash returns the cash balance for a period if one is recorded.
func (c *Context) Cash(p Period) (CashBalance, bool) {
	bal, ok := c.cash[p]
	return bal, ok
}
