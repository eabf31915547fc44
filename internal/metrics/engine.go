package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"cfo-copilot/internal/dataset"
	"cfo-copilot/internal/fx"
	"cfo-copilot/internal/nlq"
)

// toTarget converts a native-currency amount into the target currency at
// the given period, going through the reporting currency when the target is
// not the reporting currency itself.
func toTarget(amount decimal.Decimal, native string, period dataset.Period, target string, data *dataset.Context) (decimal.Decimal, error) {
	reporting, err := fx.ToReporting(amount, native, period, data)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if target == data.BaseCurrency() {
		return reporting, nil
	}
	return fx.FromReporting(reporting, target, period, data)
}

// selectRecords returns the records for one period matching the dimension
// filter, or the given role when no filter is set.
func selectRecords(data *dataset.Context, period dataset.Period, category string, role func(string) bool) []dataset.FinancialRecord {
	var out []dataset.FinancialRecord
	for _, rec := range data.RecordsFor(period) {
		if category != "" {
			if rec.Category == category {
				out = append(out, rec)
			}
			continue
		}
		if role(rec.Category) {
			out = append(out, rec)
		}
	}
	return out
}

func periodsBetween(from, to dataset.Period) []dataset.Period {
	var out []dataset.Period
	for p := from; !to.Before(p); p = p.AddMonths(1) {
		out = append(out, p)
	}
	return out
}

func sumRole(data *dataset.Context, from, to dataset.Period, category string, role func(string) bool, target string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range periodsBetween(from, to) {
		for _, rec := range selectRecords(data, p, category, role) {
			amount, err := toTarget(rec.Actual, rec.Currency, p, target, data)
			if err != nil {
				return decimal.Decimal{}, err
			}
			total = total.Add(amount)
		}
	}
	return total, nil
}

// RevenueVsBudget compares actuals against budget over the resolved period.
// The slice defaults to revenue accounts; a resolved dimension filter
// narrows it to that category instead. Variance% is undefined, not zero,
// when the budget is zero.
func RevenueVsBudget(data *dataset.Context, params nlq.Params) (Result, error) {
	actual := decimal.Zero
	budget := decimal.Zero

	for _, p := range periodsBetween(params.From, params.To) {
		for _, rec := range selectRecords(data, p, params.Category, dataset.IsRevenue) {
			a, err := toTarget(rec.Actual, rec.Currency, p, params.Currency, data)
			if err != nil {
				return Result{}, err
			}
			b, err := toTarget(rec.Budget, rec.Currency, p, params.Currency, data)
			if err != nil {
				return Result{}, err
			}
			actual = actual.Add(a)
			budget = budget.Add(b)
		}
	}

	variance := actual.Sub(budget)

	variancePct := undefinedPoint("variance_pct", UnitPercent)
	if !budget.IsZero() {
		variancePct = point("variance_pct", variance.Div(budget).Mul(hundred), UnitPercent)
	}

	return Result{
		Template: "revenue_vs_budget",
		Period:   params.Label(),
		Currency: params.Currency,
		Scalar:   point("variance", variance, UnitCurrency),
		Series: []Point{
			point("actual", actual, UnitCurrency),
			point("budget", budget, UnitCurrency),
			point("variance", variance, UnitCurrency),
			variancePct,
		},
	}, nil
}

// OpexBreakdown groups operating-expense actuals by category for the
// resolved period, sorted descending by amount. The entries sum to the
// period's total opex by construction.
func OpexBreakdown(data *dataset.Context, params nlq.Params) (Result, error) {
	period := params.To

	totals := make(map[string]decimal.Decimal)
	order := make([]string, 0)
	total := decimal.Zero

	for _, rec := range data.RecordsFor(period) {
		if !dataset.IsOpex(rec.Category) {
			continue
		}
		if params.Category != "" && rec.Category != params.Category {
			continue
		}
		amount, err := toTarget(rec.Actual, rec.Currency, period, params.Currency, data)
		if err != nil {
			return Result{}, err
		}
		label := dataset.OpexLabel(rec.Category)
		if _, seen := totals[label]; !seen {
			order = append(order, label)
		}
		totals[label] = totals[label].Add(amount)
		total = total.Add(amount)
	}

	sort.SliceStable(order, func(i, j int) bool {
		cmp := totals[order[i]].Cmp(totals[order[j]])
		if cmp != 0 {
			return cmp > 0
		}
		return order[i] < order[j]
	})

	series := make([]Point, 0, len(order))
	for _, label := range order {
		series = append(series, point(label, totals[label], UnitCurrency))
	}

	return Result{
		Template: "opex_breakdown",
		Period:   period.Label(),
		Currency: params.Currency,
		Scalar:   point("total_opex", total, UnitCurrency),
		Series:   series,
	}, nil
}

// GrossMarginTrend computes margin% per period over a trailing window
// ending at the resolved period, or over the resolved range when the query
// named one. Zero-revenue periods report an undefined margin.
func GrossMarginTrend(data *dataset.Context, params nlq.Params, window int) (Result, error) {
	from, to := params.From, params.To
	if params.Single() && window > 1 {
		from = to.AddMonths(-(window - 1))
	}

	var series []Point
	latest := undefinedPoint("margin_pct", UnitPercent)

	for _, p := range periodsBetween(from, to) {
		revenue, err := sumRole(data, p, p, "", dataset.IsRevenue, params.Currency)
		if err != nil {
			return Result{}, err
		}
		cogs, err := sumRole(data, p, p, "", dataset.IsCOGS, params.Currency)
		if err != nil {
			return Result{}, err
		}

		entry := undefinedPoint(p.String(), UnitPercent)
		if !revenue.IsZero() {
			entry = point(p.String(), revenue.Sub(cogs).Div(revenue).Mul(hundred), UnitPercent)
		}
		series = append(series, entry)
		latest = entry
	}

	latest.Label = "margin_pct"

	return Result{
		Template: "gross_margin_trend",
		Period:   from.Label() + " to " + to.Label(),
		Currency: params.Currency,
		Scalar:   latest,
		Series:   series,
	}, nil
}

// CashRunway divides the latest cash balance by the average decline over
// the trailing burn window. Stable or growing cash means no runway limit:
// the scalar is undefined and the template says so, rather than reporting a
// negative number.
func CashRunway(data *dataset.Context, params nlq.Params, window int) (Result, error) {
	var balances []Point
	anchor := params.To

	for _, p := range data.Periods() {
		if anchor.Before(p) {
			continue
		}
		bal, ok := data.Cash(p)
		if !ok {
			continue
		}
		amount, err := toTarget(bal.Balance, bal.Currency, p, params.Currency, data)
		if err != nil {
			return Result{}, err
		}
		balances = append(balances, point(p.String(), amount, UnitCurrency))
	}

	if len(balances) < 2 {
		return Result{
			Template: "cash_runway",
			Period:   params.Label(),
			Currency: params.Currency,
			Scalar:   undefinedPoint("runway_months", UnitMonths),
			Note:     "not enough cash history to estimate a burn rate",
		}, nil
	}

	steps := window
	if max := len(balances) - 1; steps > max {
		steps = max
	}

	burn := decimal.Zero
	for i := len(balances) - steps; i < len(balances); i++ {
		burn = burn.Add(balances[i-1].Value.Sub(balances[i].Value))
	}
	burn = burn.Div(decimal.NewFromInt(int64(steps)))

	current := balances[len(balances)-1].Value

	result := Result{
		Template: "cash_runway",
		Period:   params.Label(),
		Currency: params.Currency,
		Series: []Point{
			point("cash_balance", current, UnitCurrency),
			point("avg_burn", burn, UnitCurrency),
		},
	}

	if burn.Sign() <= 0 {
		result.Scalar = undefinedPoint("runway_months", UnitMonths)
		result.Note = "cash is stable or growing; runway is unbounded"
		return result, nil
	}

	result.Scalar = point("runway_months", current.Div(burn), UnitMonths)
	return result, nil
}

// CashTrend lists the cash balance per period over the resolved range. It
// backs the export surface rather than a classifier intent.
func CashTrend(data *dataset.Context, params nlq.Params) (Result, error) {
	var series []Point
	for _, p := range data.Periods() {
		if p.Before(params.From) || params.To.Before(p) {
			continue
		}
		bal, ok := data.Cash(p)
		if !ok {
			continue
		}
		amount, err := toTarget(bal.Balance, bal.Currency, p, params.Currency, data)
		if err != nil {
			return Result{}, err
		}
		series = append(series, point(p.String(), amount, UnitCurrency))
	}

	scalar := undefinedPoint("cash_balance", UnitCurrency)
	if len(series) > 0 {
		scalar = series[len(series)-1]
		scalar.Label = "cash_balance"
	}

	return Result{
		Template: "cash_trend",
		Period:   params.Label(),
		Currency: params.Currency,
		Scalar:   scalar,
		Series:   series,
	}, nil
}

// EbitdaProxy approximates EBITDA as revenue minus cost of goods minus
// opex. Interest, tax, and depreciation are not modelled; the approximation
// is deliberate.
func EbitdaProxy(data *dataset.Context, params nlq.Params) (Result, error) {
	revenue, err := sumRole(data, params.From, params.To, "", dataset.IsRevenue, params.Currency)
	if err != nil {
		return Result{}, err
	}
	cogs, err := sumRole(data, params.From, params.To, "", dataset.IsCOGS, params.Currency)
	if err != nil {
		return Result{}, err
	}
	opex, err := sumRole(data, params.From, params.To, "", dataset.IsOpex, params.Currency)
	if err != nil {
		return Result{}, err
	}

	ebitda := revenue.Sub(cogs).Sub(opex)

	return Result{
		Template: "ebitda_proxy",
		Period:   params.Label(),
		Currency: params.Currency,
		Scalar:   point("ebitda", ebitda, UnitCurrency),
		Series: []Point{
			point("revenue", revenue, UnitCurrency),
			point("cogs", cogs, UnitCurrency),
			point("opex", opex, UnitCurrency),
			point("ebitda", ebitda, UnitCurrency),
		},
	}, nil
}
