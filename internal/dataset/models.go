package dataset

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FinancialRecord is one month of actual and budget amounts for a single
// account category, in the account's native currency.
type FinancialRecord struct {
	Period   Period
	Category string
	Actual   decimal.Decimal
	Budget   decimal.Decimal
	Currency string
}

// FXRate converts one unit of Currency into the reporting currency for a
// given month.
type FXRate struct {
	Period   Period
	Currency string
	Rate     decimal.Decimal
}

// CashBalance is the consolidated cash position at the end of a month.
type CashBalance struct {
	Period   Period
	Balance  decimal.Decimal
	Currency string
}

// Account categories follow the "Revenue", "COGS", "Opex:<name>" naming of
// the source tables. Free-form names fall back to keyword matching so
// loosely labelled accounts ("Revenue - Subscription", "Cost of Sales")
// still land in the right bucket.

var (
	revenueTerms = []string{"revenue", "sales"}
	cogsTerms    = []string{"cogs", "cost of goods", "cost of sales"}
)

// IsRevenue reports whether the category is a revenue account.
func IsRevenue(category string) bool {
	return matchesAny(category, revenueTerms) && !IsCOGS(category)
}

// IsCOGS reports whether the category is a cost-of-goods account.
func IsCOGS(category string) bool {
	return matchesAny(category, cogsTerms)
}

// IsOpex reports whether the category is an operating-expense account:
// anything that is neither revenue nor cost of goods.
func IsOpex(category string) bool {
	if strings.HasPrefix(strings.ToLower(category), "opex") {
		return true
	}
	return !IsRevenue(category) && !IsCOGS(category)
}

// OpexLabel strips the "Opex:" prefix for display, leaving other names as-is.
func OpexLabel(category string) string {
	lower := strings.ToLower(category)
	if strings.HasPrefix(lower, "opex:") {
		return strings.TrimSpace(category[len("opex:"):])
	}
	return category
}

func matchesAny(category string, terms []string) bool {
	lower := strings.ToLower(category)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
