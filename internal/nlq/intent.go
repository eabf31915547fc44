// Package nlq turns a raw finance question into an intent and structured
// query parameters. Matching is keyword-based and deterministic: the same
// text always yields the same intent and params.
package nlq

// Intent is the closed set of question types the copilot can answer.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentRevenueVsBudget
	IntentOpexBreakdown
	IntentGrossMarginTrend
	IntentCashRunway
	IntentEbitdaProxy
)

// String names the intent for logging and result templates.
func (i Intent) String() string {
	switch i {
	case IntentRevenueVsBudget:
		return "revenue_vs_budget"
	case IntentOpexBreakdown:
		return "opex_breakdown"
	case IntentGrossMarginTrend:
		return "gross_margin_trend"
	case IntentCashRunway:
		return "cash_runway"
	case IntentEbitdaProxy:
		return "ebitda_proxy"
	default:
		return "unknown"
	}
}
