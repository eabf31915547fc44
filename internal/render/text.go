// Package render turns metric results into user-facing narratives and
// charts. It is the only place result template keys are interpreted.
package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"cfo-copilot/internal/metrics"
)

// Text renders the narrative for a result.
func Text(result metrics.Result) string {
	switch result.Template {
	case "help":
		return result.Note
	case "data_gap":
		return fmt.Sprintf("Cannot answer for %s: %s", result.Period, result.Note)
	case "revenue_vs_budget":
		return renderVariance(result)
	case "opex_breakdown":
		return renderOpex(result)
	case "gross_margin_trend":
		return renderMarginTrend(result)
	case "cash_runway":
		return renderRunway(result)
	case "ebitda_proxy":
		return renderEbitda(result)
	default:
		return result.Note
	}
}

func renderVariance(result metrics.Result) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Actuals vs budget for %s:\n", result.Period))
	for _, p := range result.Series {
		builder.WriteString(fmt.Sprintf("  %s: %s\n", displayLabel(p.Label), formatPoint(p, result.Currency)))
	}
	if v := findPoint(result.Series, "variance"); v != nil && v.Defined {
		if v.Value.Sign() >= 0 {
			builder.WriteString("Above budget.")
		} else {
			builder.WriteString("Below budget.")
		}
	}
	return strings.TrimRight(builder.String(), "\n")
}

func renderOpex(result metrics.Result) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Operating expenses for %s: %s\n", result.Period, formatPoint(result.Scalar, result.Currency)))
	total := result.Scalar.Value
	for _, p := range result.Series {
		line := fmt.Sprintf("  %s: %s", p.Label, formatPoint(p, result.Currency))
		if !total.IsZero() {
			share := p.Value.Div(total).Mul(decimal.NewFromInt(100))
			line += fmt.Sprintf(" (%s%%)", share.StringFixed(1))
		}
		builder.WriteString(line + "\n")
	}
	return strings.TrimRight(builder.String(), "\n")
}

func renderMarginTrend(result metrics.Result) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Gross margin, %s:\n", result.Period))
	for _, p := range result.Series {
		builder.WriteString(fmt.Sprintf("  %s: %s\n", p.Label, formatPoint(p, result.Currency)))
	}
	return strings.TrimRight(builder.String(), "\n")
}

func renderRunway(result metrics.Result) string {
	builder := strings.Builder{}
	if !result.Scalar.Defined {
		builder.WriteString("Cash runway: unbounded")
		if result.Note != "" {
			builder.WriteString(" (" + result.Note + ")")
		}
		builder.WriteString("\n")
	} else {
		builder.WriteString(fmt.Sprintf("Cash runway: %s (%s)\n", formatPoint(result.Scalar, result.Currency), runwayStatus(result.Scalar.Value)))
	}
	for _, p := range result.Series {
		builder.WriteString(fmt.Sprintf("  %s: %s\n", displayLabel(p.Label), formatPoint(p, result.Currency)))
	}
	return strings.TrimRight(builder.String(), "\n")
}

func renderEbitda(result metrics.Result) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("EBITDA proxy for %s: %s\n", result.Period, formatPoint(result.Scalar, result.Currency)))
	builder.WriteString("(revenue minus COGS minus opex; interest, tax, and depreciation not modelled)\n")
	for _, p := range result.Series {
		builder.WriteString(fmt.Sprintf("  %s: %s\n", displayLabel(p.Label), formatPoint(p, result.Currency)))
	}
	return strings.TrimRight(builder.String(), "\n")
}

func runwayStatus(months decimal.Decimal) string {
	switch {
	case months.LessThan(decimal.NewFromInt(6)):
		return "critical"
	case months.LessThan(decimal.NewFromInt(12)):
		return "caution"
	default:
		return "healthy"
	}
}

func formatPoint(p metrics.Point, currency string) string {
	if !p.Defined {
		return "undefined"
	}
	switch p.Unit {
	case metrics.UnitPercent:
		return p.Value.StringFixed(1) + "%"
	case metrics.UnitMonths:
		return p.Value.StringFixed(1) + " months"
	case metrics.UnitCurrency:
		return p.Value.StringFixed(2) + " " + currency
	default:
		return p.Value.String()
	}
}

func displayLabel(label string) string {
	return strings.ReplaceAll(label, "_", " ")
}

func findPoint(series []metrics.Point, label string) *metrics.Point {
	for i := range series {
		if series[i].Label == label {
			return &series[i]
		}
	}
	return nil
}
