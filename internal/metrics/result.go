// Package metrics computes financial metrics from the dataset. Every
// function here is pure: it reads the shared Context, never mutates it, and
// returns identical results for identical inputs.
package metrics

import "github.com/shopspring/decimal"

// Unit qualifies a metric value.
type Unit int

const (
	UnitNone Unit = iota
	UnitCurrency
	UnitPercent
	UnitMonths
)

// Point is one labelled value in a result. Defined=false marks a value that
// is mathematically undefined (zero-budget variance, zero-revenue margin,
// non-positive burn) rather than zero or NaN.
type Point struct {
	Label   string
	Value   decimal.Decimal
	Unit    Unit
	Defined bool
}

// Result is the typed answer to one query, consumed by an external
// renderer. Template keys select the narrative; Series order is part of the
// contract (breakdowns are sorted, trends chronological).
type Result struct {
	Template string
	Period   string
	Currency string
	Scalar   Point
	Series   []Point
	Note     string
}

func point(label string, value decimal.Decimal, unit Unit) Point {
	return Point{Label: label, Value: value, Unit: unit, Defined: true}
}

func undefinedPoint(label string, unit Unit) Point {
	return Point{Label: label, Unit: unit}
}

var hundred = decimal.NewFromInt(100)
