package dataset

import (
	"fmt"
	"time"
)

// Period identifies a reporting month.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a period in YYYY-MM form.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", s, err)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// String renders the period in YYYY-MM form.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Label renders the period for narratives, e.g. "March 2025".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", p.Month.String(), p.Year)
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Compare orders two periods chronologically.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year != o.Year:
		if p.Year < o.Year {
			return -1
		}
		return 1
	case p.Month != o.Month:
		if p.Month < o.Month {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool {
	return p.Compare(o) < 0
}

// AddMonths shifts the period by n months (n may be negative).
func (p Period) AddMonths(n int) Period {
	t := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return Period{Year: t.Year(), Month: t.Month()}
}

// Quarter returns the calendar quarter (1..4) containing the period.
func (p Period) Quarter() int {
	return (int(p.Month)-1)/3 + 1
}

// QuarterEnd returns the last month of the given quarter in the given year.
func QuarterEnd(year, quarter int) Period {
	return Period{Year: year, Month: time.Month(quarter * 3)}
}

// QuarterStart returns the first month of the given quarter in the given year.
func QuarterStart(year, quarter int) Period {
	return Period{Year: year, Month: time.Month(quarter*3 - 2)}
}
