package nlq

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cfo-copilot/internal/dataset"
)

// Params are the structured query parameters resolved from a question.
// Every field has a defined fallback, so extraction is total: unresolvable
// pieces default rather than fail, and any semantic mismatch surfaces in
// the narrative instead of as a crash.
type Params struct {
	From     dataset.Period
	To       dataset.Period
	Category string // empty means no dimension filter
	Currency string // target reporting currency
}

// Single reports whether the params resolve to one period rather than a range.
func (p Params) Single() bool {
	return p.From == p.To
}

// Label renders the resolved period or range for narratives.
func (p Params) Label() string {
	if p.Single() {
		return p.To.Label()
	}
	return p.From.Label() + " to " + p.To.Label()
}

var (
	explicitPeriodRe = regexp.MustCompile(`\b(20\d{2})-(0[1-9]|1[0-2])\b`)
	yearRe           = regexp.MustCompile(`\b(20\d{2})\b`)
	lastNMonthsRe    = regexp.MustCompile(`\blast\s+(\d{1,2})\s+months?\b`)
	lastMonthRe      = regexp.MustCompile(`\blast\s+month\b`)
	thisMonthRe      = regexp.MustCompile(`\b(this|current)\s+month\b`)
	ytdRe            = regexp.MustCompile(`\bytd\b|\byear\s+to\s+date\b`)
	namedQuarterRe   = regexp.MustCompile(`\bq([1-4])\b`)
	thisQuarterRe    = regexp.MustCompile(`\b(this|current)\s+quarter\b`)
	lastQuarterRe    = regexp.MustCompile(`\blast\s+quarter\b`)
	currencyCodeRe   = regexp.MustCompile(`\b[A-Z]{3}\b`)
)

// monthPatterns are scanned in calendar order; the month whose name appears
// earliest in the text wins, keeping extraction independent of map order.
var monthPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 12)
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		patterns[m-1] = regexp.MustCompile(`\b(` + full + `|` + full[:3] + `)\b`)
	}
	return patterns
}()

// Extract resolves query parameters against the dataset. The dataset's most
// recent period acts as "now" for relative phrases, so answers are
// reproducible for a fixed dataset regardless of wall-clock time.
func Extract(query string, data *dataset.Context) Params {
	text := strings.ToLower(query)
	latest := data.LatestPeriod()

	params := Params{
		From:     latest,
		To:       latest,
		Currency: data.BaseCurrency(),
	}

	params.From, params.To = resolvePeriod(text, latest)
	params.Category = resolveCategory(text, data)
	if code := resolveCurrency(query, data); code != "" {
		params.Currency = code
	}

	return params
}

func resolvePeriod(text string, latest dataset.Period) (dataset.Period, dataset.Period) {
	if m := explicitPeriodRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		p := dataset.Period{Year: year, Month: time.Month(month)}
		return p, p
	}

	if month, ok := earliestMonthMention(text); ok {
		year := latest.Year
		if m := yearRe.FindStringSubmatch(text); m != nil {
			year, _ = strconv.Atoi(m[1])
		}
		p := dataset.Period{Year: year, Month: month}
		return p, p
	}

	if m := lastNMonthsRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n < 1 {
			n = 1
		}
		return latest.AddMonths(-(n - 1)), latest
	}

	if m := namedQuarterRe.FindStringSubmatch(text); m != nil {
		quarter, _ := strconv.Atoi(m[1])
		year := latest.Year
		if ym := yearRe.FindStringSubmatch(text); ym != nil {
			year, _ = strconv.Atoi(ym[1])
		}
		start := dataset.QuarterStart(year, quarter)
		end := dataset.QuarterEnd(year, quarter)
		if latest.Before(end) && !latest.Before(start) {
			end = latest
		}
		return start, end
	}

	if thisQuarterRe.MatchString(text) {
		q := latest.Quarter()
		return dataset.QuarterStart(latest.Year, q), latest
	}

	if lastQuarterRe.MatchString(text) {
		start := dataset.QuarterStart(latest.Year, latest.Quarter()).AddMonths(-3)
		return start, start.AddMonths(2)
	}

	if ytdRe.MatchString(text) {
		return dataset.Period{Year: latest.Year, Month: time.January}, latest
	}

	if lastMonthRe.MatchString(text) {
		p := latest.AddMonths(-1)
		return p, p
	}

	if thisMonthRe.MatchString(text) {
		return latest, latest
	}

	return latest, latest
}

func earliestMonthMention(text string) (time.Month, bool) {
	best := -1
	var month time.Month
	for i, pattern := range monthPatterns {
		loc := pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if best == -1 || loc[0] < best {
			best = loc[0]
			month = time.Month(i + 1)
		}
	}
	return month, best != -1
}

// resolveCategory tests the dataset's known category labels against the
// query. Categories are scanned in sorted order and the first substring hit
// wins, keeping ties deterministic.
func resolveCategory(text string, data *dataset.Context) string {
	for _, category := range data.Categories() {
		label := strings.ToLower(dataset.OpexLabel(category))
		if len(label) >= 3 && strings.Contains(text, label) {
			return category
		}
		if full := strings.ToLower(category); strings.Contains(text, full) {
			return category
		}
	}
	return ""
}

// resolveCurrency finds the first standalone 3-letter code the dataset can
// actually convert. Matching runs on the original casing so ordinary words
// are not mistaken for codes.
func resolveCurrency(query string, data *dataset.Context) string {
	for _, code := range currencyCodeRe.FindAllString(query, -1) {
		if data.KnowsCurrency(code) {
			return code
		}
	}
	return ""
}
