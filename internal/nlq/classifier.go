package nlq

import (
	"regexp"
	"strings"
)

// Classifier maps query text to an Intent through an ordered rule list.
// Rules are evaluated top to bottom and the first match wins, so the list
// order is the priority policy for ambiguous text: a query mentioning both
// "margin" and "budget" routes to the variance rule because it is listed
// first. Reorder with care; tests pin the current policy.
type Classifier struct {
	rules []rule
}

// rule matches when every synonym group has at least one hit in the text.
type rule struct {
	intent Intent
	groups []termGroup
}

// termGroup is a set of interchangeable synonyms; any one of them matches.
type termGroup []*regexp.Regexp

// NewClassifier builds the default rule set.
func NewClassifier() *Classifier {
	budget := terms("budget", "budgeted", "plan", "planned")
	comparison := terms("vs", "versus", "against", "compare", "compared", "variance")

	return &Classifier{
		rules: []rule{
			{intent: IntentRevenueVsBudget, groups: []termGroup{budget, comparison}},
			{intent: IntentRevenueVsBudget, groups: []termGroup{terms("variance")}},
			{intent: IntentCashRunway, groups: []termGroup{terms("runway", "burn", "burn rate", "cash left")}},
			{intent: IntentGrossMarginTrend, groups: []termGroup{terms("margin", "gross profit", "profitability")}},
			{intent: IntentOpexBreakdown, groups: []termGroup{terms("opex", "operating expense", "operating expenses", "expense breakdown", "expenses", "spending")}},
			{intent: IntentEbitdaProxy, groups: []termGroup{terms("ebitda", "operating profit", "earnings")}},
		},
	}
}

// Classify returns the first matching intent, or IntentUnknown when no rule
// accepts the text. Unknown is a routing signal, not an error.
func (c *Classifier) Classify(query string) Intent {
	text := strings.ToLower(query)
	for _, r := range c.rules {
		if r.matches(text) {
			return r.intent
		}
	}
	return IntentUnknown
}

func (r rule) matches(text string) bool {
	for _, group := range r.groups {
		if !group.matches(text) {
			return false
		}
	}
	return true
}

func (g termGroup) matches(text string) bool {
	for _, term := range g {
		if term.MatchString(text) {
			return true
		}
	}
	return false
}

// terms compiles synonyms into whole-word matchers so "vs" does not fire
// inside unrelated words.
func terms(synonyms ...string) termGroup {
	group := make(termGroup, 0, len(synonyms))
	for _, s := range synonyms {
		pattern := `\b` + strings.ReplaceAll(regexp.QuoteMeta(s), ` `, `\s+`) + `\b`
		group = append(group, regexp.MustCompile(pattern))
	}
	return group
}
