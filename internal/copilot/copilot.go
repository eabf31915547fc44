// Package copilot sequences classification, extraction, and metric
// computation into a single answer per query.
package copilot

import (
	"errors"

	"github.com/rs/zerolog"

	"cfo-copilot/internal/dataset"
	"cfo-copilot/internal/fx"
	"cfo-copilot/internal/metrics"
	"cfo-copilot/internal/nlq"
)

// Options tune metric windows.
type Options struct {
	BurnWindow  int
	TrendWindow int
}

// Copilot answers finance questions against one immutable dataset.
type Copilot struct {
	data        *dataset.Context
	classifier  *nlq.Classifier
	burnWindow  int
	trendWindow int
	logger      zerolog.Logger
}

// New constructs a Copilot over the dataset.
func New(data *dataset.Context, opts Options, logger zerolog.Logger) *Copilot {
	if opts.BurnWindow <= 0 {
		opts.BurnWindow = 3
	}
	if opts.TrendWindow <= 0 {
		opts.TrendWindow = 3
	}
	return &Copilot{
		data:        data,
		classifier:  nlq.NewClassifier(),
		burnWindow:  opts.BurnWindow,
		trendWindow: opts.TrendWindow,
		logger:      logger.With().Str("component", "copilot").Logger(),
	}
}

// Answer classifies and parameterises the query, dispatches the metric
// function, and applies the fallback policy. It always returns a result:
// unknown intents yield the help narrative and missing FX rates yield a
// data-gap narrative, never a crash.
func (c *Copilot) Answer(query string) metrics.Result {
	intent := c.classifier.Classify(query)
	params := nlq.Extract(query, c.data)

	c.logger.Debug().
		Str("intent", intent.String()).
		Str("period", params.Label()).
		Str("category", params.Category).
		Str("currency", params.Currency).
		Msg("query classified")

	if intent == nlq.IntentUnknown {
		return helpResult()
	}

	result, err := c.dispatch(intent, params)
	if err != nil {
		return c.dataGapResult(params, err)
	}
	return result
}

func (c *Copilot) dispatch(intent nlq.Intent, params nlq.Params) (metrics.Result, error) {
	switch intent {
	case nlq.IntentRevenueVsBudget:
		return metrics.RevenueVsBudget(c.data, params)
	case nlq.IntentOpexBreakdown:
		return metrics.OpexBreakdown(c.data, params)
	case nlq.IntentGrossMarginTrend:
		return metrics.GrossMarginTrend(c.data, params, c.trendWindow)
	case nlq.IntentCashRunway:
		return metrics.CashRunway(c.data, params, c.burnWindow)
	case nlq.IntentEbitdaProxy:
		return metrics.EbitdaProxy(c.data, params)
	default:
		return helpResult(), nil
	}
}

func (c *Copilot) dataGapResult(params nlq.Params, err error) metrics.Result {
	note := "the dataset is missing data needed for this answer: " + err.Error()

	var missing *fx.MissingRateError
	if errors.As(err, &missing) {
		c.logger.Warn().
			Str("currency", missing.Currency).
			Str("period", missing.Period.String()).
			Msg("fx rate gap")
	} else {
		c.logger.Error().Err(err).Msg("metric computation failed")
	}

	return metrics.Result{
		Template: "data_gap",
		Period:   params.Label(),
		Currency: params.Currency,
		Note:     note,
	}
}

func helpResult() metrics.Result {
	return metrics.Result{
		Template: "help",
		Note: "I can answer questions about revenue vs budget, opex breakdowns, " +
			"gross margin trends, cash runway, and EBITDA. " +
			"Try: \"How did revenue compare to budget in March?\"",
	}
}
