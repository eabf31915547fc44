package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"cfo-copilot/internal/config"
	"cfo-copilot/internal/metrics"
	"cfo-copilot/internal/nlq"
	"cfo-copilot/internal/render"
)

// Export writes a metric series as CSV and/or PNG. Metrics: margin, opex,
// cash, ebitda.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	data, err := a.loadDataset(ctx)
	if err != nil {
		return err
	}

	params := nlq.Params{
		From:     data.EarliestPeriod(),
		To:       data.LatestPeriod(),
		Currency: data.BaseCurrency(),
	}

	var result metrics.Result
	switch opts.Metric {
	case "margin":
		result, err = metrics.GrossMarginTrend(data, params, a.Config.Reporting.TrendWindow)
	case "opex":
		result, err = metrics.OpexBreakdown(data, params)
	case "cash":
		result, err = metrics.CashTrend(data, params)
	case "ebitda":
		result, err = metrics.EbitdaProxy(data, params)
	default:
		return fmt.Errorf("unknown metric %q (expected margin, opex, cash, or ebitda)", opts.Metric)
	}
	if err != nil {
		return err
	}
	if len(result.Series) == 0 {
		a.Logger.Info().Str("metric", opts.Metric).Msg("no data points in export window")
		return nil
	}

	a.Logger.Info().Str("metric", opts.Metric).Int("points", len(result.Series)).Msg("exporting series")

	if opts.CSVPath != "" {
		if err := writeSeriesCSV(opts.CSVPath, result); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeChart(result, opts.PNGPath, a.Config.Chart); err != nil {
			return err
		}
	}

	return nil
}

func writeSeriesCSV(path string, result metrics.Result) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"label", "value", "unit", "defined"}); err != nil {
		return err
	}

	for _, p := range result.Series {
		value := ""
		if p.Defined {
			value = p.Value.String()
		}
		record := []string{p.Label, value, unitName(p.Unit, result.Currency), fmt.Sprintf("%t", p.Defined)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeChart(result metrics.Result, path string, cfg config.ChartConfig) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return render.ChartPNG(result, file, render.Options{Width: cfg.Width, Height: cfg.Height})
}

func unitName(u metrics.Unit, currency string) string {
	switch u {
	case metrics.UnitCurrency:
		return currency
	case metrics.UnitPercent:
		return "percent"
	case metrics.UnitMonths:
		return "months"
	default:
		return ""
	}
}
