package render

import (
	"errors"
	"io"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"cfo-copilot/internal/dataset"
	"cfo-copilot/internal/metrics"
)

// Options set chart dimensions.
type Options struct {
	Width  int
	Height int
}

// ChartPNG renders a result's series as a PNG. Trends whose point labels
// are periods become a time line chart; everything else becomes a bar
// chart. Undefined points are skipped so gaps stay visible rather than
// plotting as zero.
func ChartPNG(result metrics.Result, w io.Writer, opts Options) error {
	if len(result.Series) == 0 {
		return errors.New("result has no series to chart")
	}
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}

	if x, y, ok := timeSeries(result.Series); ok {
		graph := chart.Chart{
			Title:  chartTitle(result),
			Width:  opts.Width,
			Height: opts.Height,
			XAxis: chart.XAxis{
				ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
			},
			Series: []chart.Series{
				chart.TimeSeries{
					Name:    displayLabel(result.Scalar.Label),
					XValues: x,
					YValues: y,
				},
			},
		}
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
		return graph.Render(chart.PNG, w)
	}

	bars := make([]chart.Value, 0, len(result.Series))
	for _, p := range result.Series {
		if !p.Defined {
			continue
		}
		bars = append(bars, chart.Value{
			Label: displayLabel(p.Label),
			Value: p.Value.InexactFloat64(),
		})
	}
	if len(bars) == 0 {
		return errors.New("result has no defined values to chart")
	}

	graph := chart.BarChart{
		Title:    chartTitle(result),
		Width:    opts.Width,
		Height:   opts.Height,
		BarWidth: 60,
		Bars:     bars,
	}
	return graph.Render(chart.PNG, w)
}

// timeSeries converts the series to time axes when every defined point is
// labelled with a period.
func timeSeries(series []metrics.Point) ([]time.Time, []float64, bool) {
	var x []time.Time
	var y []float64
	for _, p := range series {
		if !p.Defined {
			continue
		}
		period, err := dataset.ParsePeriod(p.Label)
		if err != nil {
			return nil, nil, false
		}
		x = append(x, time.Date(period.Year, period.Month, 1, 0, 0, 0, 0, time.UTC))
		y = append(y, p.Value.InexactFloat64())
	}
	return x, y, len(x) >= 2
}

func chartTitle(result metrics.Result) string {
	return displayLabel(result.Template) + ", " + result.Period
}
