package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
)

// ErrUnknownChart marks a chart key the schema does not define.
var ErrUnknownChart = errors.New("unknown chart")

// ErrNoChartData marks a chart whose filtered series is empty; there is
// nothing to draw.
var ErrNoChartData = errors.New("chart has no data")

// RenderChartPNG renders one of the report's charts as a PNG: histograms as
// bar charts, category breakdowns as pie charts.
func RenderChartPNG(rep *Report, key string, w io.Writer) error {
	var found *Chart
	for i := range rep.Charts {
		if rep.Charts[i].Key == key {
			found = &rep.Charts[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("%w: %q", ErrUnknownChart, key)
	}

	switch {
	case len(found.Bins) > 0:
		bars := make([]chart.Value, 0, len(found.Bins))
		for _, b := range found.Bins {
			bars = append(bars, chart.Value{Label: b.Label, Value: float64(b.Count)})
		}
		bar := chart.BarChart{
			Title:    found.Title,
			Width:    640,
			Height:   420,
			BarWidth: 40,
			Bars:     bars,
		}
		if err := bar.Render(chart.PNG, w); err != nil {
			return fmt.Errorf("render bar chart %q: %w", key, err)
		}
		return nil

	case len(found.Categories) > 0:
		values := make([]chart.Value, 0, len(found.Categories))
		for _, c := range found.Categories {
			values = append(values, chart.Value{Label: c.Value, Value: float64(c.Count)})
		}
		pie := chart.PieChart{
			Title:  found.Title,
			Width:  520,
			Height: 520,
			Values: values,
		}
		if err := pie.Render(chart.PNG, w); err != nil {
			return fmt.Errorf("render pie chart %q: %w", key, err)
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrNoChartData, key)
	}
}
