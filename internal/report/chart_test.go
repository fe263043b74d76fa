package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kampungspirit/kampung-insights/internal/domain"
	"github.com/kampungspirit/kampung-insights/internal/schema"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func chartReport() *Report {
	return &Report{
		Sheet: "March Events",
		Charts: []Chart{
			{
				Key:   "age",
				Title: "Age Distribution",
				Type:  schema.ChartHistogram,
				Bins: []domain.HistogramBin{
					{Label: "20-30", From: 20, To: 30, Count: 4},
					{Label: "30-40", From: 30, To: 40, Count: 7},
					{Label: "40-50", From: 40, To: 50, Count: 2},
				},
			},
			{
				Key:   "gender",
				Title: "Gender Distribution",
				Type:  schema.ChartPie,
				Categories: []domain.CategoryCount{
					{Value: "Female", Count: 8},
					{Value: "Male", Count: 5},
				},
			},
			{
				Key:  "race",
				Type: schema.ChartPie,
			},
		},
	}
}

func TestRenderChartPNG_Histogram(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderChartPNG(chartReport(), "age", &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic), "output should be a PNG")
}

func TestRenderChartPNG_Pie(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderChartPNG(chartReport(), "gender", &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic), "output should be a PNG")
}

func TestRenderChartPNG_UnknownKey(t *testing.T) {
	var buf bytes.Buffer
	err := RenderChartPNG(chartReport(), "nope", &buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownChart))
}

func TestRenderChartPNG_EmptySeries(t *testing.T) {
	var buf bytes.Buffer
	err := RenderChartPNG(chartReport(), "race", &buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoChartData))
}
