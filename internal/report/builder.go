// Package report assembles the complete dashboard payload for one worksheet
// and filter selection: summary cards, chart series, the map layer, and the
// data table. One Build call backs one UI refresh.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/kampungspirit/kampung-insights/internal/dataset"
	"github.com/kampungspirit/kampung-insights/internal/domain"
	"github.com/kampungspirit/kampung-insights/internal/observability"
	"github.com/kampungspirit/kampung-insights/internal/schema"
)

// dateLayout is the wire format for date-range bounds.
const dateLayout = "2006-01-02"

// DateRange is an inclusive [Start, End] filter over event dates. The zero
// value means no filtering.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the range filters nothing.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// ParseDateRange parses start/end query values in YYYY-MM-DD form. Both
// empty means no filter; exactly one set, malformed values, and inverted
// ranges are errors.
func ParseDateRange(start, end string) (DateRange, error) {
	if start == "" && end == "" {
		return DateRange{}, nil
	}
	if start == "" || end == "" {
		return DateRange{}, fmt.Errorf("start and end must be provided together")
	}
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date %q: want YYYY-MM-DD", start)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date %q: want YYYY-MM-DD", end)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return DateRange{Start: s, End: e}, nil
}

// Report is the full dashboard payload for one worksheet and filter.
type Report struct {
	Sheet       string            `json:"sheet"`
	GeneratedAt time.Time         `json:"generated_at"`
	Rows        int               `json:"rows"`
	Summary     domain.Summary    `json:"summary"`
	Charts      []Chart           `json:"charts"`
	Map         MapData           `json:"map"`
	Columns     []string          `json:"columns"`
	Table       Table             `json:"table"`
}

// Chart is one chart's data series. Histograms fill Bins; pies fill
// Categories.
type Chart struct {
	Key        string                 `json:"key"`
	Title      string                 `json:"title"`
	Type       schema.ChartType       `json:"type"`
	Bins       []domain.HistogramBin  `json:"bins,omitempty"`
	Categories []domain.CategoryCount `json:"categories,omitempty"`
}

// MapData is the participant map: a GeoJSON layer plus the viewport.
type MapData struct {
	CenterLat float64                  `json:"center_lat"`
	CenterLon float64                  `json:"center_lon"`
	Zoom      int                      `json:"zoom"`
	GeoJSON   domain.FeatureCollection `json:"geojson"`
}

// Table is the filtered submissions rendered as display strings, one row
// per submission, columns in schema order.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// MapView is the configured default viewport.
type MapView struct {
	CenterLat float64
	CenterLon float64
	Zoom      int
}

// SnapshotLoader is the part of the dataset store the builder needs.
type SnapshotLoader interface {
	Load(ctx context.Context, sheet string) (*dataset.Snapshot, error)
}

// Builder assembles reports from worksheet snapshots.
type Builder struct {
	store   SnapshotLoader
	schema  schema.Schema
	mapView MapView
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBuilder creates a report builder.
func NewBuilder(store SnapshotLoader, sch schema.Schema, mapView MapView, logger *slog.Logger, metrics *observability.Metrics) *Builder {
	return &Builder{
		store:   store,
		schema:  sch,
		mapView: mapView,
		logger:  logger,
		metrics: metrics,
	}
}

// Build loads the worksheet snapshot, applies the date filter, and computes
// every dashboard component in one pass.
func (b *Builder) Build(ctx context.Context, sheet string, r DateRange) (*Report, error) {
	snap, err := b.store.Load(ctx, sheet)
	if err != nil {
		return nil, err
	}

	filtered := domain.FilterByDateRange(snap.Submissions, r.Start, r.End)

	charts := make([]Chart, 0, len(b.schema.Fields))
	for _, f := range b.schema.Fields {
		c := Chart{Key: f.Key, Title: f.Title, Type: f.Chart}
		switch f.Chart {
		case schema.ChartHistogram:
			c.Bins = domain.HistogramOf(filtered, f.Key, f.Bins)
		case schema.ChartPie:
			c.Categories = domain.CountByCategory(filtered, f.Key)
		}
		charts = append(charts, c)
	}

	rep := &Report{
		Sheet:       snap.Sheet,
		GeneratedAt: domain.Now(),
		Rows:        len(filtered),
		Summary:     domain.Summarize(b.schema, filtered),
		Charts:      charts,
		Map: MapData{
			CenterLat: b.mapView.CenterLat,
			CenterLon: b.mapView.CenterLon,
			Zoom:      b.mapView.Zoom,
			GeoJSON:   domain.ToFeatureCollection(filtered),
		},
		Columns: b.schema.Columns(),
		Table:   b.buildTable(filtered),
	}

	b.metrics.ReportRequests.Inc()
	b.logger.Debug("report built",
		"sheet", sheet,
		"rows", rep.Rows,
		"filtered", !r.IsZero(),
	)
	return rep, nil
}

// buildTable renders the filtered submissions as display strings in schema
// column order.
func (b *Builder) buildTable(subs []domain.Submission) Table {
	tbl := Table{
		Columns: b.schema.Columns(),
		Rows:    make([][]string, 0, len(subs)),
	}
	for _, s := range subs {
		row := make([]string, 0, len(tbl.Columns))

		if s.HasDate() {
			row = append(row, s.EventDate.Format(dateLayout))
		} else {
			row = append(row, "")
		}
		row = append(row, s.PostalCode)
		if s.Attendance != nil {
			row = append(row, formatNumber(*s.Attendance))
		} else {
			row = append(row, "")
		}

		for _, f := range b.schema.Fields {
			switch f.Kind {
			case schema.KindNumeric:
				if v, ok := s.Numeric[f.Key]; ok {
					row = append(row, formatNumber(v))
				} else {
					row = append(row, "")
				}
			case schema.KindCategory:
				row = append(row, s.Category[f.Key])
			}
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl
}

// SelectColumns narrows a table to the requested columns, preserving table
// order. Unknown names are ignored; an empty selection keeps every column.
func SelectColumns(tbl Table, selected []string) Table {
	if len(selected) == 0 {
		return tbl
	}
	want := make(map[string]bool, len(selected))
	for _, c := range selected {
		want[c] = true
	}

	var keep []int
	out := Table{}
	for i, c := range tbl.Columns {
		if want[c] {
			keep = append(keep, i)
			out.Columns = append(out.Columns, c)
		}
	}
	if len(keep) == 0 {
		return tbl
	}

	out.Rows = make([][]string, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		cells := make([]string, 0, len(keep))
		for _, i := range keep {
			if i < len(row) {
				cells = append(cells, row[i])
			} else {
				cells = append(cells, "")
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
