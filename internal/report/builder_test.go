package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kampungspirit/kampung-insights/internal/dataset"
	"github.com/kampungspirit/kampung-insights/internal/domain"
	"github.com/kampungspirit/kampung-insights/internal/observability"
	"github.com/kampungspirit/kampung-insights/internal/schema"
)

var testMapView = MapView{CenterLat: 1.3521, CenterLon: 103.8198, Zoom: 12}

// stubLoader serves canned snapshots keyed by sheet name.
type stubLoader struct {
	snapshots map[string]*dataset.Snapshot
}

func (s *stubLoader) Load(_ context.Context, sheet string) (*dataset.Snapshot, error) {
	snap, ok := s.snapshots[sheet]
	if !ok {
		return nil, errors.New("worksheet not found")
	}
	return snap, nil
}

func attended(v float64) *float64 { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func marchSnapshot() *dataset.Snapshot {
	return &dataset.Snapshot{
		Sheet:   "March Events",
		Columns: schema.Default().Columns(),
		Submissions: []domain.Submission{
			{
				Row:        2,
				EventDate:  date(2025, 3, 10),
				PostalCode: "560123",
				Attendance: attended(1),
				Geo:        &domain.Geo{Lat: 1.3691, Lon: 103.8454},
				Numeric:    map[string]float64{"age": 30, "event_rating": 4},
				Category:   map[string]string{"gender": "Female", "marketing": "Instagram"},
			},
			{
				Row:        3,
				EventDate:  date(2025, 3, 15),
				PostalCode: "238801",
				Attendance: attended(1),
				Geo:        &domain.Geo{Lat: 1.3006, Lon: 103.8390},
				Numeric:    map[string]float64{"age": 40, "event_rating": 5},
				Category:   map[string]string{"gender": "Male", "marketing": "Word of mouth"},
			},
			{
				Row:        4,
				EventDate:  date(2025, 3, 20),
				PostalCode: "999999",
				Attendance: attended(0),
				Numeric:    map[string]float64{"age": 50},
				Category:   map[string]string{"gender": "Female"},
			},
		},
	}
}

func aprilSnapshot() *dataset.Snapshot {
	return &dataset.Snapshot{
		Sheet:   "April Events",
		Columns: schema.Default().Columns(),
		Submissions: []domain.Submission{
			{
				Row:        2,
				EventDate:  date(2025, 4, 5),
				PostalCode: "018956",
				Attendance: attended(1),
				Numeric:    map[string]float64{"age": 22},
				Category:   map[string]string{"gender": "Male", "marketing": "Flyer"},
			},
		},
	}
}

func newTestBuilder() *Builder {
	loader := &stubLoader{snapshots: map[string]*dataset.Snapshot{
		"March Events": marchSnapshot(),
		"April Events": aprilSnapshot(),
	}}
	return NewBuilder(loader, schema.Default(), testMapView,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting())
}

func TestParseDateRange(t *testing.T) {
	t.Run("both empty means no filter", func(t *testing.T) {
		r, err := ParseDateRange("", "")
		require.NoError(t, err)
		assert.True(t, r.IsZero())
	})

	t.Run("valid range", func(t *testing.T) {
		r, err := ParseDateRange("2025-03-01", "2025-03-31")
		require.NoError(t, err)
		assert.Equal(t, date(2025, 3, 1), r.Start)
		assert.Equal(t, date(2025, 3, 31), r.End)
	})

	t.Run("half-open range is rejected", func(t *testing.T) {
		_, err := ParseDateRange("2025-03-01", "")
		require.Error(t, err)
		_, err = ParseDateRange("", "2025-03-31")
		require.Error(t, err)
	})

	t.Run("malformed dates are rejected", func(t *testing.T) {
		_, err := ParseDateRange("March 1", "2025-03-31")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "YYYY-MM-DD")
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		_, err := ParseDateRange("2025-03-31", "2025-03-01")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "before start")
	})
}

func TestBuilder_Build(t *testing.T) {
	frozen := time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { domain.SetClock(nil) })

	b := newTestBuilder()
	rep, err := b.Build(context.Background(), "March Events", DateRange{})
	require.NoError(t, err)

	assert.Equal(t, "March Events", rep.Sheet)
	assert.Equal(t, frozen, rep.GeneratedAt)
	assert.Equal(t, 3, rep.Rows)

	// 3 registrants, 2 attended: attrition (3-2)/3 ≈ 33.33%.
	assert.Equal(t, 2.0, rep.Summary.TotalAttendance)
	assert.Equal(t, 3, rep.Summary.Registrants)
	assert.InDelta(t, 100.0/3, rep.Summary.AttritionRate, 1e-9)

	require.Len(t, rep.Charts, 8)
	byKey := make(map[string]Chart)
	for _, c := range rep.Charts {
		byKey[c.Key] = c
	}

	gender := byKey["gender"]
	wantGender := []domain.CategoryCount{
		{Value: "Female", Count: 2},
		{Value: "Male", Count: 1},
	}
	assert.Empty(t, cmp.Diff(wantGender, gender.Categories))

	age := byKey["age"]
	require.NotEmpty(t, age.Bins)
	total := 0
	for _, bin := range age.Bins {
		total += bin.Count
	}
	assert.Equal(t, 3, total)

	// Only the two geocoded rows appear on the map.
	assert.Len(t, rep.Map.GeoJSON.Features, 2)
	assert.Equal(t, 1.3521, rep.Map.CenterLat)
	assert.Equal(t, 12, rep.Map.Zoom)

	require.Len(t, rep.Table.Rows, 3)
	assert.Equal(t, rep.Columns, rep.Table.Columns)
	assert.Equal(t, "2025-03-10", rep.Table.Rows[0][0])
	assert.Equal(t, "560123", rep.Table.Rows[0][1])
	assert.Equal(t, "1", rep.Table.Rows[0][2])
}

func TestBuilder_Build_DateFilter(t *testing.T) {
	b := newTestBuilder()

	r, err := ParseDateRange("2025-03-10", "2025-03-15")
	require.NoError(t, err)

	rep, err := b.Build(context.Background(), "March Events", r)
	require.NoError(t, err)

	// Boundary-inclusive: rows on the 10th and 15th stay, the 20th drops.
	assert.Equal(t, 2, rep.Rows)
	assert.Equal(t, 2.0, rep.Summary.TotalAttendance)
	assert.Equal(t, 0.0, rep.Summary.AttritionRate)
	assert.Len(t, rep.Table.Rows, 2)
}

func TestBuilder_Build_SheetSwitchReplacesAllCharts(t *testing.T) {
	b := newTestBuilder()

	march, err := b.Build(context.Background(), "March Events", DateRange{})
	require.NoError(t, err)
	april, err := b.Build(context.Background(), "April Events", DateRange{})
	require.NoError(t, err)

	marchByKey := make(map[string]Chart)
	for _, c := range march.Charts {
		marchByKey[c.Key] = c
	}
	aprilByKey := make(map[string]Chart)
	for _, c := range april.Charts {
		aprilByKey[c.Key] = c
	}

	// Every chart that had data on either sheet carries different data
	// after the switch; nothing from the old sheet leaks through.
	for _, key := range []string{"age", "gender", "marketing", "event_rating"} {
		assert.NotEqual(t, marchByKey[key], aprilByKey[key],
			"chart %q should be rebuilt from the new sheet", key)
	}

	// And the new series are sized by the new sheet alone.
	total := 0
	for _, bin := range aprilByKey["age"].Bins {
		total += bin.Count
	}
	assert.Equal(t, 1, total)

	assert.NotEqual(t, march.Summary, april.Summary)
	assert.NotEqual(t, march.Map.GeoJSON, april.Map.GeoJSON)
}

func TestBuilder_Build_UnknownSheet(t *testing.T) {
	b := newTestBuilder()
	_, err := b.Build(context.Background(), "Nope", DateRange{})
	require.Error(t, err)
}

func TestSelectColumns(t *testing.T) {
	tbl := Table{
		Columns: []string{"Event Date", "Postal Code", "Age"},
		Rows: [][]string{
			{"2025-03-10", "560123", "30"},
			{"2025-03-15", "238801", "40"},
		},
	}

	t.Run("subset in table order", func(t *testing.T) {
		got := SelectColumns(tbl, []string{"Age", "Event Date"})
		assert.Equal(t, []string{"Event Date", "Age"}, got.Columns)
		assert.Equal(t, [][]string{{"2025-03-10", "30"}, {"2025-03-15", "40"}}, got.Rows)
	})

	t.Run("empty selection keeps everything", func(t *testing.T) {
		got := SelectColumns(tbl, nil)
		assert.Empty(t, cmp.Diff(tbl, got))
	})

	t.Run("unknown names are ignored", func(t *testing.T) {
		got := SelectColumns(tbl, []string{"Age", "Nope"})
		assert.Equal(t, []string{"Age"}, got.Columns)
	})

	t.Run("only unknown names keeps everything", func(t *testing.T) {
		got := SelectColumns(tbl, []string{"Nope"})
		assert.Empty(t, cmp.Diff(tbl, got))
	})
}
