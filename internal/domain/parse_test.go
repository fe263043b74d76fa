package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kampungspirit/kampung-insights/internal/schema"
)

var testHeader = []string{
	"Event Date", "Postal Code", "Attendance",
	"Age", "Gender", "Race",
	"How many new neighbours met?",
	"How much better do you know your neighbours?",
	"Rating of the whole event.",
	"How likely are you to promote this event to your friend?",
	"Marketing",
}

func TestParseRows(t *testing.T) {
	sch := schema.Default()

	t.Run("complete row", func(t *testing.T) {
		rows := [][]string{
			{"2025-03-15", "560123", "1", "34", "Female", "Chinese", "3", "4", "5", "9", "Instagram"},
		}
		subs := ParseRows(sch, testHeader, rows)
		require.Len(t, subs, 1)

		s := subs[0]
		assert.Equal(t, 2, s.Row)
		assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), s.EventDate)
		assert.Equal(t, "560123", s.PostalCode)
		require.NotNil(t, s.Attendance)
		assert.Equal(t, 1.0, *s.Attendance)
		assert.Equal(t, 34.0, s.Numeric["age"])
		assert.Equal(t, 3.0, s.Numeric["neighbours_met"])
		assert.Equal(t, 5.0, s.Numeric["event_rating"])
		assert.Equal(t, "Female", s.Category["gender"])
		assert.Equal(t, "Instagram", s.Category["marketing"])
		assert.Nil(t, s.Geo)
	})

	t.Run("malformed date coerces to zero time", func(t *testing.T) {
		rows := [][]string{
			{"soon", "560123", "1", "34", "Female", "Chinese", "3", "4", "5", "9", "Instagram"},
		}
		subs := ParseRows(sch, testHeader, rows)
		require.Len(t, subs, 1)
		assert.False(t, subs[0].HasDate())
	})

	t.Run("postal code regains dropped leading zero", func(t *testing.T) {
		rows := [][]string{
			{"2025-03-15", "18956", "1", "", "", "", "", "", "", "", ""},
		}
		subs := ParseRows(sch, testHeader, rows)
		assert.Equal(t, "018956", subs[0].PostalCode)
		assert.Equal(t, "18956", subs[0].RawPostal)
	})

	t.Run("missing attendance means not a registrant", func(t *testing.T) {
		rows := [][]string{
			{"2025-03-15", "560123", "", "34", "", "", "", "", "", "", ""},
			{"2025-03-15", "560123", "n/a", "34", "", "", "", "", "", "", ""},
		}
		subs := ParseRows(sch, testHeader, rows)
		assert.Nil(t, subs[0].Attendance)
		assert.Nil(t, subs[1].Attendance)
	})

	t.Run("unparseable numeric answer is absent not zero", func(t *testing.T) {
		rows := [][]string{
			{"2025-03-15", "560123", "1", "thirty", "Female", "", "", "", "", "", ""},
		}
		subs := ParseRows(sch, testHeader, rows)
		_, ok := subs[0].Numeric["age"]
		assert.False(t, ok)
	})

	t.Run("short row pads with missing cells", func(t *testing.T) {
		rows := [][]string{
			{"2025-03-15", "560123"},
		}
		subs := ParseRows(sch, testHeader, rows)
		require.Len(t, subs, 1)
		assert.Nil(t, subs[0].Attendance)
		assert.Empty(t, subs[0].Numeric)
		assert.Empty(t, subs[0].Category)
	})

	t.Run("missing schema column yields missing answers", func(t *testing.T) {
		header := []string{"Event Date", "Postal Code", "Attendance"}
		rows := [][]string{{"2025-03-15", "560123", "1"}}
		subs := ParseRows(schema.Default(), header, rows)
		require.Len(t, subs, 1)
		assert.Empty(t, subs[0].Numeric)
		assert.Empty(t, subs[0].Category)
	})

	t.Run("row numbers start below the header", func(t *testing.T) {
		rows := [][]string{
			{"2025-03-15", "560123", "1"},
			{"2025-03-16", "560124", "0"},
		}
		subs := ParseRows(sch, testHeader, rows)
		assert.Equal(t, 2, subs[0].Row)
		assert.Equal(t, 3, subs[1].Row)
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want time.Time
	}{
		{"iso", "2025-03-15", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"iso with time", "2025-03-15 18:30:00", time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)},
		{"day first slash", "15/03/2025", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"short year", "3/15/25", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"excel serial", "45731", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"excel serial with time", "45731.5", time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)},
		{"whitespace only", "   ", time.Time{}},
		{"empty", "", time.Time{}},
		{"garbage", "next tuesday", time.Time{}},
		{"implausible serial", "99999999", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDate(tt.cell))
		})
	}
}

func TestNormalizePostalCode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"six digits", "560123", "560123"},
		{"dropped leading zero", "18956", "018956"},
		{"float formatting", "560123.0", "560123"},
		{"embedded text", "S 560123", "560123"},
		{"no digits", "unknown", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePostalCode(tt.raw))
		})
	}
}
