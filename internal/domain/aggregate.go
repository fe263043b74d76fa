package domain

import (
	"sort"
	"strconv"
	"time"

	"github.com/kampungspirit/kampung-insights/internal/schema"
)

// Summary holds the headline statistics for a set of submissions.
type Summary struct {
	TotalAttendance float64        `json:"total_attendance"`
	Registrants     int            `json:"registrants"`
	AttritionRate   float64        `json:"attrition_rate"`
	Averages        []FieldAverage `json:"averages"`
}

// FieldAverage is one entry in the averages row. Count is the number of
// non-missing values that went into the mean; a zero Count means the value
// is undefined and renders as a dash.
type FieldAverage struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// HistogramBin is one equal-width bin. To is exclusive except for the last
// bin, which includes the observed maximum.
type HistogramBin struct {
	Label string  `json:"label"`
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

// CategoryCount is one slice of a pie chart.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FilterByDateRange returns the submissions whose event date falls inside
// [start, end], inclusive on both boundaries. A zero start and end means no
// filter and returns the input unchanged. While a range is active, rows
// without a valid date are excluded.
func FilterByDateRange(subs []Submission, start, end time.Time) []Submission {
	if start.IsZero() && end.IsZero() {
		return subs
	}
	out := make([]Submission, 0, len(subs))
	for _, s := range subs {
		if !s.HasDate() {
			continue
		}
		if s.EventDate.Before(start) || s.EventDate.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Summarize computes attendance totals, the attrition rate, and the per-field
// averages over the given submissions. Missing answers are skipped, not
// counted as zero.
func Summarize(sch schema.Schema, subs []Submission) Summary {
	sum := Summary{}
	for _, s := range subs {
		if s.Attendance == nil {
			continue
		}
		sum.Registrants++
		sum.TotalAttendance += *s.Attendance
	}
	if sum.Registrants > 0 {
		sum.AttritionRate = (float64(sum.Registrants) - sum.TotalAttendance) / float64(sum.Registrants) * 100
	}

	for _, f := range sch.Fields {
		if !f.Average {
			continue
		}
		avg := FieldAverage{Key: f.Key, Label: f.AverageLabel}
		var total float64
		for _, s := range subs {
			if v, ok := s.Numeric[f.Key]; ok {
				total += v
				avg.Count++
			}
		}
		if avg.Count > 0 {
			avg.Value = total / float64(avg.Count)
		}
		sum.Averages = append(sum.Averages, avg)
	}
	return sum
}

// HistogramOf bins the non-missing values of a numeric field into bins
// equal-width intervals between the observed minimum and maximum. When every
// value is identical the result collapses to a single bin. No values yields
// nil.
func HistogramOf(subs []Submission, key string, bins int) []HistogramBin {
	var values []float64
	for _, s := range subs {
		if v, ok := s.Numeric[key]; ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 || bins <= 0 {
		return nil
	}

	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	if minV == maxV {
		return []HistogramBin{{
			Label: formatBound(minV),
			From:  minV,
			To:    maxV,
			Count: len(values),
		}}
	}

	width := (maxV - minV) / float64(bins)
	out := make([]HistogramBin, bins)
	for i := range out {
		from := minV + float64(i)*width
		to := from + width
		if i == bins-1 {
			to = maxV
		}
		out[i] = HistogramBin{
			Label: formatBound(from) + "–" + formatBound(to),
			From:  from,
			To:    to,
		}
	}
	for _, v := range values {
		i := int((v - minV) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

// CountByCategory tallies the non-empty values of a categorical field,
// ordered by descending count with alphabetical tie-breaks.
func CountByCategory(subs []Submission, key string) []CategoryCount {
	counts := make(map[string]int)
	for _, s := range subs {
		if v, ok := s.Category[key]; ok {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	out := make([]CategoryCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, CategoryCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// formatBound renders a bin boundary with at most one decimal place,
// dropping the fraction entirely for whole numbers.
func formatBound(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
