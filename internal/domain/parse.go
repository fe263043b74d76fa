package domain

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kampungspirit/kampung-insights/internal/schema"
)

// dateLayouts are the display formats observed across survey workbooks.
// Tried in order; first match wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"1/2/06",
	"02-01-2006",
	"2 Jan 2006",
	"2-Jan-06",
	time.RFC3339,
}

// excelEpoch is day zero of the 1900 date system. Serial 1 is 1900-01-01;
// the system also counts the phantom 1900-02-29, which this epoch absorbs.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseRows converts a worksheet (header + data rows) into submissions using
// the schema's column mapping. Rows are never rejected: malformed dates
// coerce to the zero time and unparseable numbers become missing answers.
// Row numbers are 1-based worksheet rows (the header is row 1).
func ParseRows(sch schema.Schema, header []string, rows [][]string) []Submission {
	idx := columnIndex(header)
	dateCol := colOf(idx, sch.DateColumn)
	postalCol := colOf(idx, sch.PostalColumn)
	attendCol := colOf(idx, sch.AttendanceColumn)

	subs := make([]Submission, 0, len(rows))
	for i, row := range rows {
		sub := Submission{
			Row:      i + 2,
			Numeric:  make(map[string]float64),
			Category: make(map[string]string),
		}

		sub.EventDate = ParseDate(cellAt(row, dateCol))

		raw := cellAt(row, postalCol)
		sub.RawPostal = raw
		sub.PostalCode = NormalizePostalCode(raw)

		if v, ok := parseNumber(cellAt(row, attendCol)); ok {
			sub.Attendance = &v
		}

		for _, f := range sch.Fields {
			cell := cellAt(row, colOf(idx, f.Column))
			switch f.Kind {
			case schema.KindNumeric:
				if v, ok := parseNumber(cell); ok {
					sub.Numeric[f.Key] = v
				}
			case schema.KindCategory:
				if cell != "" {
					sub.Category[f.Key] = cell
				}
			}
		}

		subs = append(subs, sub)
	}
	return subs
}

// ParseDate parses a workbook date cell. Unparseable input yields the zero
// time rather than an error; the zero time marks a missing date everywhere
// downstream.
func ParseDate(cell string) time.Time {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t
		}
	}
	// Excel serial date: days since the 1900-system epoch.
	if serial, err := strconv.ParseFloat(cell, 64); err == nil && serial > 0 && serial < 300000 {
		days := math.Floor(serial)
		frac := serial - days
		return excelEpoch.
			AddDate(0, 0, int(days)).
			Add(time.Duration(frac * 24 * float64(time.Hour)))
	}
	return time.Time{}
}

// NormalizePostalCode extracts the digits from a postal code cell and
// left-pads to six. Excel drops leading zeros from numeric cells, so
// "18956" means "018956", and float formatting can add a spurious ".0".
// Inputs with no digits normalize to "".
func NormalizePostalCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseFloat(raw, 64); err == nil && v == math.Trunc(v) && v >= 0 {
		raw = strconv.FormatInt(int64(v), 10)
	}
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	for len(digits) < 6 {
		digits = "0" + digits
	}
	return digits
}

func parseNumber(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// columnIndex maps normalized header names to column positions. Duplicate
// headers keep the first occurrence.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// colOf resolves a schema column name to its position, or -1 when the
// worksheet has no such column. Missing columns surface as missing answers,
// not errors, matching how the dashboard degrades elsewhere.
func colOf(idx map[string]int, column string) int {
	if i, ok := idx[normalizeHeader(column)]; ok {
		return i
	}
	return -1
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
