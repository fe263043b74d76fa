// Package domain models community event survey submissions.
//
// # Data Source
//
// Submissions originate from an .xlsx survey workbook with one worksheet per
// event series. Every worksheet follows the same schema: a header row, then
// one row per registrant. The workbook is the only source of truth; the
// dashboard re-derives everything from it on load and holds no other state.
//
// # Workbook Conventions
//
// Event dates:
//
//	Cells arrive as display strings. Accepted layouts include "2006-01-02",
//	"02/01/2006", "1/2/06", and "2006-01-02 15:04:05". Cells formatted as
//	raw Excel serial numbers (days since 1899-12-30, fractional part is
//	time of day) are also accepted. Anything else coerces to the zero
//	time, which is the package-wide marker for a missing date. A malformed
//	date is never an error.
//
// Postal codes:
//
//	Singapore postal codes are six digits. Excel stores numeric cells
//	without leading zeros, so "018956" round-trips as "18956". Parsing
//	keeps only digits and left-pads to six. The raw cell value is
//	preserved alongside the normalized form.
//
// Attendance:
//
//	The attendance column holds 1 (attended) or 0 (registered, no-show).
//	A row with any non-missing attendance value counts as one registrant.
//	Attrition rate is (registrants − attendance) / registrants × 100.
//
// Missing values:
//
//	Empty or unparseable numeric cells are simply absent from a
//	submission's answers; they are skipped by averages and histograms
//	rather than treated as zero. Empty categorical cells are absent from
//	category counts.
//
// # Coordinates
//
// Latitude/longitude are attached by geocoding the postal code and are
// present only when the lookup succeeded. A nil Geo means the postal code
// was empty, unknown to the geocoding service, or the lookup failed.
package domain
