package domain

import "time"

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Submission is one parsed survey response (one worksheet row).
type Submission struct {
	// Row is the 1-based worksheet row the submission came from,
	// counting the header as row 1.
	Row int `json:"row"`

	// EventDate is the zero time when the cell was empty or malformed.
	EventDate time.Time `json:"event_date"`

	// PostalCode is the normalized six-digit form; RawPostal preserves
	// the original cell value.
	PostalCode string `json:"postal_code"`
	RawPostal  string `json:"raw_postal,omitempty"`

	// Attendance is nil when the cell was empty or unparseable; such a
	// row is not a registrant.
	Attendance *float64 `json:"attendance,omitempty"`

	// Geo is set only when geocoding the postal code succeeded.
	Geo *Geo `json:"geo,omitempty"`

	// Numeric and Category hold per-field answers keyed by schema field
	// key. Missing answers are absent from the maps.
	Numeric  map[string]float64 `json:"numeric,omitempty"`
	Category map[string]string  `json:"category,omitempty"`
}

// HasDate reports whether the submission carries a valid event date.
func (s Submission) HasDate() bool {
	return !s.EventDate.IsZero()
}
