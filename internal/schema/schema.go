// Package schema describes how survey workbook columns map onto dashboard
// fields. A built-in default schema matches the Kampung Spirit survey
// workbook; deployments with different column headers supply a YAML file.
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FieldKind classifies how a column's cells are parsed.
type FieldKind string

const (
	KindNumeric  FieldKind = "numeric"
	KindCategory FieldKind = "category"
)

// ChartType selects how a field is visualized on the dashboard.
type ChartType string

const (
	ChartHistogram ChartType = "histogram"
	ChartPie       ChartType = "pie"
)

// Field maps one worksheet column to a dashboard chart and, optionally, an
// entry in the averages row.
type Field struct {
	Key          string    `yaml:"key"`
	Column       string    `yaml:"column"`
	Title        string    `yaml:"title"`
	Kind         FieldKind `yaml:"kind"`
	Chart        ChartType `yaml:"chart"`
	Bins         int       `yaml:"bins,omitempty"`
	Average      bool      `yaml:"average,omitempty"`
	AverageLabel string    `yaml:"average_label,omitempty"`
}

// Schema is the complete column mapping for a survey workbook. Every
// worksheet in the workbook is expected to follow the same schema.
type Schema struct {
	DateColumn       string  `yaml:"date_column"`
	PostalColumn     string  `yaml:"postal_column"`
	AttendanceColumn string  `yaml:"attendance_column"`
	Fields           []Field `yaml:"fields"`
}

// Default returns the schema for the original Kampung Spirit survey
// workbook: eight charts and five averages.
func Default() Schema {
	return Schema{
		DateColumn:       "Event Date",
		PostalColumn:     "Postal Code",
		AttendanceColumn: "Attendance",
		Fields: []Field{
			{
				Key:          "age",
				Column:       "Age",
				Title:        "Age Distribution",
				Kind:         KindNumeric,
				Chart:        ChartHistogram,
				Bins:         10,
				Average:      true,
				AverageLabel: "Avg Age",
			},
			{
				Key:    "gender",
				Column: "Gender",
				Title:  "Gender Distribution",
				Kind:   KindCategory,
				Chart:  ChartPie,
			},
			{
				Key:    "race",
				Column: "Race",
				Title:  "Racial Distribution",
				Kind:   KindCategory,
				Chart:  ChartPie,
			},
			{
				Key:          "neighbours_met",
				Column:       "How many new neighbours met?",
				Title:        "New Neighbours Met",
				Kind:         KindNumeric,
				Chart:        ChartHistogram,
				Bins:         10,
				Average:      true,
				AverageLabel: "Avg Neighbours Met",
			},
			{
				Key:          "neighbour_knowledge",
				Column:       "How much better do you know your neighbours?",
				Title:        "Better Knowledge of Neighbours",
				Kind:         KindNumeric,
				Chart:        ChartHistogram,
				Bins:         5,
				Average:      true,
				AverageLabel: "Avg Knowledge",
			},
			{
				Key:          "event_rating",
				Column:       "Rating of the whole event.",
				Title:        "Event Rating",
				Kind:         KindNumeric,
				Chart:        ChartHistogram,
				Bins:         10,
				Average:      true,
				AverageLabel: "Avg Rating",
			},
			{
				Key:          "net_promoter",
				Column:       "How likely are you to promote this event to your friend?",
				Title:        "Net Promoter Score",
				Kind:         KindNumeric,
				Chart:        ChartHistogram,
				Bins:         10,
				Average:      true,
				AverageLabel: "Net Promoter",
			},
			{
				Key:    "marketing",
				Column: "Marketing",
				Title:  "How did you find out about our event?",
				Kind:   KindCategory,
				Chart:  ChartPie,
			},
		},
	}
}

// LoadFile reads and validates a schema from a YAML file.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("read schema file: %w", err)
	}

	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("parse schema file: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Schema{}, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	return s, nil
}

// Validate checks structural invariants: required columns, unique field keys,
// known kinds and chart types, and sensible histogram settings.
func (s Schema) Validate() error {
	if s.DateColumn == "" {
		return fmt.Errorf("date_column is required")
	}
	if s.PostalColumn == "" {
		return fmt.Errorf("postal_column is required")
	}
	if s.AttendanceColumn == "" {
		return fmt.Errorf("attendance_column is required")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("at least one field is required")
	}

	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.Key == "" {
			return fmt.Errorf("field %d: key is required", i)
		}
		if seen[f.Key] {
			return fmt.Errorf("duplicate field key %q", f.Key)
		}
		seen[f.Key] = true

		if f.Column == "" {
			return fmt.Errorf("field %q: column is required", f.Key)
		}
		switch f.Kind {
		case KindNumeric, KindCategory:
		default:
			return fmt.Errorf("field %q: unknown kind %q", f.Key, f.Kind)
		}
		switch f.Chart {
		case ChartHistogram:
			if f.Kind != KindNumeric {
				return fmt.Errorf("field %q: histogram requires a numeric field", f.Key)
			}
			if f.Bins <= 0 {
				return fmt.Errorf("field %q: histogram requires bins > 0", f.Key)
			}
		case ChartPie:
		default:
			return fmt.Errorf("field %q: unknown chart type %q", f.Key, f.Chart)
		}
		if f.Average && f.Kind != KindNumeric {
			return fmt.Errorf("field %q: average requires a numeric field", f.Key)
		}
	}
	return nil
}

// FieldByKey looks up a field by its key.
func (s Schema) FieldByKey(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Columns returns the worksheet columns in display order: date, postal code,
// attendance, then each field's column.
func (s Schema) Columns() []string {
	cols := make([]string, 0, 3+len(s.Fields))
	cols = append(cols, s.DateColumn, s.PostalColumn, s.AttendanceColumn)
	for _, f := range s.Fields {
		cols = append(cols, f.Column)
	}
	return cols
}
