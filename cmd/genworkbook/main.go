// Command genworkbook writes a small demo survey workbook for local
// development, with plausible rows for every column the default schema
// expects. The output is deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/genworkbook -out KS.xlsx -rows 40
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kampungspirit/kampung-insights/internal/schema"
)

var (
	genders  = []string{"Female", "Male", "Non-binary"}
	races    = []string{"Chinese", "Malay", "Indian", "Others"}
	channels = []string{"Instagram", "Facebook", "Word of mouth", "Community Centre poster", "Flyer"}

	// Real residential postal districts so OneMap lookups succeed, plus a
	// deliberate dud to exercise the missing-coordinates path.
	postals = []string{"560123", "310158", "520201", "640638", "730901", "018956", "238801", "999999"}
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "KS.xlsx", "output workbook path")
	rows := flag.Int("rows", 40, "rows per worksheet")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	sch := schema.Default()

	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name  string
		base  time.Time
		weeks int
	}{
		{"Block Party 2025", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), 4},
		{"Makan Sessions", time.Date(2025, time.April, 5, 0, 0, 0, 0, time.UTC), 6},
	}

	if err := f.SetSheetName("Sheet1", sheets[0].name); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheets[1].name); err != nil {
		return err
	}

	for _, sheet := range sheets {
		if err := writeSheet(f, rng, sch, sheet.name, sheet.base, sheet.weeks, *rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(*out); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	fmt.Printf("wrote %s: %d worksheets, %d rows each\n", *out, len(sheets), *rows)
	return nil
}

func writeSheet(f *excelize.File, rng *rand.Rand, sch schema.Schema, name string, base time.Time, weeks, rows int) error {
	header := make([]any, 0, len(sch.Columns()))
	for _, c := range sch.Columns() {
		header = append(header, c)
	}
	if err := setRow(f, name, 1, header); err != nil {
		return err
	}

	for i := 0; i < rows; i++ {
		eventDate := base.AddDate(0, 0, 7*rng.Intn(weeks))
		attendance := 1
		if rng.Float64() < 0.2 {
			attendance = 0
		}

		row := []any{
			eventDate.Format("2006-01-02"),
			postals[rng.Intn(len(postals))],
			attendance,
			18 + rng.Intn(60),               // Age
			genders[rng.Intn(len(genders))], // Gender
			races[rng.Intn(len(races))],     // Race
			rng.Intn(10),                    // neighbours met
			1 + rng.Intn(5),                 // neighbour knowledge
			1 + rng.Intn(10),                // event rating
			1 + rng.Intn(10),                // net promoter
			channels[rng.Intn(len(channels))],
		}

		// Sprinkle in survey dropouts: a few rows skip the optional answers.
		if rng.Float64() < 0.1 {
			for j := 3; j < len(row); j++ {
				row[j] = ""
			}
		}

		if err := setRow(f, name, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
