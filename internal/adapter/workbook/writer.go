package workbook

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/kampungspirit/kampung-insights/internal/domain"
)

// WriteTable writes a single-worksheet workbook with the given header and
// rows to w. Used by the dashboard's filtered export download.
func WriteTable(w io.Writer, sheetName string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("name worksheet: %w", err)
	}

	if err := setStringRow(f, sheetName, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setStringRow(f, sheetName, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteEnriched saves a copy of a worksheet with Latitude and Longitude
// columns appended from the geocoded submissions. subs must be row-aligned
// with sheet.Rows. Used by the enrich command.
func WriteEnriched(path string, sheet Sheet, subs []domain.Submission) error {
	if len(subs) != len(sheet.Rows) {
		return fmt.Errorf("row count mismatch: %d rows, %d submissions", len(sheet.Rows), len(subs))
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
		return fmt.Errorf("name worksheet: %w", err)
	}

	header := append(append([]string{}, sheet.Header...), "Latitude", "Longitude")
	if err := setStringRow(f, sheet.Name, 1, header); err != nil {
		return err
	}

	for i, row := range sheet.Rows {
		lat, lon := "", ""
		if geo := subs[i].Geo; geo != nil {
			lat = strconv.FormatFloat(geo.Lat, 'f', -1, 64)
			lon = strconv.FormatFloat(geo.Lon, 'f', -1, 64)
		}
		out := append(append([]string{}, row...), lat, lon)
		if err := setStringRow(f, sheet.Name, i+2, out); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func setStringRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("row %d: %w", rowNum, err)
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}
