// Package workbook reads and writes the .xlsx survey workbooks behind the
// dashboard.
package workbook

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound marks a lookup of a worksheet the workbook does not have.
// HTTP handlers translate it to a 404.
var ErrSheetNotFound = errors.New("worksheet not found")

// Sheet is one worksheet's raw content: a header row and the data rows below
// it. Cells hold the workbook's display strings; short rows are padded to
// the header width.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Reader reads worksheets from an .xlsx file. The file is opened per call,
// so edits to the workbook are visible on the next read.
type Reader struct {
	path string
}

// NewReader creates a reader for the workbook at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Path returns the workbook file path.
func (r *Reader) Path() string {
	return r.path
}

// ModTime returns the workbook file's last modification time, used to decide
// whether cached snapshots are still current.
func (r *Reader) ModTime() (time.Time, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat workbook: %w", err)
	}
	return info.ModTime(), nil
}

// SheetNames lists the workbook's worksheets in file order.
func (r *Reader) SheetNames() ([]string, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", r.path, err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}

// ReadSheet reads one worksheet into a Sheet. A worksheet with no rows at
// all is an error; a worksheet with only a header yields zero data rows.
func (r *Reader) ReadSheet(name string) (Sheet, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return Sheet{}, fmt.Errorf("open workbook %s: %w", r.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(name)
	if err != nil {
		var notExist excelize.ErrSheetNotExist
		if errors.As(err, &notExist) {
			return Sheet{}, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
		}
		return Sheet{}, fmt.Errorf("read worksheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return Sheet{}, fmt.Errorf("worksheet %q is empty", name)
	}

	header := rows[0]
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// excelize truncates trailing empty cells; pad so column indexes
		// line up with the header.
		for len(row) < len(header) {
			row = append(row, "")
		}
		data = append(data, row)
	}

	return Sheet{Name: name, Header: header, Rows: data}, nil
}
