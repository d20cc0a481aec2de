// Package sheet decodes uploaded spreadsheets into core.Workbook values and
// writes the workbooks the service hands back: validated rows, error reports
// and blank templates.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

// Format is a supported upload format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeCSV  = "text/csv"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type (expected .xlsx or .csv)")
	ErrNoSheets        = errors.New("workbook has no sheets")
)

// DecodeError wraps a failure to read an upload of a known format.
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode spreadsheet (%s): %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DetectFormat picks the format from the file extension, falling back to the
// declared content type.
func DetectFormat(filename, contentType string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}

	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch ct {
	case mimeXLSX:
		return FormatXLSX, nil
	case mimeCSV, "application/csv":
		return FormatCSV, nil
	}
	return "", ErrUnsupportedType
}

// Decode reads a whole upload. Sheets come back in file order; a CSV file is
// one sheet named after the file.
func Decode(r io.Reader, filename, contentType string) (core.Workbook, error) {
	format, err := DetectFormat(filename, contentType)
	if err != nil {
		return core.Workbook{}, err
	}

	var wb core.Workbook
	switch format {
	case FormatXLSX:
		data, rerr := io.ReadAll(r)
		if rerr != nil {
			return core.Workbook{}, fmt.Errorf("read upload: %w", rerr)
		}
		wb, err = decodeXLSX(bytes.NewReader(data))
	case FormatCSV:
		wb, err = decodeCSV(r, csvSheetName(filename))
	}
	if err != nil {
		return core.Workbook{}, &DecodeError{Format: format, Err: err}
	}
	if len(wb.Sheets) == 0 {
		return core.Workbook{}, ErrNoSheets
	}
	return wb, nil
}

func csvSheetName(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "Sheet1"
	}
	return base
}

// buildSheet turns a decoded grid into SheetData. The first row holds the
// headers; every later row that has at least one non-blank cell becomes a
// RawRow keyed by trimmed header. Columns with a blank header are ignored and
// the first of two identical headers wins.
func buildSheet(name string, grid [][]core.Cell) core.SheetData {
	sd := core.SheetData{Name: name, Headers: []string{}, Rows: []core.RawRow{}}
	if len(grid) == 0 {
		return sd
	}

	header := grid[0]
	sd.Headers = make([]string, len(header))
	keys := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, c := range header {
		sd.Headers[i] = c.String()
		k := strings.TrimSpace(c.String())
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys[i] = k
	}

	for _, cells := range grid[1:] {
		if blankRow(cells) {
			continue
		}
		row := make(core.RawRow, len(keys))
		for i, k := range keys {
			if k == "" {
				continue
			}
			if i < len(cells) {
				row[k] = cells[i]
			} else {
				row[k] = core.Cell{}
			}
		}
		sd.Rows = append(sd.Rows, row)
	}
	return sd
}

func blankRow(cells []core.Cell) bool {
	for _, c := range cells {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}
