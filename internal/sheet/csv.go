package sheet

import (
	"encoding/csv"
	"errors"
	"io"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

// decodeCSV reads one sheet of text cells. Numeric text is left for the cell
// parser, which treats it the same as a number cell.
func decodeCSV(r io.Reader, name string) (core.Workbook, error) {
	cr := csv.NewReader(NewUTF8Sanitizer(NewBOMSkippingReader(r)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	var grid [][]core.Cell
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return core.Workbook{}, err
		}
		cells := make([]core.Cell, len(rec))
		for i, v := range rec {
			if v != "" {
				cells[i] = core.StringCell(v)
			}
		}
		grid = append(grid, cells)
	}
	return core.Workbook{Sheets: []core.SheetData{buildSheet(name, grid)}}, nil
}
