package sheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

func decodeXLSX(r io.Reader) (core.Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return core.Workbook{}, err
	}
	defer f.Close()

	var wb core.Workbook
	for _, name := range f.GetSheetList() {
		grid, err := readGrid(f, name)
		if err != nil {
			return core.Workbook{}, fmt.Errorf("sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, buildSheet(name, grid))
	}
	return wb, nil
}

// readGrid reads a sheet with raw (unformatted) values so dates arrive as
// serial numbers, then types each cell from its stored cell type.
func readGrid(f *excelize.File, sheet string) ([][]core.Cell, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	grid := make([][]core.Cell, len(rows))
	for r, row := range rows {
		cells := make([]core.Cell, len(row))
		for c, raw := range row {
			if raw == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, axis)
			if err != nil {
				return nil, err
			}
			cells[c] = typedCell(typ, raw)
		}
		grid[r] = cells
	}
	return grid, nil
}

func typedCell(typ excelize.CellType, raw string) core.Cell {
	switch typ {
	case excelize.CellTypeBool:
		return core.BoolCell(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return core.StringCell(raw)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return core.NumberCell(f)
	}
	return core.StringCell(raw)
}
