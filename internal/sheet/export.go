package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

// Sheet names of the generated workbooks.
const (
	ValidatedSheetName = "Validated Data"
	ErrorsSheetName    = "Import Errors"
	TemplateSheetName  = "Sheet1"
)

var validatedHeaders = []string{core.ColumnName, core.ColumnDate, core.ColumnAmount, core.ColumnVerified}

// WriteValidated writes the valid rows of a sheet as an .xlsx workbook with
// a single "Validated Data" sheet. Dates are written as DD-MM-YYYY text.
func WriteValidated(w io.Writer, rows []core.ValidatedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ValidatedSheetName); err != nil {
		return err
	}
	if err := writeHeader(f, ValidatedSheetName, validatedHeaders, "#E6F0FF"); err != nil {
		return err
	}

	for i, r := range rows {
		verified := "No"
		if r.Verified {
			verified = "Yes"
		}
		if err := setRow(f, ValidatedSheetName, i+2, []any{r.Name, core.FormatDate(r.Date), r.Amount, verified}); err != nil {
			return err
		}
	}

	f.SetColWidth(ValidatedSheetName, "A", "A", 30)
	f.SetColWidth(ValidatedSheetName, "B", "C", 14)
	f.SetColWidth(ValidatedSheetName, "D", "D", 10)

	return f.Write(w)
}

// WriteErrorReport writes one line per rejected row and reason, followed by
// a short summary, on an "Import Errors" sheet.
func WriteErrorReport(w io.Writer, outcome core.SheetOutcome) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := ErrorsSheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	headers := []string{"Row Number", "Name", "Error Message", "Date", "Amount"}
	if err := writeHeader(f, sheet, headers, "#FFE6E6"); err != nil {
		return err
	}

	errStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFFFCC"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	line := 2
	for _, se := range outcome.SheetErrors {
		if err := setRow(f, sheet, line, []any{se.Row, "", se.Error, "", ""}); err != nil {
			return err
		}
		line++
	}
	for _, r := range outcome.InvalidRows {
		for _, msg := range r.Errors {
			values := []any{r.RowNumber, r.Raw[core.ColumnName], msg, r.Raw[core.ColumnDate], r.Raw[core.ColumnAmount]}
			if err := setRow(f, sheet, line, values); err != nil {
				return err
			}
			f.SetCellStyle(sheet, fmt.Sprintf("A%d", line), fmt.Sprintf("E%d", line), errStyle)
			line++
		}
	}

	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "B", "B", 25)
	f.SetColWidth(sheet, "C", "C", 45)
	f.SetColWidth(sheet, "D", "E", 15)

	total := len(outcome.ValidRows) + len(outcome.InvalidRows)
	summary := line + 1
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summary), "Import Summary")
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summary+1), "Sheet:")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summary+1), outcome.SheetName)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summary+2), "Rows Checked:")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summary+2), total)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summary+3), "Valid Rows:")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summary+3), len(outcome.ValidRows))
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summary+4), "Rejected Rows:")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summary+4), len(outcome.InvalidRows))

	return f.Write(w)
}

// WriteTemplate writes an empty workbook carrying only the expected header
// row and one example row.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeHeader(f, TemplateSheetName, validatedHeaders, "#E6F0FF"); err != nil {
		return err
	}
	if err := setRow(f, TemplateSheetName, 2, []any{"Jane Doe", "01-01-2025", 125.5, "yes"}); err != nil {
		return err
	}
	f.SetColWidth(TemplateSheetName, "A", "A", 30)
	f.SetColWidth(TemplateSheetName, "B", "D", 14)
	return f.Write(w)
}

func writeHeader(f *excelize.File, sheet string, headers []string, fill string) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := setRow(f, sheet, 1, values); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, start, &values)
}
