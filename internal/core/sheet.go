package core

import (
	"strings"
)

// Sheet-level messages.
const (
	MsgNoHeaders  = "Sheet is empty or missing headers"
	MsgNoDataRows = "Sheet has no data rows"
)

// MissingColumns returns the required columns absent from headers, in
// RequiredColumns order. Header cells are trimmed; matching is case-sensitive.
func MissingColumns(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// CheckSheet enforces the preconditions that must hold before any row is
// validated.
func CheckSheet(name string, headers []string, rowCount int) *SheetPreconditionError {
	if !hasHeaders(headers) {
		return &SheetPreconditionError{Sheet: name, Row: 1, Message: MsgNoHeaders}
	}
	if missing := MissingColumns(headers); len(missing) > 0 {
		return &SheetPreconditionError{
			Sheet:   name,
			Row:     1,
			Message: "Missing required columns: " + strings.Join(missing, ", "),
		}
	}
	if rowCount == 0 {
		return &SheetPreconditionError{Sheet: name, Row: 2, Message: MsgNoDataRows}
	}
	return nil
}

func hasHeaders(headers []string) bool {
	for _, h := range headers {
		if strings.TrimSpace(h) != "" {
			return true
		}
	}
	return false
}

// ValidateSheet validates every row of one sheet. The first data row is row 2.
func ValidateSheet(name string, headers []string, rows []RawRow, period Period) SheetOutcome {
	out := SheetOutcome{
		SheetName:   name,
		ValidRows:   []ValidatedRecord{},
		InvalidRows: []RejectedRecord{},
		SheetErrors: []SheetError{},
	}

	if perr := CheckSheet(name, headers, len(rows)); perr != nil {
		out.SheetErrors = append(out.SheetErrors, perr.SheetError())
		return out
	}

	for i, row := range rows {
		res := ValidateRow(row, i+2, period)
		if res.Valid() {
			out.ValidRows = append(out.ValidRows, res.Record)
		} else {
			out.InvalidRows = append(out.InvalidRows, *res.Rejected)
		}
	}
	return out
}

// ValidateWorkbook validates each sheet independently, in workbook order.
func ValidateWorkbook(wb Workbook, period Period) []SheetOutcome {
	outcomes := make([]SheetOutcome, 0, len(wb.Sheets))
	for _, sh := range wb.Sheets {
		outcomes = append(outcomes, ValidateSheet(sh.Name, sh.Headers, sh.Rows, period))
	}
	return outcomes
}
