package core

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
)

var standardHeaders = []string{ColumnName, ColumnDate, ColumnAmount}

func TestValidateSheet_EndToEnd(t *testing.T) {
	rows := []RawRow{
		row("Alice", "01-03-2024", NumberCell(100)),
		row("", "01-03-2024", NumberCell(50)),
		row("Bob", "40-13-2024", NumberCell(-5)),
	}

	out := ValidateSheet("Sheet1", standardHeaders, rows, march2024)

	if len(out.SheetErrors) != 0 {
		t.Fatalf("SheetErrors = %v, want none", out.SheetErrors)
	}
	if len(out.ValidRows) != 1 || out.ValidRows[0].Name != "Alice" || out.ValidRows[0].RowNumber != 2 {
		t.Fatalf("ValidRows = %+v, want [Alice row 2]", out.ValidRows)
	}
	if len(out.InvalidRows) != 2 {
		t.Fatalf("len(InvalidRows) = %d, want 2", len(out.InvalidRows))
	}

	empty := out.InvalidRows[0]
	if empty.RowNumber != 3 || !reflect.DeepEqual(empty.Errors, []string{MsgEmptyName}) {
		t.Errorf("InvalidRows[0] = row %d %q, want row 3 [%s]", empty.RowNumber, empty.Errors, MsgEmptyName)
	}

	bob := out.InvalidRows[1]
	if bob.RowNumber != 4 || !reflect.DeepEqual(bob.Errors, []string{MsgAmountNotPos, MsgDateFormat}) {
		t.Errorf("InvalidRows[1] = row %d %q, want row 4 amount+date", bob.RowNumber, bob.Errors)
	}
}

func TestValidateSheet_MonthFilter(t *testing.T) {
	rows := []RawRow{
		row("A", "01-03-2024", NumberCell(1)),
		row("B", "01-04-2024", NumberCell(1)),
		row("C", "99-99-2024", NumberCell(1)),
	}
	out := ValidateSheet("S", standardHeaders, rows, march2024)

	if len(out.ValidRows) != 1 || out.ValidRows[0].Name != "A" {
		t.Fatalf("ValidRows = %+v, want only A", out.ValidRows)
	}
	if got := out.InvalidRows[0].Errors; !reflect.DeepEqual(got, []string{MsgDateOutOfMonth}) {
		t.Errorf("B errors = %q, want [%s]", got, MsgDateOutOfMonth)
	}
	if got := out.InvalidRows[1].Errors; !reflect.DeepEqual(got, []string{MsgDateFormat}) {
		t.Errorf("C errors = %q, want [%s]", got, MsgDateFormat)
	}
}

func TestValidateSheet_Preconditions(t *testing.T) {
	someRows := []RawRow{row("A", "01-03-2024", NumberCell(1))}

	tests := []struct {
		name    string
		headers []string
		rows    []RawRow
		want    SheetError
	}{
		{"no headers", nil, someRows, SheetError{Row: 1, Error: MsgNoHeaders}},
		{"blank headers", []string{"", "  "}, someRows, SheetError{Row: 1, Error: MsgNoHeaders}},
		{"missing amount", []string{ColumnName, ColumnDate}, someRows, SheetError{Row: 1, Error: "Missing required columns: Amount"}},
		{"missing two", []string{ColumnAmount, "Notes"}, someRows, SheetError{Row: 1, Error: "Missing required columns: Name, Date"}},
		{"case sensitive", []string{"name", "date", "amount"}, someRows, SheetError{Row: 1, Error: "Missing required columns: Name, Date, Amount"}},
		{"no data rows", standardHeaders, nil, SheetError{Row: 2, Error: MsgNoDataRows}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ValidateSheet("S", tt.headers, tt.rows, march2024)
			if !reflect.DeepEqual(out.SheetErrors, []SheetError{tt.want}) {
				t.Errorf("SheetErrors = %+v, want [%+v]", out.SheetErrors, tt.want)
			}
			if len(out.ValidRows) != 0 || len(out.InvalidRows) != 0 {
				t.Errorf("rows should be empty, got %d valid %d invalid", len(out.ValidRows), len(out.InvalidRows))
			}
		})
	}
}

func TestValidateSheet_TrimmedHeadersAndExtraColumns(t *testing.T) {
	headers := []string{" Name ", "Date", "Amount", "Notes"}
	out := ValidateSheet("S", headers, []RawRow{row("A", "01-03-2024", NumberCell(1))}, march2024)
	if len(out.SheetErrors) != 0 {
		t.Errorf("SheetErrors = %v, want none", out.SheetErrors)
	}
}

func TestValidateSheet_RowNumbersUnique(t *testing.T) {
	rows := make([]RawRow, 50)
	for i := range rows {
		if i%3 == 0 {
			rows[i] = row("", "01-03-2024", NumberCell(1))
		} else {
			rows[i] = row("X", "01-03-2024", NumberCell(1))
		}
	}
	out := ValidateSheet("S", standardHeaders, rows, march2024)

	seen := make(map[int]bool)
	for _, r := range out.ValidRows {
		seen[r.RowNumber] = true
	}
	for _, r := range out.InvalidRows {
		if seen[r.RowNumber] {
			t.Fatalf("row number %d appears twice", r.RowNumber)
		}
		seen[r.RowNumber] = true
	}
	for n := 2; n < 52; n++ {
		if !seen[n] {
			t.Errorf("row number %d missing", n)
		}
	}
}

func TestValidateSheet_Idempotent(t *testing.T) {
	rows := []RawRow{
		row("Alice", "01-03-2024", NumberCell(100)),
		row("", "bad", StringCell("x")),
		{ColumnName: StringCell("Carol"), ColumnDate: NumberCell(45360), ColumnAmount: StringCell("7"), ColumnVerified: StringCell("Yes")},
	}

	a, err := json.Marshal(ValidateSheet("S", standardHeaders, rows, march2024))
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(ValidateSheet("S", standardHeaders, rows, march2024))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("outcomes differ:\n%s\n%s", a, b)
	}
}

func TestValidateWorkbook_SheetsIndependent(t *testing.T) {
	wb := Workbook{Sheets: []SheetData{
		{Name: "Broken", Headers: []string{ColumnName}, Rows: []RawRow{row("A", "01-03-2024", NumberCell(1))}},
		{Name: "Good", Headers: standardHeaders, Rows: []RawRow{row("B", "02-03-2024", NumberCell(2))}},
	}}

	outs := ValidateWorkbook(wb, march2024)
	if len(outs) != 2 {
		t.Fatalf("len(outcomes) = %d, want 2", len(outs))
	}
	if outs[0].SheetName != "Broken" || len(outs[0].SheetErrors) != 1 {
		t.Errorf("Broken outcome = %+v", outs[0])
	}
	if outs[1].SheetName != "Good" || len(outs[1].SheetErrors) != 0 || len(outs[1].ValidRows) != 1 {
		t.Errorf("Good outcome = %+v", outs[1])
	}
	if got := wb.SheetNames(); !reflect.DeepEqual(got, []string{"Broken", "Good"}) {
		t.Errorf("SheetNames = %v", got)
	}
}

func TestMissingColumns(t *testing.T) {
	if got := MissingColumns(standardHeaders); len(got) != 0 {
		t.Errorf("MissingColumns(all) = %v, want none", got)
	}
	if got := MissingColumns([]string{"Date"}); !reflect.DeepEqual(got, []string{"Name", "Amount"}) {
		t.Errorf("MissingColumns = %v, want [Name Amount]", got)
	}
}

func TestSheetOutcome_CloneIsDeep(t *testing.T) {
	out := ValidateSheet("S", standardHeaders, []RawRow{
		row("A", "01-03-2024", NumberCell(1)),
		row("", "01-03-2024", NumberCell(1)),
	}, march2024)

	c := out.Clone()
	c.ValidRows[0].Name = "changed"
	c.InvalidRows[0].Errors[0] = "changed"
	c.InvalidRows[0].Raw[ColumnName] = "changed"
	*c.InvalidRows[0].Amount = 99

	if out.ValidRows[0].Name != "A" {
		t.Error("ValidRows shared with clone")
	}
	if out.InvalidRows[0].Errors[0] != MsgEmptyName {
		t.Error("Errors shared with clone")
	}
	if out.InvalidRows[0].Raw[ColumnName] != "" {
		t.Error("Raw shared with clone")
	}
	if *out.InvalidRows[0].Amount != 1 {
		t.Error("Amount pointer shared with clone")
	}
}

func TestSheetOutcome_RemoveRow(t *testing.T) {
	out := ValidateSheet("S", standardHeaders, []RawRow{
		row("A", "01-03-2024", NumberCell(1)),
		row("", "01-03-2024", NumberCell(1)),
		row("C", "01-03-2024", NumberCell(1)),
	}, march2024)

	if !out.RemoveRow(3) {
		t.Fatal("RemoveRow(3) = false")
	}
	if len(out.InvalidRows) != 0 {
		t.Errorf("invalid row still present")
	}
	if !out.RemoveRow(4) || len(out.ValidRows) != 1 || out.ValidRows[0].RowNumber != 2 {
		t.Errorf("RemoveRow(4) left %+v", out.ValidRows)
	}
	if out.RemoveRow(99) {
		t.Error("RemoveRow(99) = true")
	}
}
