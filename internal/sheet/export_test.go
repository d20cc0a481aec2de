package sheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

func openBuffer(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteValidated(t *testing.T) {
	rows := []core.ValidatedRecord{
		{Name: "Alice", Amount: 100, Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), RowNumber: 2, Verified: true},
		{Name: "Bob", Amount: 12.5, Date: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), RowNumber: 4},
	}
	var buf bytes.Buffer
	if err := WriteValidated(&buf, rows); err != nil {
		t.Fatalf("WriteValidated: %v", err)
	}

	f := openBuffer(t, &buf)
	if got := f.GetSheetList(); len(got) != 1 || got[0] != ValidatedSheetName {
		t.Fatalf("sheets = %v", got)
	}
	got, err := f.GetRows(ValidatedSheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	want := [][]string{
		{"Name", "Date", "Amount", "Verified"},
		{"Alice", "05-03-2024", "100", "Yes"},
		{"Bob", "31-03-2024", "12.5", "No"},
	}
	if len(got) != len(want) {
		t.Fatalf("rows = %v", got)
	}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("cell [%d][%d] = %q, want %q", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestWriteValidated_ReimportsClean(t *testing.T) {
	rows := []core.ValidatedRecord{
		{Name: "Zoë", Amount: 3, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Verified: true},
	}
	var buf bytes.Buffer
	if err := WriteValidated(&buf, rows); err != nil {
		t.Fatalf("WriteValidated: %v", err)
	}

	wb, err := Decode(&buf, "export.xlsx", "")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sd := wb.Sheets[0]
	outcome := core.ValidateSheet(sd.Name, sd.Headers, sd.Rows, march2024)
	if len(outcome.ValidRows) != 1 {
		t.Fatalf("re-import: valid %+v invalid %+v", outcome.ValidRows, outcome.InvalidRows)
	}
	if r := outcome.ValidRows[0]; r.Name != "Zoë" || r.Amount != 3 || !r.Verified {
		t.Errorf("re-imported row = %+v", r)
	}
}

func TestWriteErrorReport(t *testing.T) {
	amount := -5.0
	outcome := core.SheetOutcome{
		SheetName: "March",
		ValidRows: []core.ValidatedRecord{{Name: "ok"}},
		InvalidRows: []core.RejectedRecord{{
			Name:      "Bob",
			Amount:    &amount,
			RowNumber: 3,
			Raw:       map[string]string{"Name": "Bob", "Date": "40-13-2024", "Amount": "-5"},
			Errors:    []string{core.MsgAmountNotPos, core.MsgDateFormat},
		}},
	}
	var buf bytes.Buffer
	if err := WriteErrorReport(&buf, outcome); err != nil {
		t.Fatalf("WriteErrorReport: %v", err)
	}

	f := openBuffer(t, &buf)
	rows, err := f.GetRows(ErrorsSheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if rows[0][0] != "Row Number" || rows[0][2] != "Error Message" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "3" || rows[1][2] != core.MsgAmountNotPos || rows[2][2] != core.MsgDateFormat {
		t.Errorf("error lines = %v / %v", rows[1], rows[2])
	}
	if rows[2][3] != "40-13-2024" {
		t.Errorf("raw date = %q", rows[2][3])
	}

	summary, _ := f.GetCellValue(ErrorsSheetName, "B9")
	if summary != "1" {
		t.Errorf("rejected count = %q, want 1", summary)
	}
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTemplate(&buf); err != nil {
		t.Fatalf("WriteTemplate: %v", err)
	}
	wb, err := Decode(&buf, "template.xlsx", "")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if missing := core.MissingColumns(wb.Sheets[0].Headers); len(missing) != 0 {
		t.Errorf("template missing columns %v", missing)
	}
	if len(wb.Sheets[0].Rows) != 1 {
		t.Errorf("template rows = %d, want 1", len(wb.Sheets[0].Rows))
	}
}
