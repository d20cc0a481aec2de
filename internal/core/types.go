package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CellKind identifies the dynamic type of a raw spreadsheet cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
	CellBool
)

// Cell is one raw value as produced by a spreadsheet decoder.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Bool bool
}

func StringCell(s string) Cell  { return Cell{Kind: CellString, Str: s} }
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }
func BoolCell(b bool) Cell      { return Cell{Kind: CellBool, Bool: b} }

// IsEmpty reports whether the cell has no value or only whitespace.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellString:
		return strings.TrimSpace(c.Str) == ""
	default:
		return false
	}
}

// String renders the cell for display.
func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellBool:
		if c.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// RawRow maps a column header to its cell. Never mutated by the engine.
type RawRow map[string]Cell

// Period is the reference calendar month that imported dates must fall in.
type Period struct {
	Month time.Month
	Year  int
}

// PeriodOf returns the calendar month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: t.Month(), Year: t.Year()}
}

func (p Period) Contains(d time.Time) bool {
	return d.Month() == p.Month && d.Year() == p.Year
}

func (p Period) String() string {
	return strconv.Itoa(p.Year) + "-" + twoDigits(int(p.Month))
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// ValidatedRecord is a row that passed every rule.
type ValidatedRecord struct {
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	RowNumber int       `json:"rowNumber"`
	Verified  bool      `json:"verified"`
}

// RejectedRecord keeps whatever parsed plus the raw display values.
// Errors is never empty.
type RejectedRecord struct {
	Name      string            `json:"name"`
	Amount    *float64          `json:"amount,omitempty"`
	Date      *time.Time        `json:"date,omitempty"`
	RowNumber int               `json:"rowNumber"`
	Verified  bool              `json:"verified"`
	Raw       map[string]string `json:"raw"`
	Errors    []string          `json:"errors"`
}

// SheetError is a pass-wide failure of one sheet.
type SheetError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// SheetOutcome is the validation result of one sheet. When SheetErrors is
// non-empty both row lists are empty.
type SheetOutcome struct {
	SheetName   string            `json:"sheetName"`
	ValidRows   []ValidatedRecord `json:"validRows"`
	InvalidRows []RejectedRecord  `json:"invalidRows"`
	SheetErrors []SheetError      `json:"sheetErrors"`
}

// Clone returns a deep copy of the outcome.
func (o SheetOutcome) Clone() SheetOutcome {
	out := SheetOutcome{
		SheetName:   o.SheetName,
		ValidRows:   append([]ValidatedRecord{}, o.ValidRows...),
		InvalidRows: make([]RejectedRecord, len(o.InvalidRows)),
		SheetErrors: append([]SheetError{}, o.SheetErrors...),
	}
	for i, r := range o.InvalidRows {
		out.InvalidRows[i] = r.clone()
	}
	return out
}

func (r RejectedRecord) clone() RejectedRecord {
	c := r
	if r.Amount != nil {
		v := *r.Amount
		c.Amount = &v
	}
	if r.Date != nil {
		v := *r.Date
		c.Date = &v
	}
	if r.Raw != nil {
		c.Raw = make(map[string]string, len(r.Raw))
		for k, v := range r.Raw {
			c.Raw[k] = v
		}
	}
	c.Errors = append([]string{}, r.Errors...)
	return c
}

// RemoveRow deletes the row with the given number from either list.
func (o *SheetOutcome) RemoveRow(rowNumber int) bool {
	for i, r := range o.ValidRows {
		if r.RowNumber == rowNumber {
			o.ValidRows = append(o.ValidRows[:i], o.ValidRows[i+1:]...)
			return true
		}
	}
	for i, r := range o.InvalidRows {
		if r.RowNumber == rowNumber {
			o.InvalidRows = append(o.InvalidRows[:i], o.InvalidRows[i+1:]...)
			return true
		}
	}
	return false
}

// ValidationSession is the working set of one user session. Version changes
// on every Replace.
type ValidationSession struct {
	ID        string         `json:"id"`
	Version   string         `json:"version"`
	Sheets    []SheetOutcome `json:"sheets"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Clone returns a deep copy of the session.
func (s ValidationSession) Clone() ValidationSession {
	out := s
	out.Sheets = make([]SheetOutcome, len(s.Sheets))
	for i, sh := range s.Sheets {
		out.Sheets[i] = sh.Clone()
	}
	return out
}

// SheetIndex returns the position of the named sheet, or -1.
func (s ValidationSession) SheetIndex(name string) int {
	for i, sh := range s.Sheets {
		if sh.SheetName == name {
			return i
		}
	}
	return -1
}

// ConsumedSheet is a sheet taken out of a session, with what is needed to put
// it back.
type ConsumedSheet struct {
	Outcome SheetOutcome
	Index   int
	Version string
}

// SheetData is one decoded sheet.
type SheetData struct {
	Name    string
	Headers []string
	Rows    []RawRow
}

// Workbook is the decoded form of an uploaded file, sheets in file order.
type Workbook struct {
	Sheets []SheetData
}

// SheetNames lists the sheets in file order.
func (w Workbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

// ImportBatch describes one committed sheet.
type ImportBatch struct {
	ID        uuid.UUID
	SessionID string
	SheetName string
	Imported  int
	Skipped   int
	ClientIP  string
	UserAgent string
}

// PersistedRecord is a ValidatedRecord after insertion.
type PersistedRecord struct {
	ID        uuid.UUID `json:"id"`
	BatchID   uuid.UUID `json:"batchId"`
	SheetName string    `json:"sheetName"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Verified  bool      `json:"verified"`
	SourceRow int       `json:"sourceRow"`
	CreatedAt time.Time `json:"createdAt"`
}

// ImportResult is returned by a successful commit.
type ImportResult struct {
	BatchID       uuid.UUID         `json:"batchId"`
	SheetName     string            `json:"sheetName"`
	ImportedCount int               `json:"importedCount"`
	SkippedCount  int               `json:"skippedCount"`
	Records       []PersistedRecord `json:"records"`
}
