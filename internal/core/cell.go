package core

// cell.go converts raw spreadsheet cells into typed values.
//
// Serial dates use one epoch: serial N is N days after 1899-12-30 (UTC), so
// serial 1 is 1899-12-31 and serial 25569 is 1970-01-01. This agrees with
// spreadsheet display for every date from 1900-03-01 on. Serials 1 through
// 60 display one day later in spreadsheet software because of its fictitious
// 1900-02-29; that discrepancy is left as is.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// maxSerial is 9999-12-31.
const maxSerial = 2958465

var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// dmyRegex matches DD-MM-YYYY or DD-MM-YY; '/' and '.' are accepted as the
// delimiter when both delimiters agree.
var dmyRegex = regexp.MustCompile(`^(\d{1,2})([-/.])(\d{1,2})([-/.])(\d{4}|\d{2})$`)

// SerialToDate converts a serial day count to a UTC calendar date.
// The fractional part (time of day) is dropped.
func SerialToDate(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, false
	}
	day := math.Floor(serial)
	if day < 1 || day > maxSerial {
		return time.Time{}, false
	}
	return serialEpoch.AddDate(0, 0, int(day)), true
}

// ParseDate converts a serial number or a DD-MM-YYYY string to a date at UTC
// midnight.
func ParseDate(c Cell) (time.Time, error) {
	switch c.Kind {
	case CellNumber:
		if d, ok := SerialToDate(c.Num); ok {
			return d, nil
		}
		return time.Time{}, &ParseError{Field: "Date", Value: c.String(), Reason: "serial out of range"}

	case CellString:
		s := CleanCell(c.Str)
		if numericRegex.MatchString(s) {
			f, err := strconv.ParseFloat(s, 64)
			if err == nil {
				if d, ok := SerialToDate(f); ok {
					return d, nil
				}
			}
			return time.Time{}, &ParseError{Field: "Date", Value: c.Str, Reason: "serial out of range"}
		}
		if d, ok := parseDMY(s); ok {
			return d, nil
		}
		return time.Time{}, &ParseError{Field: "Date", Value: c.Str, Reason: "expected DD-MM-YYYY"}
	}

	return time.Time{}, &ParseError{Field: "Date", Value: c.String(), Reason: "not a date"}
}

func parseDMY(s string) (time.Time, bool) {
	m := dmyRegex.FindStringSubmatch(s)
	if m == nil || m[2] != m[4] {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[3])
	year, _ := strconv.Atoi(m[5])
	if len(m[5]) == 2 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31-04 becomes 01-05); reject that.
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	return d, true
}

// ParseAmount converts a number cell or a numeric string to a finite float.
// Currency symbols, thousands separators and accounting parentheses are
// accepted in strings.
func ParseAmount(c Cell) (float64, error) {
	switch c.Kind {
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return 0, &ParseError{Field: "Amount", Value: c.String(), Reason: "not finite"}
		}
		return c.Num, nil

	case CellString:
		s := strings.TrimSpace(c.Str)

		negative := false
		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			negative = true
			s = strings.TrimSpace(s[1 : len(s)-1])
		}

		s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "").Replace(s)
		if negative {
			s = "-" + s
		}

		if !numericRegex.MatchString(s) {
			return 0, &ParseError{Field: "Amount", Value: c.Str, Reason: "not a number"}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			return 0, &ParseError{Field: "Amount", Value: c.Str, Reason: "not finite"}
		}
		return f, nil
	}

	return 0, &ParseError{Field: "Amount", Value: c.String(), Reason: "not a number"}
}

// ParseName trims and NFC-normalizes a name. An absent cell yields "".
func ParseName(c Cell) string {
	return norm.NFC.String(strings.TrimSpace(c.String()))
}

// CleanCell trims whitespace and strips the ="..." formula wrapper and
// surrounding quotes that spreadsheet exports add to text cells.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// FormatDate renders a date as DD-MM-YYYY.
func FormatDate(d time.Time) string {
	return d.Format("02-01-2006")
}
