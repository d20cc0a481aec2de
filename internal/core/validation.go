package core

// validation.go applies the business rules to one decoded row.
//
// Every rule is evaluated on its own so a rejected row reports all of its
// problems at once, in the order name, amount, date.

import (
	"fmt"
	"strings"
	"time"
)

// Column names the validator reads. Matching is exact.
const (
	ColumnName     = "Name"
	ColumnDate     = "Date"
	ColumnAmount   = "Amount"
	ColumnVerified = "Verified"
)

// RequiredColumns must all be present in a sheet's header row.
var RequiredColumns = []string{ColumnName, ColumnDate, ColumnAmount}

// Row-level messages reported to the user.
const (
	MsgEmptyName      = "Empty name not allowed"
	MsgAmountNotNum   = "Amount must be a valid number"
	MsgAmountNotPos   = "Amount must be greater than zero"
	MsgDateFormat     = "Invalid date format (expected DD-MM-YYYY)"
	MsgDateOutOfMonth = "Date must be in current month"
)

// ValidationError represents a single rule violation for a field.
type ValidationError struct {
	Field   string // Column name
	Value   string // The raw value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// RowResult is the outcome of validating one row. Exactly one of Record and
// Rejected is meaningful: Rejected is nil for a valid row.
type RowResult struct {
	Record   ValidatedRecord
	Rejected *RejectedRecord
	Errors   []ValidationError
}

// Valid reports whether the row passed every rule.
func (r RowResult) Valid() bool { return r.Rejected == nil }

// ValidateRow checks one row against the rules for the reference period.
func ValidateRow(row RawRow, rowNumber int, period Period) RowResult {
	var (
		errs     []ValidationError
		amount   *float64
		date     *time.Time
		nameCell = row[ColumnName]
		amtCell  = row[ColumnAmount]
		dateCell = row[ColumnDate]
	)

	name := ParseName(nameCell)
	if name == "" {
		errs = append(errs, ValidationError{Field: ColumnName, Value: nameCell.String(), Message: MsgEmptyName})
	}

	if v, err := ParseAmount(amtCell); err != nil {
		errs = append(errs, ValidationError{Field: ColumnAmount, Value: amtCell.String(), Message: MsgAmountNotNum})
	} else {
		amount = &v
		if v <= 0 {
			errs = append(errs, ValidationError{Field: ColumnAmount, Value: amtCell.String(), Message: MsgAmountNotPos})
		}
	}

	if d, err := ParseDate(dateCell); err != nil {
		errs = append(errs, ValidationError{Field: ColumnDate, Value: dateCell.String(), Message: MsgDateFormat})
	} else {
		date = &d
		if !period.Contains(d) {
			errs = append(errs, ValidationError{Field: ColumnDate, Value: dateCell.String(), Message: MsgDateOutOfMonth})
		}
	}

	verified := isVerified(row)

	if len(errs) == 0 {
		return RowResult{Record: ValidatedRecord{
			Name:      name,
			Amount:    *amount,
			Date:      *date,
			RowNumber: rowNumber,
			Verified:  verified,
		}}
	}

	rejected := &RejectedRecord{
		Name:      name,
		Amount:    amount,
		Date:      date,
		RowNumber: rowNumber,
		Verified:  verified,
		Raw:       rawDisplay(row),
		Errors:    make([]string, len(errs)),
	}
	for i, e := range errs {
		rejected.Errors[i] = e.Message
	}
	return RowResult{Rejected: rejected, Errors: errs}
}

// isVerified is true only for a Verified cell reading "yes" in any case.
func isVerified(row RawRow) bool {
	c, ok := row[ColumnVerified]
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(c.String()), "yes")
}

func rawDisplay(row RawRow) map[string]string {
	raw := make(map[string]string, 4)
	for _, col := range []string{ColumnName, ColumnDate, ColumnAmount, ColumnVerified} {
		if c, ok := row[col]; ok {
			raw[col] = c.String()
		}
	}
	return raw
}
