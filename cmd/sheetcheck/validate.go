package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/sheetimport/internal/config"
	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/sheet"
)

type validateOptions struct {
	path     string
	month    int
	year     int
	monthSet bool
	yearSet  bool
	json     bool
	timezone string
	now      func() time.Time
}

// period resolves the reference month from the flags, falling back to the
// current month in the configured timezone.
func (o validateOptions) period() (core.Period, error) {
	imp := config.ImportConfig{Timezone: o.timezone}
	loc, err := imp.Location()
	if err != nil {
		return core.Period{}, fmt.Errorf("invalid timezone %q: %v", o.timezone, err)
	}
	now := time.Now
	if o.now != nil {
		now = o.now
	}
	p := core.PeriodOf(now().In(loc))

	if o.monthSet {
		if o.month < 1 || o.month > 12 {
			return core.Period{}, fmt.Errorf("--month must be between 1 and 12, got %d", o.month)
		}
		p.Month = time.Month(o.month)
	}
	if o.yearSet {
		if o.year < 1 {
			return core.Period{}, fmt.Errorf("--year must be positive, got %d", o.year)
		}
		p.Year = o.year
	}
	return p, nil
}

type report struct {
	File     string              `json:"file"`
	Period   string              `json:"period"`
	Sheets   []core.SheetOutcome `json:"sheets"`
	Valid    int                 `json:"valid"`
	Rejected int                 `json:"rejected"`
}

func runValidate(out io.Writer, opts validateOptions) error {
	period, err := opts.period()
	if err != nil {
		return err
	}

	f, err := os.Open(opts.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", opts.path, err)
	}
	defer f.Close()

	wb, err := sheet.Decode(f, filepath.Base(opts.path), "")
	if err != nil {
		return err
	}

	rep := report{
		File:   filepath.Base(opts.path),
		Period: period.String(),
		Sheets: core.ValidateWorkbook(wb, period),
	}
	failed := false
	for _, o := range rep.Sheets {
		rep.Valid += len(o.ValidRows)
		rep.Rejected += len(o.InvalidRows)
		if len(o.InvalidRows) > 0 || len(o.SheetErrors) > 0 {
			failed = true
		}
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else {
		printText(out, rep)
	}

	if failed {
		return errRejected
	}
	return nil
}

func printText(out io.Writer, rep report) {
	fmt.Fprintf(out, "%s (period %s)\n", rep.File, rep.Period)
	for _, o := range rep.Sheets {
		fmt.Fprintf(out, "\nsheet %q\n", o.SheetName)
		for _, se := range o.SheetErrors {
			fmt.Fprintf(out, "  row %d: %s\n", se.Row, se.Error)
		}
		if len(o.SheetErrors) > 0 {
			continue
		}
		fmt.Fprintf(out, "  %d valid, %d rejected\n", len(o.ValidRows), len(o.InvalidRows))
		for _, r := range o.InvalidRows {
			for _, msg := range r.Errors {
				fmt.Fprintf(out, "  row %d: %s\n", r.RowNumber, msg)
			}
		}
	}
	fmt.Fprintf(out, "\ntotal: %d valid, %d rejected\n", rep.Valid, rep.Rejected)
}

func writeTemplate(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := sheet.WriteTemplate(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
