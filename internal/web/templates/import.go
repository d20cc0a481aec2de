package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

// ImportSummary renders the outcome of a committed sheet.
func ImportSummary(res core.ImportResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-success" role="status">`)
		fmt.Fprintf(&b, `<p class="alert-message">Imported %d row(s) from %s.</p>`,
			res.ImportedCount, templ.EscapeString(res.SheetName))
		if res.SkippedCount > 0 {
			fmt.Fprintf(&b, `<p class="alert-action">%d invalid row(s) were skipped.</p>`, res.SkippedCount)
		}
		fmt.Fprintf(&b, `<p class="alert-code">Batch: %s</p>`, res.BatchID)
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// SheetSummary renders the counts of one previewed sheet.
func SheetSummary(o core.SheetOutcome) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<section class="sheet" data-sheet="%s">`, templ.EscapeString(o.SheetName))
		fmt.Fprintf(&b, `<h3>%s</h3>`, templ.EscapeString(o.SheetName))
		for _, se := range o.SheetErrors {
			fmt.Fprintf(&b, `<p class="sheet-error">Row %d: %s</p>`, se.Row, templ.EscapeString(se.Error))
		}
		if len(o.SheetErrors) == 0 {
			fmt.Fprintf(&b, `<p class="sheet-counts">%d valid, %d invalid</p>`, len(o.ValidRows), len(o.InvalidRows))
		}
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
