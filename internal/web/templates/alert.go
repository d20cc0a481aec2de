// Package templates holds the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissible error box with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w,
			`<div class="alert alert-error" role="alert">`+
				`<p class="alert-message">`+templ.EscapeString(message)+`</p>`)
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := io.WriteString(w, `<p class="alert-action">`+templ.EscapeString(action)+`</p>`); err != nil {
				return err
			}
		}
		_, err = io.WriteString(w,
			`<p class="alert-code">Code: `+templ.EscapeString(code)+`</p>`+
				`<button type="button" class="alert-dismiss" onclick="this.parentElement.remove()">Dismiss</button>`+
				`</div>`)
		return err
	})
}
