package common

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"
)

// Itoa converts an integer to a string.
func Itoa(n int) string {
	return strconv.Itoa(n)
}

// FormatDuration renders a compile duration for tables.
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// Writer accumulates the first write error so components can emit markup
// without checking every call.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes trusted markup.
func (w *Writer) Raw(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

// Text writes escaped text.
func (w *Writer) Text(s string) {
	w.Raw(templ.EscapeString(s))
}

// Textf writes escaped formatted text.
func (w *Writer) Textf(format string, a ...any) {
	w.Text(fmt.Sprintf(format, a...))
}

// Attr writes ` name="value"` with value escaped.
func (w *Writer) Attr(name, value string) {
	w.Raw(" " + name + "=\"")
	w.Text(value)
	w.Raw("\"")
}

// Class writes a class attribute built with templ.Classes. Conditional
// classes are passed as templ.KV pairs.
func (w *Writer) Class(classes ...any) {
	w.Attr("class", templ.Classes(classes...).String())
}

// Href writes an href attribute from a sanitized URL.
func (w *Writer) Href(u templ.SafeURL) {
	w.Attr("href", string(u))
}

// Err returns the first write error.
func (w *Writer) Err() error {
	return w.err
}

// Render renders a nested component.
func (w *Writer) Render(ctx context.Context, c templ.Component) {
	if w.err != nil || c == nil {
		return
	}
	w.err = c.Render(ctx, w.w)
}
