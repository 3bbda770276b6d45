// Package output provides consistent CLI output formatting.
package output

import (
	"fmt"
	"io"
)

// Writer provides formatted output for CLI commands.
type Writer struct {
	out io.Writer
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Println prints a plain line.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Println(msg string) {
	_, _ = fmt.Fprintln(w.out, msg)
}

// Printf prints a formatted message.
func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format, args...)
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	_, _ = fmt.Fprintf(w.out, "✅ %s\n", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, "⚠️  %s\n", fmt.Sprintf(format, args...))
}

// Field prints an aligned name/value pair for status listings.
func (w *Writer) Field(name string, value any) {
	_, _ = fmt.Fprintf(w.out, "%-11s %v\n", name+":", value)
}
