// Package ui writes the human-facing lines a pipeline step prints.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// State is the outcome of a pipeline step.
type State string

// Step states.
const (
	StateSucceeded State = "succeeded"
	StateSkipped   State = "skipped"
	StateFailed    State = "failed"
)

// Writer provides styled output methods that respect color settings.
type Writer struct {
	out     io.Writer
	errOut  io.Writer
	noColor bool
}

// NewWriter creates a Writer that writes to stdout/stderr.
// Color is disabled when noColor is true, the NO_COLOR env var is set, or
// the step runs under CI without FORCE_COLOR.
func NewWriter(noColor bool) *Writer {
	return &Writer{
		out:     os.Stdout,
		errOut:  os.Stderr,
		noColor: noColor || os.Getenv("NO_COLOR") != "" || (os.Getenv("CI") != "" && os.Getenv("FORCE_COLOR") == ""),
	}
}

// NewWriterWithOutputs creates a Writer with custom output destinations.
// Intended for testing.
func NewWriterWithOutputs(out, errOut io.Writer, noColor bool) *Writer {
	return &Writer{
		out:     out,
		errOut:  errOut,
		noColor: noColor,
	}
}

// Success prints a success message with a green checkmark prefix.
func (w *Writer) Success(msg string) {
	writeLine(w.out, w.styled(colorGreen, "✓"), msg)
}

// Warning prints a warning message to stderr with a yellow prefix.
func (w *Writer) Warning(msg string) {
	writeLine(w.errOut, w.styled(colorYellow, "warning:"), msg)
}

// Info prints an informational message with a cyan prefix.
func (w *Writer) Info(msg string) {
	writeLine(w.out, w.styled(colorCyan, "info:"), msg)
}

// Fail prints err to stderr. Tagged errors already start with USER ERROR or
// INTERNAL ERROR, which log scrapers key on; untagged ones get the INTERNAL
// ERROR tag.
func (w *Writer) Fail(err error) {
	if err == nil {
		return
	}

	msg := err.Error()

	var tagged *apperrors.StructuredError
	if !errors.As(err, &tagged) {
		msg = string(apperrors.CodeInternal) + " " + msg
	}
	if !w.noColor {
		msg = colorRed + msg + colorReset
	}

	if _, werr := fmt.Fprintln(w.errOut, msg); werr != nil {
		return
	}
}

// Status prints a machine-readable step outcome line.
func (w *Writer) Status(step string, state State) {
	line := fmt.Sprintf("step=%s state=%s", step, state)
	if _, err := fmt.Fprintln(w.out, line); err != nil {
		return
	}
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Infof prints a formatted informational message.
func (w *Writer) Infof(format string, args ...any) {
	w.Info(fmt.Sprintf(format, args...))
}

func (w *Writer) styled(color, text string) string {
	if w.noColor {
		return text
	}

	return color + text + colorReset
}

func writeLine(out io.Writer, prefix, msg string) {
	msg = strings.TrimRight(msg, "\n")
	if _, err := fmt.Fprintf(out, "%s %s\n", prefix, msg); err != nil {
		// Best-effort output; if stderr fails there's nothing useful to do.
		return
	}
}
