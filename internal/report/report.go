// Package report turns validation results into the single message a step
// prints before exiting.
package report

import (
	"strings"

	"github.com/choreo-dev/choreo-steps/internal/descriptor"
	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
	"github.com/choreo-dev/choreo-steps/internal/rules"
)

// Format renders violations for fileType. A single violation is inlined and
// several are listed one per line.
func Format(vs []rules.Violation, fileType descriptor.FileType) string {
	var b strings.Builder

	b.WriteString(string(fileType))
	b.WriteString(" validation failed: ")

	if len(vs) == 1 {
		b.WriteString(vs[0].Message)
		return b.String()
	}

	for _, v := range vs {
		b.WriteString("\n- ")
		b.WriteString(v.Message)
	}

	return b.String()
}

// Build converts the outcome of a validation pass into an error. It returns
// nil when there is nothing to report. Violations take precedence and yield
// a USER ERROR; a cause without violations yields an INTERNAL ERROR.
func Build(fileType descriptor.FileType, vs []rules.Violation, cause error) error {
	if len(vs) > 0 {
		return apperrors.WrapWithContext(apperrors.CodeUser, Format(vs, fileType), nil,
			map[string]any{"violations": len(vs)})
	}

	if cause != nil {
		return Internal(fileType, cause)
	}

	return nil
}

// Internal reports a validation failure that is not the caller's fault.
func Internal(fileType descriptor.FileType, cause error) error {
	return apperrors.Wrap(apperrors.CodeInternal,
		"Failed to validate "+string(fileType)+", something went wrong", cause)
}
