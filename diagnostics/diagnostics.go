// Package diagnostics represent utility methods for diagnostics messages and
// the error taxonomy shared by every conversion stage
package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Fatal prints a fatal error message and exits if err is not nil
func Fatal(msg string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Fatal: %s: %v\n", msg, err)
	os.Exit(1)
}

// Kind classifies a conversion problem.
type Kind string

const (
	KindSyntaxError             Kind = "syntax-error"
	KindUnmappedConstruct       Kind = "unmapped-construct"
	KindMethodConversionFailure Kind = "method-conversion-failure"
	KindImportParseFailure      Kind = "import-parse-failure"
)

// MarkerPrefix starts every manual-conversion marker in generated code.
const MarkerPrefix = "// FIXME(cy2pw):"

// ErrCanceled is returned for files whose conversion was canceled or timed out.
var ErrCanceled = errors.New("conversion canceled")

// SyntaxError reports source text that could not be parsed.
type SyntaxError struct {
	Path    string
	Line    int // 1-based
	Column  int // 1-based
	Snippet string
}

func (e *SyntaxError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Line, e.Column)
	if e.Path != "" {
		loc = e.Path + ":" + loc
	}
	if e.Snippet == "" {
		return fmt.Sprintf("syntax error at %s", loc)
	}
	return fmt.Sprintf("syntax error at %s near %q", loc, e.Snippet)
}

// Warning is a non-fatal problem recorded during conversion.
type Warning struct {
	Kind    Kind
	Line    int // source line, 0 when unknown
	Message string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", w.Line, w.Kind, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// Marker renders a manual-conversion marker comment.
func Marker(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	// markers are single-line comments
	msg = strings.Join(strings.Fields(msg), " ")
	return MarkerPrefix + " " + msg
}

// IsMarker reports whether a generated line is a manual-conversion marker.
func IsMarker(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), MarkerPrefix)
}

// MarkerLocation addresses one marker in generated output.
type MarkerLocation struct {
	Line    int // 1-based line in the generated text
	Message string
}

// FindMarkers scans generated code for manual-conversion markers.
func FindMarkers(code string) []MarkerLocation {
	var locations []MarkerLocation
	for i, line := range strings.Split(code, "\n") {
		if !IsMarker(line) {
			continue
		}
		msg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), MarkerPrefix))
		locations = append(locations, MarkerLocation{Line: i + 1, Message: msg})
	}
	return locations
}
