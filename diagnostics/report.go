package diagnostics

import "errors"

// Status is the outcome of converting one file.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// FileReport summarises the conversion of one input file.
type FileReport struct {
	Path     string
	Target   string
	Status   Status
	Warnings []Warning
	Markers  []MarkerLocation
	Err      error
}

// NewFileReport derives the status from the error, warnings and markers of a conversion.
func NewFileReport(path, target, code string, warnings []Warning, err error) FileReport {
	report := FileReport{
		Path:     path,
		Target:   target,
		Warnings: warnings,
		Err:      err,
	}
	if err != nil {
		report.Status = StatusFailed
		return report
	}
	report.Markers = FindMarkers(code)
	if len(warnings) > 0 || len(report.Markers) > 0 {
		report.Status = StatusPartial
	} else {
		report.Status = StatusSuccess
	}
	return report
}

// IsSyntaxError reports whether err carries a *SyntaxError.
func IsSyntaxError(err error) bool {
	var syntaxErr *SyntaxError
	return errors.As(err, &syntaxErr)
}
