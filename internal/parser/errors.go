package parser

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every scan. Callers match with errors.Is.
var (
	// ErrFileNotFound wraps failures to open an input log.
	ErrFileNotFound = errors.New("log file not found")

	// ErrInvalidFormat means a payload segment is not a base-10 integer.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrMalformedLine means a payload has fewer fields than its marker needs.
	ErrMalformedLine = errors.New("malformed log line")

	// ErrMissingCorrelation means a fraction would be computed against zero records.
	ErrMissingCorrelation = errors.New("no correlated records")
)

// LineError locates a parse failure inside a log file.
type LineError struct {
	Path   string
	Line   int
	Marker string
	Err    error
}

func (e *LineError) Error() string {
	loc := fmt.Sprintf("line %d", e.Line)
	if e.Path != "" {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Marker == "" {
		return fmt.Sprintf("%s: %v", loc, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", loc, e.Marker, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
