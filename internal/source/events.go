package source

import (
	"context"
	"errors"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/parser"
)

// ErrorHook decides what to do with a line that matched a marker but could
// not be parsed, or that was too long to read. Returning nil skips the line; returning an error aborts
// the scan with it. A nil hook aborts on the first error.
type ErrorHook func(error) error

// EventFunc receives every successfully parsed event in file order.
type EventFunc func(*parser.Event) error

// ScanEvents runs a priority-ordered marker scan over lines. Lines without
// a marker are ignored. Parse failures are tagged with the input name and
// routed through onError.
func ScanEvents(ctx context.Context, lines Lines, markers []parser.Marker, onError ErrorHook, fn EventFunc) error {
	return lines.Scan(ctx, func(lineNo int, line string) error {
		ev, ok, err := parser.Extract(line, lineNo, markers)
		if err != nil {
			var lineErr *parser.LineError
			if errors.As(err, &lineErr) {
				lineErr.Path = lines.Name()
			}
			if onError == nil {
				return err
			}
			return onError(err)
		}
		if !ok {
			return nil
		}
		return fn(ev)
	}, onError)
}
