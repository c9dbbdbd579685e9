package logging

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/parser"
)

// MaxRecentMalformed is how many malformed-line descriptions are kept for
// the end-of-run summary.
const MaxRecentMalformed = 20

// MalformedReporter decides what happens to a log line that carries a known
// marker but an unparseable payload.
//
// In lenient mode (the default) the line is logged at warn level, recorded
// in a small ring buffer and skipped. In strict mode the error is returned
// and the scan aborts.
type MalformedReporter struct {
	logger *slog.Logger
	strict bool

	// Ring buffer of recent malformed lines
	buffer []string
	bufIdx int

	total    int
	byMarker map[string]int
}

// NewMalformedReporter creates a reporter. A nil logger discards output.
func NewMalformedReporter(logger *slog.Logger, strict bool) *MalformedReporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MalformedReporter{
		logger:   logger,
		strict:   strict,
		buffer:   make([]string, MaxRecentMalformed),
		byMarker: make(map[string]int),
	}
}

// Handle is passed to scanners as their parse-error hook. It returns nil
// when the line should be skipped and the error itself when the scan must
// stop.
func (r *MalformedReporter) Handle(err error) error {
	if err == nil {
		return nil
	}

	marker := "unknown"
	attrs := []any{"error", err}
	var lineErr *parser.LineError
	if errors.As(err, &lineErr) {
		if lineErr.Marker != "" {
			marker = lineErr.Marker
		}
		attrs = append(attrs, "file", lineErr.Path, "line", lineErr.Line, "marker", lineErr.Marker)
	}

	r.total++
	r.byMarker[marker]++
	r.buffer[r.bufIdx] = err.Error()
	r.bufIdx = (r.bufIdx + 1) % MaxRecentMalformed

	if r.strict {
		r.logger.Error("malformed_line", attrs...)
		return err
	}
	r.logger.Warn("malformed_line_skipped", attrs...)
	return nil
}

// Strict reports whether malformed lines abort the scan.
func (r *MalformedReporter) Strict() bool {
	return r.strict
}

// Total returns the number of malformed lines seen.
func (r *MalformedReporter) Total() int {
	return r.total
}

// CountsByMarker returns malformed-line counts keyed by marker token.
func (r *MalformedReporter) CountsByMarker() map[string]int {
	out := make(map[string]int, len(r.byMarker))
	for k, v := range r.byMarker {
		out[k] = v
	}
	return out
}

// Recent returns up to n of the most recent malformed lines, oldest first.
func (r *MalformedReporter) Recent(n int) []string {
	if n > MaxRecentMalformed {
		n = MaxRecentMalformed
	}

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := (r.bufIdx - n + i + MaxRecentMalformed) % MaxRecentMalformed
		if r.buffer[idx] != "" {
			lines = append(lines, r.buffer[idx])
		}
	}
	return lines
}

// Summary returns a one-line description for the end-of-run output, or ""
// when every line parsed.
func (r *MalformedReporter) Summary() string {
	if r.total == 0 {
		return ""
	}
	if r.strict {
		return fmt.Sprintf("%d malformed line(s)", r.total)
	}
	return fmt.Sprintf("%d malformed line(s) skipped", r.total)
}
