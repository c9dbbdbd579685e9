package logging

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/parser"
)

func lineErr(line int, marker string) error {
	return &parser.LineError{Path: "recv.log", Line: line, Marker: marker, Err: parser.ErrInvalidFormat}
}

func TestMalformedReporter_LenientSkips(t *testing.T) {
	var buf bytes.Buffer
	r := NewMalformedReporter(NewLoggerWithWriter(&buf, "text", "info"), false)

	if err := r.Handle(lineErr(3, "Packet received:")); err != nil {
		t.Fatalf("lenient Handle returned %v, want nil", err)
	}

	if r.Total() != 1 {
		t.Errorf("Total() = %d, want 1", r.Total())
	}
	out := buf.String()
	if !strings.Contains(out, "malformed_line_skipped") {
		t.Errorf("expected warn log, got: %s", out)
	}
	if !strings.Contains(out, "line=3") || !strings.Contains(out, "file=recv.log") {
		t.Errorf("expected location attributes, got: %s", out)
	}
	if got := r.Summary(); got != "1 malformed line(s) skipped" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestMalformedReporter_StrictReturnsError(t *testing.T) {
	r := NewMalformedReporter(nil, true)

	in := lineErr(5, "SendRtp:")
	err := r.Handle(in)
	if !errors.Is(err, parser.ErrInvalidFormat) {
		t.Errorf("strict Handle returned %v, want wrapped ErrInvalidFormat", err)
	}
	if !r.Strict() {
		t.Error("Strict() = false")
	}
	if got := r.Summary(); got != "1 malformed line(s)" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestMalformedReporter_NilError(t *testing.T) {
	r := NewMalformedReporter(nil, true)
	if err := r.Handle(nil); err != nil {
		t.Errorf("Handle(nil) = %v", err)
	}
	if r.Total() != 0 || r.Summary() != "" {
		t.Errorf("nil error should not be counted")
	}
}

func TestMalformedReporter_CountsByMarker(t *testing.T) {
	r := NewMalformedReporter(nil, false)
	r.Handle(lineErr(1, "SendRtp:"))
	r.Handle(lineErr(2, "SendRtp:"))
	r.Handle(lineErr(3, "Packet received:"))
	r.Handle(errors.New("plain error"))
	r.Handle(lineErr(4, ""))

	counts := r.CountsByMarker()
	want := map[string]int{"SendRtp:": 2, "Packet received:": 1, "unknown": 2}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("counts[%q] = %d, want %d", k, counts[k], v)
		}
	}
	if _, ok := counts[""]; ok {
		t.Error("a line error without a marker token should count as unknown")
	}

	// Returned map is a copy.
	counts["SendRtp:"] = 100
	if r.CountsByMarker()["SendRtp:"] != 2 {
		t.Error("CountsByMarker should return a copy")
	}
}

func TestMalformedReporter_RecentRing(t *testing.T) {
	r := NewMalformedReporter(nil, false)
	for i := 1; i <= MaxRecentMalformed+5; i++ {
		r.Handle(lineErr(i, "SendRtp:"))
	}

	recent := r.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("len(Recent(3)) = %d, want 3", len(recent))
	}
	last := MaxRecentMalformed + 5
	for i, line := range recent {
		want := fmt.Sprintf("recv.log:%d:", last-2+i)
		if !strings.HasPrefix(line, want) {
			t.Errorf("recent[%d] = %q, want prefix %q", i, line, want)
		}
	}

	if got := len(r.Recent(1000)); got != MaxRecentMalformed {
		t.Errorf("Recent(1000) returned %d lines, want %d", got, MaxRecentMalformed)
	}
}

func TestMalformedReporter_RecentEmpty(t *testing.T) {
	r := NewMalformedReporter(nil, false)
	if got := r.Recent(5); len(got) != 0 {
		t.Errorf("Recent on empty reporter = %v", got)
	}
}
