package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/correlate"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/parser"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/stats"
)

// =============================================================================
// Tests: Histogram
// =============================================================================

func TestHistogram_Rows(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)

	h := stats.Histogram{10: 1, 3: 2, 35: 4, 40: 1}
	if err := r.Histogram(h, 35); err != nil {
		t.Fatalf("Histogram: %v", err)
	}

	want := strings.Join([]string{
		"Total count: 3",
		"|Delay               |Item Count          |The percentage      |",
		"|--------------------|--------------------|--------------------|",
		"|3                   |2                   |0.666667            |",
		"|10                  |1                   |0.333333            |",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestHistogram_NothingBelowCeiling(t *testing.T) {
	var buf bytes.Buffer
	err := New(&buf, false).Histogram(stats.Histogram{50: 3}, 35)
	if !errors.Is(err, parser.ErrMissingCorrelation) {
		t.Errorf("err = %v, want ErrMissingCorrelation", err)
	}
	if strings.Contains(buf.String(), "|Delay") {
		t.Error("header written for empty histogram")
	}
}

// =============================================================================
// Tests: Buckets
// =============================================================================

func TestBuckets_Example(t *testing.T) {
	table := correlate.NewTable()
	table.Commit(100, 7, 1000)
	table.Join(100, 1050, 5)
	rep := stats.BuildBucketReport(table, true)

	var buf bytes.Buffer
	if err := New(&buf, false).Buckets(rep, false); err != nil {
		t.Fatalf("Buckets: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "|(35-60]             |1                   |1.000000            |") {
		t.Errorf("missing (35-60] row:\n%s", out)
	}
	if !strings.Contains(out, "|(0-5]               |0                   |0.000000            |") {
		t.Errorf("missing empty (0-5] row:\n%s", out)
	}
	if !strings.HasSuffix(out, "Total data: 1\n") {
		t.Errorf("missing total line:\n%s", out)
	}
	if got := strings.Count(out, "\n"); got != 11 {
		t.Errorf("line count = %d, want 11 (header, rule, 8 rows, total)", got)
	}
}

func TestBuckets_Outliers(t *testing.T) {
	table := correlate.NewTable()
	table.Commit(100, 7, 1000)
	table.Join(100, 1200, 5)
	rep := stats.BuildBucketReport(table, true)

	var quiet, verbose bytes.Buffer
	if err := New(&quiet, false).Buckets(rep, false); err != nil {
		t.Fatalf("Buckets: %v", err)
	}
	if err := New(&verbose, false).Buckets(rep, true); err != nil {
		t.Fatalf("Buckets: %v", err)
	}

	line := "[100, 7, 1000, 1200, 5, 200]"
	if strings.Contains(quiet.String(), line) {
		t.Error("outlier listed without showOutliers")
	}
	if !strings.Contains(verbose.String(), line) {
		t.Errorf("outlier not listed:\n%s", verbose.String())
	}
}

func TestBuckets_Empty(t *testing.T) {
	rep := stats.BuildBucketReport(correlate.NewTable(), true)

	var buf bytes.Buffer
	err := New(&buf, false).Buckets(rep, true)
	if !errors.Is(err, parser.ErrMissingCorrelation) {
		t.Errorf("err = %v, want ErrMissingCorrelation", err)
	}
	if buf.String() != "Total data: 0\n" {
		t.Errorf("output = %q", buf.String())
	}
}

// =============================================================================
// Tests: Section, Summary, FormatFields
// =============================================================================

func TestSection_Plain(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Section("e2e")

	want := "\n═══════\n  e2e\n═══════\n"
	if buf.String() != want {
		t.Errorf("Section = %q, want %q", buf.String(), want)
	}
}

func TestSection_Color(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Section("playout")
	if !strings.Contains(buf.String(), "playout") {
		t.Errorf("title missing from styled section: %q", buf.String())
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)

	r.Summary(stats.Summary{})
	if buf.Len() != 0 {
		t.Errorf("empty summary wrote %q", buf.String())
	}

	r.Summary(stats.Summary{Count: 4, Min: 1, Max: 9, Mean: 4.5, P50: 4, P95: 9, P99: 9})
	want := "samples=4 min=1 max=9 mean=4.50 p50=4.0 p95=9.0 p99=9.0\n"
	if buf.String() != want {
		t.Errorf("Summary = %q, want %q", buf.String(), want)
	}
}

func TestFormatFields(t *testing.T) {
	tests := []struct {
		in   []int64
		want string
	}{
		{nil, "[]"},
		{[]int64{1}, "[1]"},
		{[]int64{100, 7, 1000, 1200, 5, 200}, "[100, 7, 1000, 1200, 5, 200]"},
		{[]int64{-3, 0}, "[-3, 0]"},
	}
	for _, tt := range tests {
		if got := FormatFields(tt.in); got != tt.want {
			t.Errorf("FormatFields(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSendRecords(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).SendRecords([][]int64{{1, 2}, {3, 4}})
	if buf.String() != "[1, 2]\n[3, 4]\n" {
		t.Errorf("SendRecords = %q", buf.String())
	}
}
