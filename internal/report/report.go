// Package report renders delay histograms as fixed-width text tables.
//
// The table layout is the one the audio team has always pasted into bug
// reports:
//
//	|Delay               |Item Count          |The percentage      |
//	|--------------------|--------------------|--------------------|
//	|(0-5]               |812                 |0.902222            |
//
// Rendering is pure formatting; nothing is retained between calls.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/parser"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/stats"
)

const columnWidth = 20

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")). // Purple
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")) // Medium gray

	outlierStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")) // Red
)

// Renderer writes report tables to w.
type Renderer struct {
	w     io.Writer
	color bool
}

// New creates a renderer. color enables lipgloss styling of headings,
// notes and outliers; tables are never styled so they stay pasteable.
func New(w io.Writer, color bool) *Renderer {
	return &Renderer{w: w, color: color}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Section writes a heading for one analysis.
func (r *Renderer) Section(title string) {
	rule := strings.Repeat("═", len(title)+4)
	fmt.Fprintf(r.w, "\n%s\n", r.style(headingStyle, rule))
	fmt.Fprintf(r.w, "%s\n", r.style(headingStyle, "  "+title))
	fmt.Fprintf(r.w, "%s\n", r.style(headingStyle, rule))
}

// Note writes a dimmed informational line.
func (r *Renderer) Note(format string, args ...any) {
	fmt.Fprintln(r.w, r.style(noteStyle, fmt.Sprintf(format, args...)))
}

func (r *Renderer) header() {
	fmt.Fprintf(r.w, "|%-20s|%-20s|%-20s|\n", "Delay", "Item Count", "The percentage")
	dash := strings.Repeat("-", columnWidth)
	fmt.Fprintf(r.w, "|%-20s|%-20s|%-20s|\n", dash, dash, dash)
}

// Histogram writes ascending delay → count → fraction rows for every delay
// strictly below ceiling. The fraction denominator is the count of those
// rows. It returns parser.ErrMissingCorrelation, after the total line, when
// no sample is below the ceiling.
func (r *Renderer) Histogram(h stats.Histogram, ceiling int64) error {
	total := h.TotalBelow(ceiling)
	fmt.Fprintf(r.w, "Total count: %d\n", total)
	if total == 0 {
		return fmt.Errorf("%w: no samples below %d", parser.ErrMissingCorrelation, ceiling)
	}

	r.header()
	for _, delay := range h.Keys() {
		if delay >= ceiling {
			continue
		}
		count := h[delay]
		fmt.Fprintf(r.w, "|%-20d|%-20d|%-20f|\n", delay, count, float64(count)/float64(total))
	}
	return nil
}

// Buckets writes the eight fixed bucket rows and the total. With
// showOutliers, every record above the last bound is listed with its
// delay appended. An empty report returns parser.ErrMissingCorrelation
// without writing any rows.
func (r *Renderer) Buckets(rep *stats.BucketReport, showOutliers bool) error {
	if rep.Total == 0 {
		fmt.Fprintf(r.w, "Total data: 0\n")
		return fmt.Errorf("%w: no record has both send and receive times", parser.ErrMissingCorrelation)
	}

	r.header()
	for i, row := range rep.Rows {
		frac, err := rep.Fraction(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.w, "|%-20s|%-20d|%-20f|\n", row.Label, row.Count, frac)
	}
	fmt.Fprintf(r.w, "Total data: %d\n", rep.Total)

	if showOutliers {
		for _, rec := range rep.Outliers {
			fmt.Fprintln(r.w, r.style(outlierStyle, FormatFields(rec.Fields)))
		}
	}
	return nil
}

// SendRecords lists send-queue records, one per line.
func (r *Renderer) SendRecords(fields [][]int64) {
	for _, f := range fields {
		fmt.Fprintln(r.w, FormatFields(f))
	}
}

// Summary writes the percentile footer.
func (r *Renderer) Summary(s stats.Summary) {
	if s.Count == 0 {
		return
	}
	r.Note("samples=%d min=%d max=%d mean=%.2f p50=%.1f p95=%.1f p99=%.1f",
		s.Count, s.Min, s.Max, s.Mean, s.P50, s.P95, s.P99)
}

// FormatFields renders a record as "[a, b, c]".
func FormatFields(fields []int64) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = strconv.FormatInt(f, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
