package analysis

import (
	"fmt"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/tui"
)

// Section converts a result into a TUI section.
func (res *Result) Section() tui.Section {
	s := tui.Section{
		Title:   res.Analysis.Name,
		Summary: res.Summary,
		Body:    res.Report,
	}
	if res.Err != nil {
		s.Status = tui.StatusEmpty
	}
	if res.Buckets != nil && res.Buckets.Total > 0 {
		s.Share = make([]tui.Share, len(res.Buckets.Rows))
		for i, row := range res.Buckets.Rows {
			f, _ := res.Buckets.Fraction(i)
			s.Share[i] = tui.Share{Label: row.Label, Fraction: f}
		}
	}
	return s
}

// Sections converts results for the TUI, titling each with its kind.
func Sections(results []*Result) []tui.Section {
	out := make([]tui.Section, len(results))
	for i, res := range results {
		out[i] = res.Section()
		out[i].Title = fmt.Sprintf("%s (%s)", res.Analysis.Name, res.Analysis.Kind)
	}
	return out
}
