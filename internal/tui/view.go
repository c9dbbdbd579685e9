package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// chromeHeight counts the lines around the report body: header with margin,
// tab bar, status line, summary line, box borders and footer with margin.
const chromeHeight = 11

// shareBarWidth is the width of each range bar.
const shareBarWidth = 30

// =============================================================================
// Main View Rendering
// =============================================================================

func (m Model) renderView() string {
	sections := []string{m.renderHeader()}

	s, ok := m.Active()
	if !ok {
		sections = append(sections, mutedStyle.Render("No analyses to show."), m.renderFooter())
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections,
		m.renderTabs(),
		m.renderSummary(s),
	)
	if len(s.Share) > 0 {
		sections = append(sections, renderShares(s.Share))
	}
	sections = append(sections, m.renderBody(), m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	header := fmt.Sprintf(" %s │ %d analyses ", m.title, len(m.sections))
	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Tabs
// =============================================================================

func (m Model) renderTabs() string {
	tabs := make([]string, len(m.sections))
	for i, s := range m.sections {
		if i == m.active {
			tabs[i] = tabActiveStyle.Render(s.Title)
		} else {
			tabs[i] = tabStyle.Render(s.Title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// =============================================================================
// Summary
// =============================================================================

func (m Model) renderSummary(s Section) string {
	status := GetStatusLabel(s.Status)
	if s.Summary.Count == 0 {
		return status
	}
	sum := s.Summary
	row := []string{
		RenderKeyValue("samples", fmt.Sprintf("%d", sum.Count)),
		RenderKeyValue("min", fmt.Sprintf("%d ms", sum.Min)),
		RenderKeyValue("max", fmt.Sprintf("%d ms", sum.Max)),
		RenderKeyValue("p50", formatMs(sum.P50)),
		RenderKeyValue("p95", formatMs(sum.P95)),
		RenderKeyValue("p99", formatMs(sum.P99)),
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		status,
		strings.Join(row, "  "),
	)
}

// renderShares draws one bar per labelled range.
func renderShares(shares []Share) string {
	lines := make([]string, len(shares))
	for i, sh := range shares {
		lines[i] = fmt.Sprintf("%-10s %s %6.2f%%",
			sh.Label, RenderBar(sh.Fraction, shareBarWidth), sh.Fraction*100)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// =============================================================================
// Body
// =============================================================================

func (m Model) renderBody() string {
	lines := m.bodyLines()
	end := m.offset + m.bodyHeight()
	if end > len(lines) {
		end = len(lines)
	}
	visible := lines[m.offset:end]
	return boxStyle.Width(m.width - 2).Render(strings.Join(visible, "\n"))
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	shortcuts := []string{
		"←/→: analysis",
		"↑/↓: scroll",
		"q: quit",
	}
	left := dimStyle.Render(strings.Join(shortcuts, " │ "))

	right := ""
	if n := len(m.bodyLines()); n > m.bodyHeight() {
		right = dimStyle.Render(fmt.Sprintf("lines %d-%d of %d", m.offset+1, min(m.offset+m.bodyHeight(), n), n))
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return footerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Left,
			left,
			strings.Repeat(" ", padding),
			right,
		),
	)
}
