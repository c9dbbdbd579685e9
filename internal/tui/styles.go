// Package tui provides a terminal browser for delay reports.
//
// The TUI uses Bubble Tea for the application framework and Lipgloss for styling.
// It shows one analysis at a time:
// - a tab bar naming every analysis
// - the sample summary of the selected analysis
// - its rendered report, scrollable
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan

	colorSuccess = lipgloss.Color("#10B981") // Green
	colorWarning = lipgloss.Color("#F59E0B") // Amber
	colorError   = lipgloss.Color("#EF4444") // Red

	colorText      = lipgloss.Color("#E5E7EB") // Light gray
	colorTextMuted = lipgloss.Color("#9CA3AF") // Medium gray
	colorTextDim   = lipgloss.Color("#6B7280") // Dark gray
	colorBorder    = lipgloss.Color("#374151") // Border gray
)

// =============================================================================
// Base Styles
// =============================================================================

var (
	mutedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	headerStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorPrimary).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			MarginTop(1)
)

// =============================================================================
// Tab Styles
// =============================================================================

var (
	tabActiveStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true).
			Underline(true).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Padding(0, 1)
)

// =============================================================================
// Value Styles
// =============================================================================

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Width(10)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	statusOK = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	statusWarning = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	statusError = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	barStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	barEmptyStyle = lipgloss.NewStyle().
			Foreground(colorBorder)
)

// =============================================================================
// Section Status Indicator
// =============================================================================

// Status summarizes how an analysis went.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusFailed
)

// GetStatusLabel returns a styled label for s.
func GetStatusLabel(s Status) string {
	switch s {
	case StatusFailed:
		return statusError.Render("● failed")
	case StatusEmpty:
		return statusWarning.Render("● no samples")
	default:
		return statusOK.Render("● ok")
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

// RenderKeyValue renders a label: value pair.
func RenderKeyValue(label, value string) string {
	return labelStyle.Render(label+":") + valueStyle.Render(value)
}

// RenderBar renders a horizontal bar filled to ratio (0.0 to 1.0).
func RenderBar(ratio float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(ratio * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return barStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// formatMs formats a millisecond quantile.
func formatMs(v float64) string {
	return fmt.Sprintf("%.1f ms", v)
}
