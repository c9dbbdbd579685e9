package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/stats"
)

// =============================================================================
// Messages
// =============================================================================

// QuitMsg signals the TUI should exit.
type QuitMsg struct{}

// =============================================================================
// Section
// =============================================================================

// Section is one analysis as shown in the browser.
type Section struct {
	Title   string
	Status  Status
	Summary stats.Summary

	// Share is the fraction of samples in each labelled range, in display
	// order. Empty for plain histograms.
	Share []Share

	// Body is the rendered text report.
	Body string
}

// Share is one labelled fraction of a section's samples.
type Share struct {
	Label    string
	Fraction float64
}

// =============================================================================
// Model
// =============================================================================

// Model represents the TUI state.
type Model struct {
	title    string
	sections []Section
	active   int
	offset   int // first visible body line

	width  int
	height int

	quitting bool
}

// Config holds TUI configuration.
type Config struct {
	Title    string
	Sections []Section
}

// New creates a new TUI model.
func New(cfg Config) Model {
	return Model{
		title:    cfg.Title,
		sections: cfg.Sections,
		width:    80,
		height:   24,
	}
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model. Reports are static, so there is nothing to
// schedule.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "right", "l", "tab":
			m.selectSection(m.active + 1)
		case "left", "h", "shift+tab":
			m.selectSection(m.active - 1)
		case "down", "j":
			m.scroll(1)
		case "up", "k":
			m.scroll(-1)
		case "pgdown", " ":
			m.scroll(m.bodyHeight())
		case "pgup":
			m.scroll(-m.bodyHeight())
		case "home", "g":
			m.offset = 0
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scroll(0)
		return m, nil

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderView()
}

// =============================================================================
// Navigation
// =============================================================================

// selectSection moves to section i, wrapping at both ends.
func (m *Model) selectSection(i int) {
	n := len(m.sections)
	if n == 0 {
		return
	}
	m.active = (i%n + n) % n
	m.offset = 0
}

// scroll moves the body window by delta lines, clamped to the content.
func (m *Model) scroll(delta int) {
	m.offset += delta
	maxOffset := len(m.bodyLines()) - m.bodyHeight()
	if m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// =============================================================================
// Accessors
// =============================================================================

// Active returns the selected section, or false when there are none.
func (m Model) Active() (Section, bool) {
	if len(m.sections) == 0 {
		return Section{}, false
	}
	return m.sections[m.active], true
}

// bodyLines returns the active section's report split into lines.
func (m Model) bodyLines() []string {
	s, ok := m.Active()
	if !ok {
		return nil
	}
	return strings.Split(strings.TrimRight(s.Body, "\n"), "\n")
}

// bodyHeight is the number of report lines that fit below the header, tab
// bar, summary and footer.
func (m Model) bodyHeight() int {
	h := m.height - chromeHeight
	if s, ok := m.Active(); ok {
		h -= len(s.Share)
	}
	if h < 3 {
		h = 3
	}
	return h
}

// =============================================================================
// Helper for external use
// =============================================================================

// Run shows sections until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
