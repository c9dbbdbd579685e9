package tui

import (
	"strings"
	"testing"
)

// =============================================================================
// Tests: GetStatusLabel
// =============================================================================

func TestGetStatusLabel(t *testing.T) {
	tests := []struct {
		name       string
		status     Status
		wantSubstr string
	}{
		{"ok", StatusOK, "ok"},
		{"empty", StatusEmpty, "no samples"},
		{"failed", StatusFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetStatusLabel(tt.status)
			if !strings.Contains(got, tt.wantSubstr) {
				t.Errorf("GetStatusLabel(%v) = %q, want to contain %q", tt.status, got, tt.wantSubstr)
			}
		})
	}
}

// =============================================================================
// Tests: RenderBar
// =============================================================================

func TestRenderBar(t *testing.T) {
	tests := []struct {
		name       string
		ratio      float64
		width      int
		wantFilled int
	}{
		{"empty", 0, 10, 0},
		{"half", 0.5, 10, 5},
		{"full", 1, 10, 10},
		{"over", 1.5, 10, 10},
		{"negative", -0.2, 10, 0},
		{"zero width", 0.5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderBar(tt.ratio, tt.width)
			if n := strings.Count(got, "█"); n != tt.wantFilled {
				t.Errorf("filled = %d, want %d", n, tt.wantFilled)
			}
			if tt.width > 0 {
				if n := strings.Count(got, "█") + strings.Count(got, "░"); n != tt.width {
					t.Errorf("bar width = %d, want %d", n, tt.width)
				}
			}
		})
	}
}

// =============================================================================
// Tests: RenderKeyValue / formatMs
// =============================================================================

func TestRenderKeyValue(t *testing.T) {
	got := RenderKeyValue("p95", "47.7 ms")
	if !strings.Contains(got, "p95:") || !strings.Contains(got, "47.7 ms") {
		t.Errorf("RenderKeyValue = %q", got)
	}
}

func TestFormatMs(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0 ms"},
		{26.5, "26.5 ms"},
		{1234.56, "1234.6 ms"},
	}
	for _, tt := range tests {
		if got := formatMs(tt.in); got != tt.want {
			t.Errorf("formatMs(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
