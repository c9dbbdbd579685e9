// Package config provides configuration management for go-rtc-delay-stats.
package config

import "github.com/randomizedcoder/go-rtc-delay-stats/internal/stats"

// Kind selects which analysis runs over the input logs.
type Kind string

const (
	KindE2E      Kind = "e2e"      // sender + receiver correlation, bucketed
	KindMarker   Kind = "marker"   // single "<token>:<int>" marker histogram
	KindEncoding Kind = "encoding" // "Audio encoding delay:" with send filtering
	KindWaiting  Kind = "waiting"  // jitter buffer waiting time
	KindSend     Kind = "send"     // enqueue → network send chain
)

// Kinds lists every analysis kind in CLI order.
var Kinds = []Kind{KindE2E, KindMarker, KindEncoding, KindWaiting, KindSend}

// CommandPlan runs every analysis listed in a YAML plan file.
const CommandPlan = "plan"

// Config holds all configuration options for a run.
type Config struct {
	// Positional
	Command string   `json:"command"` // a Kind or "plan"
	Files   []string `json:"files"`

	// Analysis
	Marker        string `json:"marker"`
	Ceiling       int64  `json:"ceiling"` // 0 = per-kind default
	SendThreshold int64  `json:"send_threshold"`
	Strict        bool   `json:"strict"`
	ZeroAsMissing bool   `json:"zero_as_missing"`
	ShowOutliers  bool   `json:"show_outliers"`

	// Output
	MetricsOut string `json:"metrics_out"`
	TUIEnabled bool   `json:"tui_enabled"`
	Color      bool   `json:"color"`

	// Observability
	Verbose   bool   `json:"verbose"`
	LogFormat string `json:"log_format"` // json, text
	LogLevel  string `json:"log_level"`

	// Diagnostic modes
	SkipPreflight bool `json:"skip_preflight"`
	ShowVersion   bool `json:"show_version"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Analysis
		Marker:        "Recording delay:",
		Ceiling:       0,
		SendThreshold: stats.DefaultSendThreshold,
		Strict:        false,
		ZeroAsMissing: true,

		// Output
		TUIEnabled: false,
		Color:      true,

		// Observability
		Verbose:   false,
		LogFormat: "json",
		LogLevel:  "info",
	}
}

// DefaultCeiling is the report ceiling used when none is configured. The
// values are the ones the audio team settled on for each marker.
func DefaultCeiling(kind Kind, marker string) int64 {
	switch kind {
	case KindEncoding:
		return 9000
	case KindWaiting:
		return 500
	case KindMarker:
		switch marker {
		case "Playout delay:":
			return 500
		case "Decoding delay:":
			return 50000
		case "Resampling delay:":
			return 10000
		}
	}
	return 35
}

// ValidKind reports whether k names an analysis kind.
func ValidKind(k Kind) bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}
