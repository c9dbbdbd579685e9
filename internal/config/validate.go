package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/logging"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or every problem joined with errors.Join.
func Validate(cfg *Config) error {
	var errs []error

	// Command must be known
	if cfg.Command != CommandPlan && !ValidKind(Kind(cfg.Command)) {
		errs = append(errs, ValidationError{
			Field:   "command",
			Message: fmt.Sprintf("must be one of: %s (got %q)", strings.Join(commandNames(), ", "), cfg.Command),
		})
	}

	// File count depends on the command
	want := 1
	if cfg.Command == string(KindE2E) {
		want = 2
	}
	if len(cfg.Files) != want {
		errs = append(errs, ValidationError{
			Field:   "files",
			Message: fmt.Sprintf("%s takes %d file(s), got %d", cfg.Command, want, len(cfg.Files)),
		})
	}
	for i, f := range cfg.Files {
		if strings.TrimSpace(f) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("files[%d]", i),
				Message: "must not be empty",
			})
		}
	}

	// Marker token is needed for the marker command
	if cfg.Command == string(KindMarker) && strings.TrimSpace(cfg.Marker) == "" {
		errs = append(errs, ValidationError{
			Field:   "marker",
			Message: "must not be empty",
		})
	}

	if cfg.Ceiling < 0 {
		errs = append(errs, ValidationError{
			Field:   "ceiling",
			Message: fmt.Sprintf("must be >= 0 (got %d)", cfg.Ceiling),
		})
	}
	if cfg.SendThreshold < 0 {
		errs = append(errs, ValidationError{
			Field:   "send_threshold",
			Message: fmt.Sprintf("must be >= 0 (got %d)", cfg.SendThreshold),
		})
	}

	// Log format must be valid
	if !logging.ValidFormat(cfg.LogFormat) {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(cfg.LogLevel)] {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be debug, info, warn or error (got %q)", cfg.LogLevel),
		})
	}

	// -outliers only affects e2e and send output
	switch cfg.Command {
	case string(KindE2E), string(KindSend), CommandPlan:
	default:
		if cfg.ShowOutliers {
			errs = append(errs, ValidationError{
				Field:   "outliers",
				Message: "only applies to the e2e and send commands",
			})
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

