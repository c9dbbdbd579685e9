package config

import (
	"errors"
	"fmt"
	"strings"
)

// argHandler consumes at most one positional argument. Handlers run in
// declaration order; each sees the Config as left by the ones before it.
type argHandler struct {
	name string

	// accept lists the allowed values (case-insensitive). Empty accepts
	// anything.
	accept []string

	// mandatory reports whether the argument must be present, given what
	// earlier handlers have set.
	mandatory func(cfg *Config) bool

	// skip, when set and true, leaves the argument for the next handler.
	skip func(cfg *Config) bool

	apply func(cfg *Config, value string)
}

func always(*Config) bool { return true }
func never(*Config) bool  { return false }

func commandNames() []string {
	names := make([]string, 0, len(Kinds)+1)
	for _, k := range Kinds {
		names = append(names, string(k))
	}
	return append(names, CommandPlan)
}

// argHandlers describe "<command> <file> [<file>]".
var argHandlers = []argHandler{
	{
		name:      "command",
		accept:    commandNames(),
		mandatory: always,
		apply: func(cfg *Config, v string) {
			cfg.Command = strings.ToLower(v)
		},
	},
	{
		name:      "file",
		mandatory: always,
		apply: func(cfg *Config, v string) {
			cfg.Files = append(cfg.Files, v)
		},
	},
	{
		name: "receiver",
		mandatory: func(cfg *Config) bool {
			return cfg.Command == string(KindE2E)
		},
		skip: func(cfg *Config) bool {
			return cfg.Command != string(KindE2E)
		},
		apply: func(cfg *Config, v string) {
			cfg.Files = append(cfg.Files, v)
		},
	},
}

// handle runs h against argv and returns the arguments it did not consume.
func (h argHandler) handle(cfg *Config, argv []string) ([]string, error) {
	if h.skip != nil && h.skip(cfg) {
		return argv, nil
	}
	if len(argv) == 0 {
		mandatory := h.mandatory
		if mandatory == nil {
			mandatory = never
		}
		if mandatory(cfg) {
			return argv, ValidationError{
				Field:   h.name,
				Message: "must be provided on the command line",
			}
		}
		return argv, nil
	}

	arg := argv[0]
	if len(h.accept) > 0 && !acceptable(arg, h.accept) {
		return argv, ValidationError{
			Field:   h.name,
			Message: fmt.Sprintf("%q is not a valid value, valid: %s", arg, strings.Join(h.accept, ",")),
		}
	}
	h.apply(cfg, arg)
	return argv[1:], nil
}

func acceptable(arg string, accept []string) bool {
	arg = strings.ToLower(arg)
	for _, v := range accept {
		if arg == v {
			return true
		}
	}
	return false
}

// ParseArgs fills cfg.Command and cfg.Files from positional arguments.
// Every problem is reported; leftover arguments are an error.
func ParseArgs(cfg *Config, argv []string) error {
	var errs []error
	rest := argv
	for _, h := range argHandlers {
		var err error
		rest, err = h.handle(cfg, rest)
		if err != nil {
			errs = append(errs, err)
			// An invalid command makes later handlers meaningless.
			if h.name == "command" {
				break
			}
		}
	}
	if len(errs) == 0 && len(rest) > 0 {
		errs = append(errs, ValidationError{
			Field:   "args",
			Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(rest, " ")),
		})
	}
	return errors.Join(errs...)
}
