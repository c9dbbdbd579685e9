package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/stats"
)

// Analysis is one entry of a plan.
type Analysis struct {
	Name          string `yaml:"name"`
	Kind          Kind   `yaml:"kind"`
	File          string `yaml:"file,omitempty"`
	Sender        string `yaml:"sender,omitempty"`
	Receiver      string `yaml:"receiver,omitempty"`
	Marker        string `yaml:"marker,omitempty"`
	Ceiling       int64  `yaml:"ceiling,omitempty"`

	// SendThreshold is nil when unset, so an explicit 0 keeps every
	// encoding sample that follows a send.
	SendThreshold *int64 `yaml:"send_threshold,omitempty"`
}

// Threshold returns the encoding send threshold, or the default when unset.
func (a Analysis) Threshold() int64 {
	if a.SendThreshold == nil {
		return stats.DefaultSendThreshold
	}
	return *a.SendThreshold
}

// Files returns the input files in scan order.
func (a Analysis) Files() []string {
	if a.Kind == KindE2E {
		return []string{a.Sender, a.Receiver}
	}
	return []string{a.File}
}

// Plan is a list of analyses run in order.
//
//	analyses:
//	  - name: playout
//	    kind: marker
//	    file: ${LOG_DIR}/RTCTest_18616.log
//	    marker: "Playout delay:"
//	    ceiling: 500
type Plan struct {
	Analyses []Analysis `yaml:"analyses"`
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR_NAME} with environment variable values.
// Unset variables are left as written.
func expandEnvVars(input string) string {
	return envPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

// LoadPlan reads a plan file. Relative input paths resolve against the
// plan file's directory.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	p, err := ParsePlan(data)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	p.resolve(filepath.Dir(path))
	return p, nil
}

// ParsePlan parses and validates plan YAML. Paths are left as written.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.UnmarshalWithOptions([]byte(expandEnvVars(string(data))), &p, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Plan) applyDefaults() {
	for i := range p.Analyses {
		a := &p.Analyses[i]
		a.Kind = Kind(strings.ToLower(string(a.Kind)))
		if a.Name == "" {
			a.Name = fmt.Sprintf("%s-%d", a.Kind, i+1)
		}
		if a.Kind == KindWaiting && a.Marker == "" {
			a.Marker = "Audio packet waiting time ms:"
		}
		if a.Ceiling == 0 {
			a.Ceiling = DefaultCeiling(a.Kind, a.Marker)
		}
		if a.Kind == KindEncoding && a.SendThreshold == nil {
			threshold := int64(stats.DefaultSendThreshold)
			a.SendThreshold = &threshold
		}
	}
}

func (p *Plan) resolve(dir string) {
	abs := func(f string) string {
		if f == "" || filepath.IsAbs(f) {
			return f
		}
		return filepath.Join(dir, f)
	}
	for i := range p.Analyses {
		a := &p.Analyses[i]
		a.File = abs(a.File)
		a.Sender = abs(a.Sender)
		a.Receiver = abs(a.Receiver)
	}
}

// Validate checks every analysis. Names must be unique since they label
// report sections and metric series.
func (p *Plan) Validate() error {
	var errs []error
	if len(p.Analyses) == 0 {
		errs = append(errs, ValidationError{Field: "analyses", Message: "at least one analysis is required"})
	}

	seen := make(map[string]bool)
	for i, a := range p.Analyses {
		field := func(name string) string {
			return fmt.Sprintf("analyses[%d].%s", i, name)
		}

		if seen[a.Name] {
			errs = append(errs, ValidationError{Field: field("name"), Message: fmt.Sprintf("duplicate name %q", a.Name)})
		}
		seen[a.Name] = true

		if !ValidKind(a.Kind) {
			errs = append(errs, ValidationError{Field: field("kind"), Message: fmt.Sprintf("unknown kind %q", a.Kind)})
			continue
		}

		if a.Kind == KindE2E {
			if a.Sender == "" {
				errs = append(errs, ValidationError{Field: field("sender"), Message: "is required for e2e"})
			}
			if a.Receiver == "" {
				errs = append(errs, ValidationError{Field: field("receiver"), Message: "is required for e2e"})
			}
			if a.File != "" {
				errs = append(errs, ValidationError{Field: field("file"), Message: "e2e takes sender and receiver, not file"})
			}
		} else if a.File == "" {
			errs = append(errs, ValidationError{Field: field("file"), Message: fmt.Sprintf("is required for %s", a.Kind)})
		}

		if a.Kind == KindMarker && strings.TrimSpace(a.Marker) == "" {
			errs = append(errs, ValidationError{Field: field("marker"), Message: "is required for marker"})
		}
		if a.Ceiling < 0 {
			errs = append(errs, ValidationError{Field: field("ceiling"), Message: "must be >= 0"})
		}
		if a.SendThreshold != nil && *a.SendThreshold < 0 {
			errs = append(errs, ValidationError{Field: field("send_threshold"), Message: "must be >= 0"})
		}
	}
	return errors.Join(errs...)
}

// PlanFromConfig builds a single-analysis plan from command-line
// configuration. A "plan" command loads the file instead.
func PlanFromConfig(cfg *Config) (*Plan, error) {
	if cfg.Command == CommandPlan {
		return LoadPlan(cfg.Files[0])
	}

	kind := Kind(cfg.Command)
	threshold := cfg.SendThreshold
	a := Analysis{
		Name:          cfg.Command,
		Kind:          kind,
		Ceiling:       cfg.Ceiling,
		SendThreshold: &threshold,
	}
	switch kind {
	case KindE2E:
		a.Sender, a.Receiver = cfg.Files[0], cfg.Files[1]
	case KindMarker:
		a.File, a.Marker = cfg.Files[0], cfg.Marker
		a.Name = strings.TrimSuffix(strings.TrimSpace(cfg.Marker), ":")
	default:
		a.File = cfg.Files[0]
	}

	p := &Plan{Analyses: []Analysis{a}}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
