// Package preflight provides input validation checks run before analysis.
package preflight

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/parser"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/source"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/stats"
)

// minFileDescriptors covers one open log, the metrics temp file and the
// standard streams with room to spare.
const minFileDescriptors = 16

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

func (r *Result) add(c Check) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Passed = false
	}
}

// RunAll checks every input file and, when set, the metrics output
// directory.
func RunAll(files []string, metricsOut string) *Result {
	result := &Result{
		Checks: make([]Check, 0, len(files)+2),
		Passed: true,
	}

	result.add(checkFileDescriptors())
	for _, f := range files {
		result.add(checkInputFile(f))
	}
	if metricsOut != "" {
		result.add(checkOutputDir(metricsOut))
	}
	return result
}

// Err returns nil when every check passed, or an error naming the failed
// checks. A missing input wraps parser.ErrFileNotFound.
func (r *Result) Err() error {
	if r.Passed {
		return nil
	}
	var errs []error
	for _, c := range r.Checks {
		if c.Passed {
			continue
		}
		err := fmt.Errorf("preflight %s: %s", c.Name, c.Message)
		if c.Actual == notFound {
			err = fmt.Errorf("preflight %s: %w", c.Name, parser.ErrFileNotFound)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// notFound marks a Check.Actual for a missing input file.
const notFound = -1

// checkFileDescriptors verifies a handful of file descriptors are available.
func checkFileDescriptors() Check {
	var limit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit); err != nil {
		return Check{
			Name:    "file_descriptors",
			Passed:  true,
			Warning: true,
			Message: "unable to check (non-Linux or restricted)",
		}
	}

	actual := int(limit.Cur)
	return Check{
		Name:     "file_descriptors",
		Required: minFileDescriptors,
		Actual:   actual,
		Passed:   actual >= minFileDescriptors,
		Message:  fmt.Sprintf("ulimit -n %d (need %d)", actual, minFileDescriptors),
	}
}

// checkInputFile verifies path is a readable regular file and reports its
// size and compression. An empty file passes with a warning.
func checkInputFile(path string) Check {
	name := "input " + filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		c := Check{Name: name, Passed: false, Message: err.Error()}
		if errors.Is(err, fs.ErrNotExist) {
			c.Actual = notFound
			c.Message = fmt.Sprintf("%s does not exist", path)
		}
		return c
	}
	if !info.Mode().IsRegular() {
		return Check{Name: name, Passed: false, Message: fmt.Sprintf("%s is not a regular file", path)}
	}

	lr, err := source.Open(path)
	if err != nil {
		return Check{Name: name, Passed: false, Message: fmt.Sprintf("cannot read %s: %v", path, err)}
	}
	defer lr.Close()

	if info.Size() == 0 {
		return Check{Name: name, Passed: true, Warning: true, Message: fmt.Sprintf("%s is empty", path)}
	}

	return Check{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("%s (%s, %s)", path, stats.FormatBytes(info.Size()), lr.Compression()),
	}
}

// checkOutputDir verifies the metrics textfile's directory is writable.
func checkOutputDir(path string) Check {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return Check{
			Name:    "metrics_out",
			Passed:  false,
			Message: fmt.Sprintf("cannot write to %s: %v", dir, err),
		}
	}
	f.Close()
	os.Remove(f.Name())

	return Check{
		Name:    "metrics_out",
		Passed:  true,
		Message: fmt.Sprintf("%s is writable", dir),
	}
}

// PrintResults writes the preflight check results to w.
func PrintResults(w io.Writer, result *Result) {
	fmt.Fprintln(w, "Preflight checks:")
	for _, check := range result.Checks {
		fmt.Fprintln(w, check.String())
		if !check.Passed {
			fmt.Fprintf(w, "    Fix: %s\n", suggestFix(check))
		}
	}
	fmt.Fprintln(w)
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(c Check) string {
	switch {
	case c.Name == "file_descriptors":
		return "ulimit -n 1024 (or edit /etc/security/limits.conf)"
	case c.Name == "metrics_out":
		return "create the directory or choose another -metrics-out path"
	case c.Actual == notFound:
		return "check the path; relative plan paths resolve against the plan file's directory"
	default:
		return "check file permissions"
	}
}
