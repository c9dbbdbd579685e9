package config

import (
	"flag"
	"fmt"
	"io"
)

// ParseFlags parses command-line flags and positional arguments into a
// Config. args excludes the program name. flag.ErrHelp is returned
// unchanged when -h is given.
func ParseFlags(args []string, output io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("go-rtc-delay-stats", flag.ContinueOnError)
	fs.SetOutput(output)

	// Custom usage message
	fs.Usage = func() {
		w := fs.Output()
		fmt.Fprintf(w, `go-rtc-delay-stats - audio delay histograms from WebRTC client logs

Usage:
  go-rtc-delay-stats [flags] <command> <file>...

Commands:
  e2e <sender.log> <receiver.log>   end-to-end transport delay buckets
  marker <file>                     histogram of one "<token>:<int>" marker
  encoding <file>                   audio encoding delay
  waiting <file>                    jitter buffer waiting time
  send <file>                       enqueue to network send delay
  plan <plan.yaml>                  run every analysis in a plan file

Analysis:
`)
		printFlagCategory(fs, []string{"marker", "ceiling", "send-threshold", "zero-as-missing", "strict"})

		fmt.Fprintf(w, "\nOutput:\n")
		printFlagCategory(fs, []string{"outliers", "metrics-out", "tui", "color"})

		fmt.Fprintf(w, "\nObservability:\n")
		printFlagCategory(fs, []string{"v", "log-format", "log-level"})

		fmt.Fprintf(w, "\nDiagnostics:\n")
		printFlagCategory(fs, []string{"skip-preflight", "version"})

		fmt.Fprintf(w, `
Examples:
  # End-to-end delay between two clients
  go-rtc-delay-stats e2e RTCTest_18692.log RTCTest_5136.log

  # Playout delay, gzip-compressed log
  go-rtc-delay-stats -marker "Playout delay:" -ceiling 500 marker RTCTest_18616.log.gz

  # Everything in a plan, with a Prometheus textfile
  go-rtc-delay-stats -metrics-out /var/lib/node_exporter/rtc_delay.prom plan delays.yaml

`)
	}

	// Analysis
	fs.StringVar(&cfg.Marker, "marker", cfg.Marker, `Marker token for the "marker" command`)
	fs.Int64Var(&cfg.Ceiling, "ceiling", cfg.Ceiling, "Report only delays below this value (0 = per-command default)")
	fs.Int64Var(&cfg.SendThreshold, "send-threshold", cfg.SendThreshold, "First encoding sample after a send is kept only above this value")
	fs.BoolVar(&cfg.ZeroAsMissing, "zero-as-missing", cfg.ZeroAsMissing, "Treat a zero send or receive time as absent")
	fs.BoolVar(&cfg.Strict, "strict", cfg.Strict, "Abort on the first malformed log line")

	// Output
	fs.BoolVar(&cfg.ShowOutliers, "outliers", cfg.ShowOutliers, "List e2e records above the last bucket and every send record")
	fs.StringVar(&cfg.MetricsOut, "metrics-out", cfg.MetricsOut, "Write results as a Prometheus textfile")
	fs.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Browse reports in a terminal UI")
	fs.BoolVar(&cfg.Color, "color", cfg.Color, "Style report headings (use -color=false for plain text)")

	// Observability
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, `Log level: "debug", "info", "warn", "error"`)

	// Diagnostics
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip input file checks")
	fs.BoolVar(&cfg.ShowVersion, "version", cfg.ShowVersion, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.ShowVersion {
		return cfg, nil
	}

	if err := ParseArgs(cfg, fs.Args()); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(fs *flag.FlagSet, names []string) {
	w := fs.Output()
	for _, name := range names {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		fmt.Fprintf(w, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			fmt.Fprintf(w, " (default %s)", f.DefValue)
		}
		fmt.Fprintln(w)
	}
}

// flagType returns a type hint for the flag value.
func flagType(f *flag.Flag) string {
	switch f.DefValue {
	case "true", "false":
		return ""
	}

	// Check if numeric
	if _, err := fmt.Sscanf(f.DefValue, "%d", new(int64)); err == nil {
		return "int"
	}

	return "string"
}
