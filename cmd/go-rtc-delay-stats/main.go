// Package main provides the go-rtc-delay-stats CLI entry point.
//
// go-rtc-delay-stats reads WebRTC audio pipeline logs and reports delay
// histograms: end-to-end transport delay from a sender/receiver log pair,
// and per-stage delays from single marker lines.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/analysis"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/config"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/logging"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/go-rtc-delay-stats
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.ParseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}
	if cfg.ShowVersion {
		fmt.Printf("go-rtc-delay-stats %s\n", version)
		return 0
	}

	// When TUI is enabled, suppress logs to avoid interfering with TUI rendering
	var logger *slog.Logger
	if cfg.TUIEnabled {
		logger = logging.NewLoggerWithWriter(io.Discard, cfg.LogFormat, cfg.LogLevel)
	} else {
		logger = logging.NewLogger(cfg.LogFormat, cfg.LogLevel, cfg.Verbose)
	}
	logging.SetDefault(logger)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	plan, err := config.PlanFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	logger.Info("starting",
		"version", version,
		"command", cfg.Command,
		"analyses", len(plan.Analyses),
		"strict", cfg.Strict,
		"zero_as_missing", cfg.ZeroAsMissing,
	)

	var out io.Writer = os.Stdout
	if cfg.TUIEnabled {
		out = io.Discard
	}

	ctx := context.Background()
	runner := analysis.New(analysis.OptionsFromConfig(cfg, version), out, os.Stderr, logger)
	results, runErr := runner.Run(ctx, plan)

	if cfg.TUIEnabled && len(results) > 0 {
		err := tui.Run(ctx, tui.Config{
			Title:    "go-rtc-delay-stats " + version,
			Sections: analysis.Sections(results),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			return 1
		}
	}

	if runErr != nil {
		logger.Error("run_failed", "error", runErr)
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		return 1
	}
	return 0
}
