// Package analysis runs the delay analyses of a plan and renders their
// reports.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/config"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/correlate"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/logging"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/metrics"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/parser"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/preflight"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/report"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/source"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/stats"
)

// Options control a run.
type Options struct {
	Strict        bool
	ZeroAsMissing bool
	ShowOutliers  bool
	Color         bool
	SkipPreflight bool
	MetricsOut    string
	Version       string
}

// OptionsFromConfig copies the run options out of a parsed Config.
func OptionsFromConfig(cfg *config.Config, version string) Options {
	return Options{
		Strict:        cfg.Strict,
		ZeroAsMissing: cfg.ZeroAsMissing,
		ShowOutliers:  cfg.ShowOutliers,
		Color:         cfg.Color && !cfg.TUIEnabled,
		SkipPreflight: cfg.SkipPreflight,
		MetricsOut:    cfg.MetricsOut,
		Version:       version,
	}
}

// Result is the outcome of one analysis.
type Result struct {
	Analysis config.Analysis

	// Samples holds the reported delays: every correlated delay for e2e,
	// the samples below the ceiling otherwise.
	Samples stats.Histogram
	Summary stats.Summary

	Buckets     *stats.BucketReport    // e2e only
	Table       correlate.TableStats   // e2e only
	SendRecords []correlate.SendRecord // send only

	// Report is the rendered text section.
	Report string

	// Err is set when the analysis ran but had nothing to report, such as
	// parser.ErrMissingCorrelation.
	Err error

	Elapsed time.Duration
}

// Runner executes plans. It is not safe for concurrent use.
type Runner struct {
	opts      Options
	logger    *slog.Logger
	out       io.Writer
	errOut    io.Writer
	malformed *logging.MalformedReporter
	exporter  *metrics.Exporter
}

// New creates a runner writing reports to out and preflight output to
// errOut.
func New(opts Options, out, errOut io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Runner{
		opts:      opts,
		logger:    logger,
		out:       out,
		errOut:    errOut,
		malformed: logging.NewMalformedReporter(logger, opts.Strict),
	}
	if opts.MetricsOut != "" {
		r.exporter = metrics.NewExporter(opts.Version)
	}
	return r
}

// Malformed returns the reporter that saw every malformed line of the run.
func (r *Runner) Malformed() *logging.MalformedReporter {
	return r.malformed
}

// Run executes every analysis of plan in order. SIGINT and SIGTERM cancel
// the scan in progress.
//
// A fatal error (missing input, strict-mode parse failure, cancellation)
// stops the run. An analysis with nothing to report does not; those
// errors are joined and returned once every analysis has run.
func (r *Runner) Run(ctx context.Context, plan *config.Plan) ([]*Result, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !r.opts.SkipPreflight {
		var files []string
		for _, a := range plan.Analyses {
			files = append(files, a.Files()...)
		}
		result := preflight.RunAll(files, r.opts.MetricsOut)
		preflight.PrintResults(r.errOut, result)
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("preflight checks failed (use -skip-preflight to override): %w", err)
		}
	}

	results := make([]*Result, 0, len(plan.Analyses))
	var soft []error
	for _, a := range plan.Analyses {
		res, err := r.RunOne(ctx, a)
		if err != nil {
			return results, fmt.Errorf("analysis %s: %w", a.Name, err)
		}
		results = append(results, res)
		if _, err := io.WriteString(r.out, res.Report); err != nil {
			return results, fmt.Errorf("write report: %w", err)
		}
		if res.Err != nil {
			r.logger.Warn("analysis_empty", "analysis", a.Name, "error", res.Err)
			soft = append(soft, fmt.Errorf("analysis %s: %w", a.Name, res.Err))
		}
		if r.exporter != nil {
			r.export(res)
		}
	}

	if total := r.malformed.Total(); total > 0 {
		r.logger.Warn("malformed_lines",
			"total", total,
			"by_marker", r.malformed.CountsByMarker(),
			"recent", r.malformed.Recent(5),
		)
		fmt.Fprintln(r.errOut, r.malformed.Summary())
	}

	if r.exporter != nil {
		r.exporter.SetMalformed(int64(r.malformed.Total()))
		if err := r.exporter.WriteFile(r.opts.MetricsOut); err != nil {
			return results, err
		}
		r.logger.Info("metrics_written", "path", r.opts.MetricsOut)
	}

	return results, errors.Join(soft...)
}

// RunOne executes a single analysis and renders its report. The returned
// error is fatal; an empty result is reported through Result.Err.
func (r *Runner) RunOne(ctx context.Context, a config.Analysis) (*Result, error) {
	start := time.Now()
	r.logger.Info("analysis_starting", "analysis", a.Name, "kind", a.Kind, "files", a.Files())

	res := &Result{Analysis: a}
	var err error
	switch a.Kind {
	case config.KindE2E:
		err = r.runE2E(ctx, res)
	case config.KindMarker, config.KindWaiting:
		err = r.runMarker(ctx, res)
	case config.KindEncoding:
		err = r.runEncoding(ctx, res)
	case config.KindSend:
		err = r.runSend(ctx, res)
	default:
		err = fmt.Errorf("unknown analysis kind %q", a.Kind)
	}
	if err != nil {
		return nil, err
	}

	var above int64
	if a.Kind != config.KindE2E {
		if a.Ceiling <= 0 {
			res.Analysis.Ceiling = config.DefaultCeiling(a.Kind, a.Marker)
		}
		total := res.Samples.Total()
		res.Samples = res.Samples.Below(res.Analysis.Ceiling)
		above = total - res.Samples.Total()
	}

	res.Summary = stats.Summarize(res.Samples)
	res.Elapsed = time.Since(start)
	res.Report, res.Err = r.render(res)

	r.logger.Info("analysis_complete",
		"analysis", a.Name,
		"samples", res.Summary.Count,
		"above_ceiling", above,
		"elapsed", stats.FormatDuration(res.Elapsed),
	)
	return res, nil
}

func (r *Runner) correlateOptions() correlate.Options {
	return correlate.Options{
		ZeroAsMissing: r.opts.ZeroAsMissing,
		OnError:       r.malformed.Handle,
	}
}

func (r *Runner) runE2E(ctx context.Context, res *Result) error {
	table, err := correlate.Correlate(ctx, res.Analysis.Sender, res.Analysis.Receiver, r.correlateOptions())
	if err != nil {
		return err
	}
	res.Table = table.Stats()
	res.Buckets = stats.BuildBucketReport(table, r.opts.ZeroAsMissing)
	res.Samples = res.Buckets.Delays
	r.logger.Debug("correlation_table",
		"records", table.Len(),
		"committed", res.Table.Committed,
		"overwritten", res.Table.Overwritten,
		"completed", res.Table.Completed,
		"unmatched", res.Table.Unmatched,
	)
	return nil
}

// scanFile runs scan over path and logs throughput.
func (r *Runner) scanFile(path string, scan func(lr *source.LineReader) error) error {
	start := time.Now()
	return source.ScanFile(path, func(lr *source.LineReader) error {
		if err := scan(lr); err != nil {
			return err
		}
		bytesRead, lines := lr.Stats()
		elapsed := time.Since(start)
		rate := 0.0
		if elapsed > 0 {
			rate = float64(lines) / elapsed.Seconds()
		}
		r.logger.Debug("file_scanned",
			"file", path,
			"compression", lr.Compression().String(),
			"lines", stats.FormatNumber(lines),
			"bytes", stats.FormatBytes(bytesRead),
			"rate", stats.FormatRate(rate),
		)
		return nil
	})
}

func (r *Runner) runMarker(ctx context.Context, res *Result) error {
	marker := parser.Marker{Token: res.Analysis.Marker}
	if res.Analysis.Kind == config.KindWaiting && marker.Token == "" {
		marker = parser.MarkerWaitingTime
	}
	var h stats.Histogram
	err := r.scanFile(res.Analysis.File, func(lr *source.LineReader) error {
		var err error
		h, err = stats.ScanMarker(ctx, lr, marker, r.malformed.Handle)
		return err
	})
	if err != nil {
		return err
	}
	res.Samples = h
	return nil
}

func (r *Runner) runEncoding(ctx context.Context, res *Result) error {
	var h stats.Histogram
	err := r.scanFile(res.Analysis.File, func(lr *source.LineReader) error {
		var err error
		h, err = stats.ScanEncodingDelay(ctx, lr, res.Analysis.Threshold(), r.malformed.Handle)
		return err
	})
	if err != nil {
		return err
	}
	res.Samples = h
	return nil
}

func (r *Runner) runSend(ctx context.Context, res *Result) error {
	var records []correlate.SendRecord
	err := r.scanFile(res.Analysis.File, func(lr *source.LineReader) error {
		var err error
		records, err = correlate.ScanSendQueue(ctx, lr, r.correlateOptions())
		return err
	})
	if err != nil {
		return err
	}
	res.SendRecords = records
	res.Samples = stats.FromSendRecords(records)
	return nil
}

// render produces the text section for res.
func (r *Runner) render(res *Result) (string, error) {
	var buf bytes.Buffer
	rep := report.New(&buf, r.opts.Color)
	a := res.Analysis

	rep.Section(fmt.Sprintf("%s (%s)", a.Name, a.Kind))

	var err error
	if a.Kind == config.KindE2E {
		rep.Note("sender=%s receiver=%s", a.Sender, a.Receiver)
		err = rep.Buckets(res.Buckets, r.opts.ShowOutliers)
		if res.Buckets.Incomplete > 0 || res.Buckets.Excluded > 0 {
			rep.Note("incomplete=%d excluded=%d unmatched_receives=%d",
				res.Buckets.Incomplete, res.Buckets.Excluded, res.Table.Unmatched)
		}
	} else {
		rep.Note("file=%s ceiling=%d", a.File, a.Ceiling)
		err = rep.Histogram(res.Samples, a.Ceiling)
		if a.Kind == config.KindSend && r.opts.ShowOutliers {
			fields := make([][]int64, len(res.SendRecords))
			for i, sr := range res.SendRecords {
				fields[i] = sr.Fields()
			}
			rep.SendRecords(fields)
		}
	}
	rep.Summary(res.Summary)
	return buf.String(), err
}

func (r *Runner) export(res *Result) {
	m := metrics.Result{
		Name:    res.Analysis.Name,
		Kind:    string(res.Analysis.Kind),
		Samples: res.Samples,
		Summary: res.Summary,
	}
	if res.Buckets != nil {
		m.Buckets = res.Buckets.Rows
		m.Incomplete = res.Buckets.Incomplete
	}
	r.exporter.Add(m)
}
